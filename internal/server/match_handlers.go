package server

import (
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"

	"github.com/gofiber/fiber/v2"
)

type acceptRequest struct {
	Responses []models.ResponseInput `json:"responses"`
}

// CreateMatchRequest handles POST /api/matches/requests/:userId
func (s *Server) CreateMatchRequest(c *fiber.Ctx) error {
	recipientID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	req, err := s.matchService.CreateRequest(c.UserContext(), currentUserID(c), recipientID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

// GetIncomingMatchRequests handles GET /api/matches/requests
func (s *Server) GetIncomingMatchRequests(c *fiber.Ctx) error {
	reqs, err := s.matchService.ListIncoming(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reqs)
}

// GetSentMatchRequests handles GET /api/matches/requests/sent
func (s *Server) GetSentMatchRequests(c *fiber.Ctx) error {
	reqs, err := s.matchService.ListSent(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reqs)
}

// GetMatchRequestQuestions handles GET /api/matches/requests/:requestId/questions
func (s *Server) GetMatchRequestQuestions(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	questions, err := s.matchService.ListRecipientQuestions(c.UserContext(), requestID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(questions)
}

// AcceptMatchRequest handles POST /api/matches/requests/:requestId/accept
func (s *Server) AcceptMatchRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	// An empty body accepts without answers.
	var body acceptRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &body); err != nil {
			return nil
		}
	}

	match, err := s.matchService.Accept(c.UserContext(), requestID, currentUserID(c), body.Responses)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(match)
}

// DeclineMatchRequest handles POST /api/matches/requests/:requestId/decline
func (s *Server) DeclineMatchRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	req, err := s.matchService.Decline(c.UserContext(), requestID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(req)
}

// GetMyMatches handles GET /api/matches
func (s *Server) GetMyMatches(c *fiber.Ctx) error {
	matches, err := s.matchService.ListMatches(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(matches)
}

// GetChatAccess handles GET /api/chat/access/:userId
func (s *Server) GetChatAccess(c *fiber.Ctx) error {
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	allowed, err := s.chatGate.CanChat(c.UserContext(), currentUserID(c), otherID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user_id": otherID, "can_chat": allowed})
}

package server

import (
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyQuestions handles GET /api/questions
func (s *Server) GetMyQuestions(c *fiber.Ctx) error {
	questions, err := s.questionService.ListActive(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(questions)
}

// CreateQuestion handles POST /api/questions
func (s *Server) CreateQuestion(c *fiber.Ctx) error {
	var in service.QuestionInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	q, err := s.questionService.Create(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(q)
}

// UpdateQuestion handles PUT /api/questions/:questionId
func (s *Server) UpdateQuestion(c *fiber.Ctx) error {
	questionID, err := s.parseID(c, "questionId")
	if err != nil {
		return nil
	}
	var in service.QuestionInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	q, err := s.questionService.Update(c.UserContext(), currentUserID(c), questionID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(q)
}

// RetireQuestion handles DELETE /api/questions/:questionId
func (s *Server) RetireQuestion(c *fiber.Ctx) error {
	questionID, err := s.parseID(c, "questionId")
	if err != nil {
		return nil
	}

	if err := s.questionService.Retire(c.UserContext(), currentUserID(c), questionID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Question retired"})
}

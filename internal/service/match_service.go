package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/featureflags"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/middleware"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/notifications"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/observability"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/repository"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// MatchService drives match requests from creation to a mutual match or a decline.
type MatchService struct {
	requestRepo  repository.MatchRequestRepository
	matchRepo    repository.MatchRepository
	questionRepo repository.QuestionRepository
	userRepo     repository.UserRepository
	notifier     notifications.Dispatcher
	flags        featureflags.Checker
}

// NewMatchService returns a new MatchService. A nil flags checker leaves every flag off.
func NewMatchService(
	requestRepo repository.MatchRequestRepository,
	matchRepo repository.MatchRepository,
	questionRepo repository.QuestionRepository,
	userRepo repository.UserRepository,
	notifier notifications.Dispatcher,
	flags featureflags.Checker,
) *MatchService {
	if notifier == nil {
		notifier = notifications.NopDispatcher{}
	}
	return &MatchService{
		requestRepo:  requestRepo,
		matchRepo:    matchRepo,
		questionRepo: questionRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		flags:        flags,
	}
}

// CreateRequest opens a PENDING request from sender to recipient.
func (s *MatchService) CreateRequest(ctx context.Context, senderID, recipientID uint) (req *models.MatchRequest, err error) {
	span, ctx := observability.NewSpan(ctx, "MatchService.CreateRequest")
	span.AddAttributes(
		attribute.Int64("sender.id", int64(senderID)),
		attribute.Int64("recipient.id", int64(recipientID)),
	)
	defer func() {
		span.SetError(err)
		span.End()
	}()

	if senderID == recipientID {
		return nil, models.NewInvalidOperationError("Cannot send a match request to yourself")
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		return nil, err
	}

	matched, err := s.matchRepo.ExistsBetween(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if matched {
		return nil, models.NewConflictError("You are already matched with this user")
	}

	pending, err := s.requestRepo.HasPendingBetween(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, models.NewConflictError("A pending match request already exists between you")
	}

	req = &models.MatchRequest{SenderID: senderID, RecipientID: recipientID}
	if err := s.requestRepo.CreatePending(ctx, req); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, recipientID, notifications.EventNewConnectionRequest,
		fmt.Sprintf("%s would like to connect with you", sender.DisplayName()),
		map[string]interface{}{"request_id": req.ID, "sender_id": senderID},
	)
	return req, nil
}

// ListRecipientQuestions returns the questions the recipient must answer on a
// PENDING request. Only the recipient may see them.
func (s *MatchService) ListRecipientQuestions(ctx context.Context, requestID, callerID uint) ([]models.Question, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RecipientID != callerID || req.Status != models.MatchRequestPending {
		return nil, models.NewAccessDeniedError("Only the recipient of a pending request can view its questions")
	}
	return s.questionRepo.ListActiveByOwner(ctx, req.RecipientID)
}

// Accept answers the recipient's questions and turns the request into a Match.
func (s *MatchService) Accept(ctx context.Context, requestID, callerID uint, responses []models.ResponseInput) (match *models.Match, err error) {
	span, ctx := observability.NewSpan(ctx, "MatchService.Accept")
	span.AddAttributes(
		attribute.Int64("request.id", int64(requestID)),
		attribute.Int("responses", len(responses)),
	)
	defer func() {
		span.SetError(err)
		span.End()
	}()

	req, err := s.pendingForRecipient(ctx, requestID, callerID)
	if err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.ListActiveByOwner(ctx, req.RecipientID)
	if err != nil {
		return nil, err
	}
	cleaned, err := s.cleanResponses(callerID, questions, responses)
	if err != nil {
		return nil, err
	}

	match, err = s.requestRepo.CommitMatch(ctx, req.ID, req.SenderID, req.RecipientID, cleaned)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, req.SenderID, notifications.EventConnectionAccepted,
		"Your match request was accepted",
		map[string]interface{}{"request_id": req.ID, "match_id": match.ID, "user_id": req.RecipientID},
	)
	middleware.Logger.InfoContext(ctx, "match request accepted",
		"request_id", req.ID,
		"match_id", match.ID,
		"responses", len(cleaned),
	)
	return match, nil
}

// cleanResponses checks every answered question belongs to the recipient's
// active set, rejects duplicates and normalizes answers.
func (s *MatchService) cleanResponses(recipientID uint, questions []models.Question, responses []models.ResponseInput) ([]models.ResponseInput, error) {
	active := make(map[uint]bool, len(questions))
	for _, q := range questions {
		active[q.ID] = true
	}

	seen := make(map[uint]bool, len(responses))
	out := make([]models.ResponseInput, 0, len(responses))
	answered := 0
	for _, r := range responses {
		if !active[r.QuestionID] {
			return nil, models.NewInvalidOperationError(fmt.Sprintf("question %d is not one of your active questions", r.QuestionID))
		}
		if seen[r.QuestionID] {
			return nil, models.NewInvalidOperationError(fmt.Sprintf("question %d is answered more than once", r.QuestionID))
		}
		seen[r.QuestionID] = true

		answer := validation.NormalizeAnswer(r.Answer)
		if strings.TrimSpace(answer) != "" {
			answered++
		}
		out = append(out, models.ResponseInput{QuestionID: r.QuestionID, Answer: answer})
	}

	if s.flags != nil && s.flags.Enabled(featureflags.RequireFullAnswers, recipientID) && answered < len(questions) {
		return nil, models.NewInvalidOperationError("every question must be answered before accepting")
	}
	return out, nil
}

// Decline closes a PENDING request without creating a match.
func (s *MatchService) Decline(ctx context.Context, requestID, callerID uint) (*models.MatchRequest, error) {
	req, err := s.pendingForRecipient(ctx, requestID, callerID)
	if err != nil {
		return nil, err
	}
	if err := s.requestRepo.Decline(ctx, req.ID); err != nil {
		return nil, err
	}
	req.Status = models.MatchRequestDeclined
	return req, nil
}

func (s *MatchService) pendingForRecipient(ctx context.Context, requestID, callerID uint) (*models.MatchRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RecipientID != callerID {
		return nil, models.NewAccessDeniedError("You can only respond to match requests sent to you")
	}
	if req.Status != models.MatchRequestPending {
		return nil, models.NewAlreadyResolvedError("MatchRequest", requestID)
	}
	return req, nil
}

// ListIncoming returns PENDING requests addressed to userID.
func (s *MatchService) ListIncoming(ctx context.Context, userID uint) ([]models.MatchRequest, error) {
	return s.requestRepo.ListIncoming(ctx, userID)
}

// ListSent returns PENDING requests sent by userID.
func (s *MatchService) ListSent(ctx context.Context, userID uint) ([]models.MatchRequest, error) {
	return s.requestRepo.ListSent(ctx, userID)
}

// ListMatches returns the user's matches, newest first.
func (s *MatchService) ListMatches(ctx context.Context, userID uint) ([]models.Match, error) {
	return s.matchRepo.ListForUser(ctx, userID)
}

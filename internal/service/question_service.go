package service

import (
	"context"
	"strings"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/repository"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/validation"
)

// QuestionInput carries the editable fields of a screening question.
type QuestionInput struct {
	Prompt       string              `json:"prompt" yaml:"prompt"`
	ResponseType models.ResponseType `json:"response_type" yaml:"response_type"`
	TimerSeconds int                 `json:"timer_seconds" yaml:"timer_seconds"`
}

// normalize trims the prompt and fills defaults, then validates.
func (in QuestionInput) normalize() (QuestionInput, error) {
	in.Prompt = strings.TrimSpace(in.Prompt)
	if err := validation.ValidatePrompt(in.Prompt); err != nil {
		return in, models.NewValidationError(err.Error())
	}

	if in.ResponseType == "" {
		in.ResponseType = models.ResponseTypeFreeText
	}
	if !in.ResponseType.Valid() {
		return in, models.NewValidationError("response_type must be one of free_text, timed_choice, other")
	}

	if in.TimerSeconds == 0 {
		in.TimerSeconds = models.DefaultTimerSeconds
	}
	if err := validation.ValidateTimer(in.TimerSeconds, models.MinTimerSeconds, models.MaxTimerSeconds); err != nil {
		return in, models.NewValidationError(err.Error())
	}
	return in, nil
}

// QuestionService manages the screening questions a user asks of incoming requests.
type QuestionService struct {
	questionRepo repository.QuestionRepository
}

// NewQuestionService returns a new QuestionService.
func NewQuestionService(questionRepo repository.QuestionRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo}
}

// ListActive returns the owner's active questions, oldest first.
func (s *QuestionService) ListActive(ctx context.Context, ownerID uint) ([]models.Question, error) {
	return s.questionRepo.ListActiveByOwner(ctx, ownerID)
}

// Create adds an active question for ownerID.
func (s *QuestionService) Create(ctx context.Context, ownerID uint, in QuestionInput) (*models.Question, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	q := &models.Question{
		OwnerID:      ownerID,
		Prompt:       in.Prompt,
		ResponseType: in.ResponseType,
		TimerSeconds: in.TimerSeconds,
		IsActive:     true,
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Update edits an active question owned by ownerID.
func (s *QuestionService) Update(ctx context.Context, ownerID, questionID uint, in QuestionInput) (*models.Question, error) {
	q, err := s.ownedActive(ctx, ownerID, questionID)
	if err != nil {
		return nil, err
	}
	in, err = in.normalize()
	if err != nil {
		return nil, err
	}

	q.Prompt = in.Prompt
	q.ResponseType = in.ResponseType
	q.TimerSeconds = in.TimerSeconds
	if err := s.questionRepo.Update(ctx, q); err != nil {
		return nil, err
	}
	return s.questionRepo.GetByID(ctx, questionID)
}

// Retire deactivates a question. Responses already given to it are kept.
func (s *QuestionService) Retire(ctx context.Context, ownerID, questionID uint) error {
	if _, err := s.ownedActive(ctx, ownerID, questionID); err != nil {
		return err
	}
	return s.questionRepo.Retire(ctx, questionID)
}

func (s *QuestionService) ownedActive(ctx context.Context, ownerID, questionID uint) (*models.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q.OwnerID != ownerID {
		return nil, models.NewAccessDeniedError("You can only change your own questions")
	}
	if !q.IsActive {
		return nil, models.NewInvalidOperationError("question has been retired")
	}
	return q, nil
}

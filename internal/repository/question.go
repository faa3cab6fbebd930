package repository

import (
	"context"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"

	"gorm.io/gorm"
)

// QuestionRepository defines persistence operations for screening questions.
type QuestionRepository interface {
	Create(ctx context.Context, q *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, q *models.Question) error
	Retire(ctx context.Context, id uint) error
	ListActiveByOwner(ctx context.Context, ownerID uint) ([]models.Question, error)
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository returns a new QuestionRepository implementation.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(ctx context.Context, q *models.Question) error {
	if err := r.db.WithContext(ctx).Create(q).Error; err != nil {
		return wrapError(err)
	}
	return nil
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var q models.Question
	if err := r.db.WithContext(ctx).First(&q, id).Error; err != nil {
		return nil, notFoundOr(err, "Question", id)
	}
	return &q, nil
}

// Update writes the editable fields of q.
func (r *questionRepository) Update(ctx context.Context, q *models.Question) error {
	res := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ?", q.ID).
		Updates(map[string]interface{}{
			"prompt":        q.Prompt,
			"response_type": q.ResponseType,
			"timer_seconds": q.TimerSeconds,
		})
	if res.Error != nil {
		return wrapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Question", q.ID)
	}
	return nil
}

// Retire deactivates a question. Rows are kept so past responses stay resolvable.
func (r *questionRepository) Retire(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return wrapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Question", id)
	}
	return nil
}

func (r *questionRepository) ListActiveByOwner(ctx context.Context, ownerID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Order("created_at ASC, id ASC").
		Find(&questions).Error; err != nil {
		return nil, wrapError(err)
	}
	return questions, nil
}

package repository

import (
	"context"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"

	"gorm.io/gorm"
)

// existsMatchBetweenSQL checks both orderings so rows written before pairs
// were stored canonically are still found.
const existsMatchBetweenSQL = `SELECT EXISTS (SELECT 1 FROM matches WHERE (user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?))`

// MatchRepository defines read operations on mutual matches.
type MatchRepository interface {
	ExistsBetween(ctx context.Context, a, b uint) (bool, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Match, error)
}

type matchRepository struct {
	db *gorm.DB
}

// NewMatchRepository returns a new MatchRepository implementation.
func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) ExistsBetween(ctx context.Context, a, b uint) (bool, error) {
	var exists bool
	if err := r.db.WithContext(ctx).Raw(existsMatchBetweenSQL, a, b, b, a).Scan(&exists).Error; err != nil {
		return false, wrapError(err)
	}
	return exists, nil
}

func (r *matchRepository) ListForUser(ctx context.Context, userID uint) ([]models.Match, error) {
	var matches []models.Match
	if err := r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&matches).Error; err != nil {
		return nil, wrapError(err)
	}
	return matches, nil
}

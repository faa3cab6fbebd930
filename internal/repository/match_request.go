package repository

import (
	"context"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/observability"

	"gorm.io/gorm"
)

const responseBatchSize = 100

// MatchRequestRepository defines persistence operations for the match request lifecycle.
type MatchRequestRepository interface {
	CreatePending(ctx context.Context, req *models.MatchRequest) error
	GetByID(ctx context.Context, id uint) (*models.MatchRequest, error)
	HasPendingBetween(ctx context.Context, a, b uint) (bool, error)
	ListIncoming(ctx context.Context, recipientID uint) ([]models.MatchRequest, error)
	ListSent(ctx context.Context, senderID uint) ([]models.MatchRequest, error)
	CommitMatch(ctx context.Context, requestID, senderID, recipientID uint, responses []models.ResponseInput) (*models.Match, error)
	Decline(ctx context.Context, requestID uint) error
	ListResponses(ctx context.Context, requestID uint) ([]models.MatchResponse, error)
}

type matchRequestRepository struct {
	db *gorm.DB
}

// NewMatchRequestRepository returns a new MatchRequestRepository implementation.
func NewMatchRequestRepository(db *gorm.DB) MatchRequestRepository {
	return &matchRequestRepository{db: db}
}

// CreatePending inserts a PENDING request. A second PENDING request for the
// same (sender, recipient) violates the partial unique index and maps to Conflict.
func (r *matchRequestRepository) CreatePending(ctx context.Context, req *models.MatchRequest) error {
	req.Status = models.MatchRequestPending
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("a pending request to this user already exists")
		}
		return wrapError(err)
	}
	observability.MatchRequestTransitions.WithLabelValues(string(models.MatchRequestPending)).Inc()
	return nil
}

func (r *matchRequestRepository) GetByID(ctx context.Context, id uint) (*models.MatchRequest, error) {
	var req models.MatchRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, notFoundOr(err, "MatchRequest", id)
	}
	return &req, nil
}

// HasPendingBetween reports a PENDING request in either direction.
// Statuses for the pair are filtered here: SQLite's planner rejects an OR of
// pair predicates combined with a bound status against the partial indexes.
func (r *matchRequestRepository) HasPendingBetween(ctx context.Context, a, b uint) (bool, error) {
	if a == b {
		return false, nil
	}
	pair := []uint{a, b}
	var statuses []models.MatchRequestStatus
	if err := r.db.WithContext(ctx).Model(&models.MatchRequest{}).
		Where("sender_id IN ? AND recipient_id IN ?", pair, pair).
		Pluck("status", &statuses).Error; err != nil {
		return false, wrapError(err)
	}
	for _, st := range statuses {
		if st == models.MatchRequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *matchRequestRepository) ListIncoming(ctx context.Context, recipientID uint) ([]models.MatchRequest, error) {
	var reqs []models.MatchRequest
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("recipient_id = ? AND status = ?", recipientID, models.MatchRequestPending).
		Order("created_at ASC, id ASC").
		Find(&reqs).Error; err != nil {
		return nil, wrapError(err)
	}
	return reqs, nil
}

func (r *matchRequestRepository) ListSent(ctx context.Context, senderID uint) ([]models.MatchRequest, error) {
	var reqs []models.MatchRequest
	if err := r.db.WithContext(ctx).
		Preload("Recipient").
		Where("sender_id = ? AND status = ?", senderID, models.MatchRequestPending).
		Order("created_at ASC, id ASC").
		Find(&reqs).Error; err != nil {
		return nil, wrapError(err)
	}
	return reqs, nil
}

// CommitMatch accepts a PENDING request, creates the Match and stores the
// recipient's responses in one transaction. A request that is no longer
// PENDING yields AlreadyResolved. A pair that is already matched yields
// Conflict and the request is declined, since it can never be accepted.
func (r *matchRequestRepository) CommitMatch(
	ctx context.Context, requestID, senderID, recipientID uint, responses []models.ResponseInput,
) (match *models.Match, err error) {
	ctx, end := startSpan(ctx, r.db, "CommitMatch", "match_requests")
	defer func() { end(err) }()

	match = models.NewMatch(requestID, senderID, recipientID)
	pairTaken := false
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.MatchRequest{}).
			Where("id = ? AND status = ?", requestID, models.MatchRequestPending).
			Update("status", models.MatchRequestAccepted)
		if res.Error != nil {
			return wrapError(res.Error)
		}
		if res.RowsAffected == 0 {
			return resolvedOrMissing(tx, requestID)
		}

		if err := tx.Create(match).Error; err != nil {
			if isUniqueConstraintError(err) {
				pairTaken = true
				return models.NewConflictError("these users are already matched")
			}
			return wrapError(err)
		}

		if len(responses) == 0 {
			return nil
		}
		rows := make([]models.MatchResponse, 0, len(responses))
		for _, resp := range responses {
			rows = append(rows, models.MatchResponse{
				MatchRequestID: requestID,
				QuestionID:     resp.QuestionID,
				Answer:         resp.Answer,
			})
		}
		if err := tx.CreateInBatches(&rows, responseBatchSize).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewInvalidOperationError("each question can be answered once")
			}
			return wrapError(err)
		}
		return nil
	})
	if pairTaken {
		if declineErr := r.Decline(ctx, requestID); declineErr != nil && !models.IsCode(declineErr, models.CodeAlreadyResolved) {
			return nil, declineErr
		}
	}
	if err != nil {
		return nil, err
	}
	observability.MatchRequestTransitions.WithLabelValues(string(models.MatchRequestAccepted)).Inc()
	return match, nil
}

// Decline moves a PENDING request to DECLINED.
func (r *matchRequestRepository) Decline(ctx context.Context, requestID uint) error {
	res := r.db.WithContext(ctx).Model(&models.MatchRequest{}).
		Where("id = ? AND status = ?", requestID, models.MatchRequestPending).
		Update("status", models.MatchRequestDeclined)
	if res.Error != nil {
		return wrapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return resolvedOrMissing(r.db.WithContext(ctx), requestID)
	}
	observability.MatchRequestTransitions.WithLabelValues(string(models.MatchRequestDeclined)).Inc()
	return nil
}

func (r *matchRequestRepository) ListResponses(ctx context.Context, requestID uint) ([]models.MatchResponse, error) {
	var rows []models.MatchResponse
	if err := r.db.WithContext(ctx).
		Where("match_request_id = ?", requestID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, wrapError(err)
	}
	return rows, nil
}

// resolvedOrMissing explains why a guarded status update matched no row.
func resolvedOrMissing(db *gorm.DB, requestID uint) error {
	var count int64
	if err := db.Model(&models.MatchRequest{}).Where("id = ?", requestID).Count(&count).Error; err != nil {
		return wrapError(err)
	}
	if count == 0 {
		return models.NewNotFoundError("MatchRequest", requestID)
	}
	return models.NewAlreadyResolvedError("MatchRequest", requestID)
}

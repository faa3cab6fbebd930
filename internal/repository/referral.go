package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/observability"

	"gorm.io/gorm"
)

// ErrCodeTaken is returned when a generated code collides with an existing one.
// Callers regenerate and retry.
var ErrCodeTaken = errors.New("referral code already taken")

// ErrCodeAttemptsExhausted is returned when every generated code collided.
var ErrCodeAttemptsExhausted = errors.New("referral code generation attempts exhausted")

// CodeGenerator produces a candidate referral code.
type CodeGenerator func() (string, error)

// RotationPolicy controls the automatic code rotation applied by RecordReferral.
type RotationPolicy struct {
	// Threshold is the referral count at which the code is replaced and the count reset.
	Threshold   int
	MaxAttempts int
	Generate    CodeGenerator
}

// ReferralOutcome describes the referrer after a recorded referral.
type ReferralOutcome struct {
	Referrer models.User
	Rotated  bool
}

// ReferralRepository defines persistence operations for referral codes and the referral graph.
type ReferralRepository interface {
	AssignCodeIfEmpty(ctx context.Context, userID uint, code string) (bool, error)
	ReplaceCode(ctx context.Context, userID uint, code string) error
	FindByCode(ctx context.Context, code string) (*models.User, error)
	RecordReferral(ctx context.Context, referrerID, referredID uint, policy RotationPolicy) (*ReferralOutcome, error)
	GetReferrer(ctx context.Context, userID uint) (*models.User, error)
	ListReferredBy(ctx context.Context, userID uint) ([]models.User, error)
}

type referralRepository struct {
	db *gorm.DB
}

// NewReferralRepository returns a new ReferralRepository implementation.
func NewReferralRepository(db *gorm.DB) ReferralRepository {
	return &referralRepository{db: db}
}

// AssignCodeIfEmpty claims code for a user that has none. It reports false
// when the user already has a code (or does not exist).
func (r *referralRepository) AssignCodeIfEmpty(ctx context.Context, userID uint, code string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND referral_code IS NULL", userID).
		Update("referral_code", code)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return false, ErrCodeTaken
		}
		return false, wrapError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ReplaceCode unconditionally sets a new code and resets the use count.
func (r *referralRepository) ReplaceCode(ctx context.Context, userID uint, code string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{"referral_code": code, "referral_count": 0})
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return ErrCodeTaken
		}
		return wrapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", userID)
	}
	return nil
}

func (r *referralRepository) FindByCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "ReferralCode", code)
	}
	return &user, nil
}

// RecordReferral links referredID to referrerID, bumps the referrer's count
// and rotates the referrer's code once the count reaches the threshold. All
// steps commit together or not at all.
func (r *referralRepository) RecordReferral(ctx context.Context, referrerID, referredID uint, policy RotationPolicy) (out *ReferralOutcome, err error) {
	ctx, end := startSpan(ctx, r.db, "RecordReferral", "users")
	defer func() { end(err) }()

	if referrerID == referredID {
		return nil, models.NewInvalidOperationError("a user cannot refer themselves")
	}

	out = &ReferralOutcome{}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var referrer models.User
		if err := tx.Select("id").First(&referrer, referrerID).Error; err != nil {
			return notFoundOr(err, "User", referrerID)
		}

		res := tx.Model(&models.User{}).
			Where("id = ? AND referred_by_id IS NULL", referredID).
			Update("referred_by_id", referrerID)
		if res.Error != nil {
			return wrapError(res.Error)
		}
		if res.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&models.User{}).Where("id = ?", referredID).Count(&exists).Error; err != nil {
				return wrapError(err)
			}
			if exists == 0 {
				return models.NewNotFoundError("User", referredID)
			}
			return models.NewAlreadyReferredError(referredID)
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", referrerID).
			Update("referral_count", gorm.Expr("referral_count + 1")).Error; err != nil {
			return wrapError(err)
		}

		rotated, err := rotateAtThreshold(tx, referrerID, policy)
		if err != nil {
			return err
		}
		out.Rotated = rotated

		if err := tx.First(&out.Referrer, referrerID).Error; err != nil {
			return wrapError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// rotateAtThreshold replaces the code when referral_count >= threshold. Each
// attempt runs in a savepoint so a collision does not abort the outer transaction.
func rotateAtThreshold(tx *gorm.DB, userID uint, policy RotationPolicy) (bool, error) {
	if policy.Threshold <= 0 || policy.Generate == nil {
		return false, nil
	}
	// The increment above holds the row lock, so this read is stable for the transaction.
	var count int
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Select("referral_count").Scan(&count).Error; err != nil {
		return false, wrapError(err)
	}
	if count < policy.Threshold {
		return false, nil
	}

	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		code, err := policy.Generate()
		if err != nil {
			return false, models.NewInternalError(fmt.Errorf("generate referral code: %w", err))
		}

		var affected int64
		err = tx.Transaction(func(sp *gorm.DB) error {
			res := sp.Model(&models.User{}).
				Where("id = ? AND referral_count >= ?", userID, policy.Threshold).
				Updates(map[string]interface{}{"referral_code": code, "referral_count": 0})
			affected = res.RowsAffected
			return res.Error
		})
		if err == nil {
			if affected > 0 {
				observability.ReferralCodesIssued.WithLabelValues("rotated").Inc()
			}
			return affected > 0, nil
		}
		if !isUniqueConstraintError(err) {
			return false, wrapError(err)
		}
		observability.ReferralCodeCollisions.Inc()
	}
	return false, models.NewInternalError(ErrCodeAttemptsExhausted)
}

// GetReferrer returns the user who referred userID, or nil if there is none.
func (r *referralRepository) GetReferrer(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("ReferredBy").First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "User", userID)
	}
	return user.ReferredBy, nil
}

func (r *referralRepository) ListReferredBy(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("referred_by_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&users).Error; err != nil {
		return nil, wrapError(err)
	}
	return users, nil
}

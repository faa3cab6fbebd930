// Package service holds the business rules of the referral and match engine.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/middleware"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/notifications"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/observability"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/repository"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultRotationThreshold is the referral count that triggers a code rotation.
	DefaultRotationThreshold = 5
	// DefaultMaxCodeAttempts bounds regeneration after unique-index collisions.
	DefaultMaxCodeAttempts = 16
)

// ReferralPolicy configures code issuance. Zero values select the defaults.
type ReferralPolicy struct {
	RotationThreshold int
	MaxCodeAttempts   int
	Generate          repository.CodeGenerator
}

func (p ReferralPolicy) withDefaults() ReferralPolicy {
	if p.RotationThreshold <= 0 {
		p.RotationThreshold = DefaultRotationThreshold
	}
	if p.MaxCodeAttempts <= 0 {
		p.MaxCodeAttempts = DefaultMaxCodeAttempts
	}
	if p.Generate == nil {
		p.Generate = GenerateReferralCode
	}
	return p
}

// CodeValidation is the public answer to a code lookup. The owner id is never exposed.
type CodeValidation struct {
	Valid            bool   `json:"valid"`
	OwnerDisplayName string `json:"owner_display_name,omitempty"`
}

// ReferralService issues referral codes and maintains the referral graph.
type ReferralService struct {
	referralRepo repository.ReferralRepository
	userRepo     repository.UserRepository
	notifier     notifications.Dispatcher
	policy       ReferralPolicy
}

// NewReferralService returns a new ReferralService.
func NewReferralService(
	referralRepo repository.ReferralRepository,
	userRepo repository.UserRepository,
	notifier notifications.Dispatcher,
	policy ReferralPolicy,
) *ReferralService {
	if notifier == nil {
		notifier = notifications.NopDispatcher{}
	}
	return &ReferralService{
		referralRepo: referralRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		policy:       policy.withDefaults(),
	}
}

// IssueCode returns the user's code, claiming a fresh one on first use.
// Concurrent first calls converge on a single code.
func (s *ReferralService) IssueCode(ctx context.Context, userID uint) (code string, err error) {
	span, ctx := observability.NewSpan(ctx, "ReferralService.IssueCode")
	span.AddAttributes(attribute.Int64("user.id", int64(userID)))
	defer func() {
		span.SetError(err)
		span.End()
	}()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.ReferralCode != nil {
		return *user.ReferralCode, nil
	}

	for i := 0; i < s.policy.MaxCodeAttempts; i++ {
		candidate, err := s.policy.Generate()
		if err != nil {
			return "", models.NewInternalError(fmt.Errorf("generate referral code: %w", err))
		}

		assigned, err := s.referralRepo.AssignCodeIfEmpty(ctx, userID, candidate)
		if errors.Is(err, repository.ErrCodeTaken) {
			observability.ReferralCodeCollisions.Inc()
			continue
		}
		if err != nil {
			return "", err
		}
		if assigned {
			observability.ReferralCodesIssued.WithLabelValues("issued").Inc()
			return candidate, nil
		}

		// Lost the race to another first issue; return the winner's code.
		user, err = s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return "", err
		}
		if user.ReferralCode != nil {
			return *user.ReferralCode, nil
		}
	}
	return "", models.NewInternalError(repository.ErrCodeAttemptsExhausted)
}

// RotateCode replaces the user's code and resets its use count.
func (s *ReferralService) RotateCode(ctx context.Context, userID uint) (code string, err error) {
	span, ctx := observability.NewSpan(ctx, "ReferralService.RotateCode")
	span.AddAttributes(attribute.Int64("user.id", int64(userID)))
	defer func() {
		span.SetError(err)
		span.End()
	}()

	for i := 0; i < s.policy.MaxCodeAttempts; i++ {
		candidate, err := s.policy.Generate()
		if err != nil {
			return "", models.NewInternalError(fmt.Errorf("generate referral code: %w", err))
		}

		err = s.referralRepo.ReplaceCode(ctx, userID, candidate)
		if errors.Is(err, repository.ErrCodeTaken) {
			observability.ReferralCodeCollisions.Inc()
			continue
		}
		if err != nil {
			return "", err
		}
		observability.ReferralCodesIssued.WithLabelValues("regenerated").Inc()
		return candidate, nil
	}
	return "", models.NewInternalError(repository.ErrCodeAttemptsExhausted)
}

// ValidateCode reports whether code belongs to a user. Unknown or malformed
// codes are not errors.
func (s *ReferralService) ValidateCode(ctx context.Context, code string) (CodeValidation, error) {
	code = validation.NormalizeReferralCode(code)
	if err := validation.ValidateReferralCode(code); err != nil {
		return CodeValidation{}, nil
	}

	owner, err := s.referralRepo.FindByCode(ctx, code)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return CodeValidation{}, nil
		}
		return CodeValidation{}, err
	}
	return CodeValidation{Valid: true, OwnerDisplayName: owner.DisplayName()}, nil
}

// RecordReferral links referredID to referrerID and notifies the referrer.
func (s *ReferralService) RecordReferral(ctx context.Context, referrerID, referredID uint) (out *repository.ReferralOutcome, err error) {
	span, ctx := observability.NewSpan(ctx, "ReferralService.RecordReferral")
	span.AddAttributes(
		attribute.Int64("referrer.id", int64(referrerID)),
		attribute.Int64("referred.id", int64(referredID)),
	)
	defer func() {
		span.SetError(err)
		span.End()
	}()

	out, err = s.referralRepo.RecordReferral(ctx, referrerID, referredID, repository.RotationPolicy{
		Threshold:   s.policy.RotationThreshold,
		MaxAttempts: s.policy.MaxCodeAttempts,
		Generate:    s.policy.Generate,
	})
	if err != nil {
		return nil, err
	}
	observability.ReferralsRecorded.Inc()
	span.AddAttributes(attribute.Bool("referral.rotated", out.Rotated))

	message := "Someone joined using your referral code"
	if out.Rotated {
		message = "Your referral code reached its limit and was replaced"
	}
	s.notifier.Notify(ctx, referrerID, notifications.EventCodeRelated, message, map[string]interface{}{
		"referred_id":    referredID,
		"referral_count": out.Referrer.ReferralCount,
		"rotated":        out.Rotated,
	})

	middleware.Logger.InfoContext(ctx, "referral recorded",
		"referrer_id", referrerID,
		"referred_id", referredID,
		"rotated", out.Rotated,
	)
	return out, nil
}

// RedeemCode records newUserID as referred by the owner of code.
func (s *ReferralService) RedeemCode(ctx context.Context, newUserID uint, code string) (*repository.ReferralOutcome, error) {
	code = validation.NormalizeReferralCode(code)
	if err := validation.ValidateReferralCode(code); err != nil {
		return nil, models.NewNotFoundError("ReferralCode", code)
	}

	owner, err := s.referralRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.RecordReferral(ctx, owner.ID, newUserID)
}

// GetReferrerOf returns the referrer of userID, or nil when the user joined without one.
func (s *ReferralService) GetReferrerOf(ctx context.Context, userID uint) (*models.User, error) {
	return s.referralRepo.GetReferrer(ctx, userID)
}

// ListReferredBy returns the users referred by userID, oldest first.
func (s *ReferralService) ListReferredBy(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.referralRepo.ListReferredBy(ctx, userID)
}

package server

import (
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"

	"github.com/gofiber/fiber/v2"
)

type referralCodeRequest struct {
	Code string `json:"code"`
}

// ValidateReferralCode handles POST /api/referrals/validate
func (s *Server) ValidateReferralCode(c *fiber.Ctx) error {
	var req referralCodeRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	result, err := s.referralService.ValidateCode(c.UserContext(), req.Code)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetMyReferralCode handles GET /api/referrals/code
func (s *Server) GetMyReferralCode(c *fiber.Ctx) error {
	code, err := s.referralService.IssueCode(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"code": code})
}

// RotateMyReferralCode handles POST /api/referrals/code/rotate
func (s *Server) RotateMyReferralCode(c *fiber.Ctx) error {
	code, err := s.referralService.RotateCode(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"code": code})
}

// RedeemReferralCode handles POST /api/referrals/redeem
func (s *Server) RedeemReferralCode(c *fiber.Ctx) error {
	var req referralCodeRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Code == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("code is required"))
	}

	out, err := s.referralService.RedeemCode(c.UserContext(), currentUserID(c), req.Code)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"referred_by": out.Referrer.DisplayName(),
	})
}

// GetMyReferrals handles GET /api/referrals/referred
func (s *Server) GetMyReferrals(c *fiber.Ctx) error {
	users, err := s.referralService.ListReferredBy(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summaries(users))
}

// GetMyReferrer handles GET /api/referrals/referrer
func (s *Server) GetMyReferrer(c *fiber.Ctx) error {
	referrer, err := s.referralService.GetReferrerOf(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	if referrer == nil {
		return c.JSON(fiber.Map{"referrer": nil})
	}
	return c.JSON(fiber.Map{"referrer": referrer.Summary()})
}

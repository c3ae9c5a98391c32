package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/lumadrop/coupon-distributor/internal/identity"
	"github.com/lumadrop/coupon-distributor/internal/model"
	"github.com/lumadrop/coupon-distributor/internal/service"
)

// DistributionServiceInterface defines the claim flow entry point.
type DistributionServiceInterface interface {
	Claim(ctx context.Context, identity model.Identity, meta service.ClaimMetadata) (*model.ClaimResult, error)
}

// IdentityResolver resolves a visitor identity from the request.
type IdentityResolver interface {
	Resolve(c *fiber.Ctx) (model.Identity, error)
}

// ClaimHandler handles visitor-facing claim requests.
type ClaimHandler struct {
	service  DistributionServiceInterface
	resolver IdentityResolver
}

// NewClaimHandler creates a new ClaimHandler.
func NewClaimHandler(svc DistributionServiceInterface, resolver IdentityResolver) *ClaimHandler {
	return &ClaimHandler{service: svc, resolver: resolver}
}

// claimSuccessResponse is the payload surfaced to a successful claimant.
type claimSuccessResponse struct {
	Status      string `json:"status"`
	Code        string `json:"code"`
	Discount    string `json:"discount,omitempty"`
	Description string `json:"description,omitempty"`
}

// Claim handles POST /api/claim requests.
// Identity resolution failure refuses the request before touching storage.
func (h *ClaimHandler) Claim(c *fiber.Ctx) error {
	id, err := h.resolver.Resolve(c)
	if err != nil {
		if errors.Is(err, identity.ErrAddressUnresolved) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "could not verify your identity",
			})
		}
		log.Error().Err(err).Msg("identity resolution failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	result, err := h.service.Claim(c.Context(), id, service.ClaimMetadata{
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("origin_address", id.OriginAddress).
			Bool("inconsistent", errors.Is(err, service.ErrInconsistentAllocation)).
			Msg("failed to process claim")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	switch result.Status {
	case model.ClaimSuccess:
		log.Info().
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("coupon_id", result.Coupon.ID.String()).
			Str("origin_address", id.OriginAddress).
			Msg("coupon claimed")
		return c.JSON(claimSuccessResponse{
			Status:      string(result.Status),
			Code:        result.Coupon.Code,
			Discount:    result.Coupon.Discount,
			Description: result.Coupon.Description,
		})
	case model.ClaimIneligible:
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"status":    result.Status,
			"reason":    result.Reason,
			"time_left": result.TimeLeft,
		})
	case model.ClaimExhausted:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status": result.Status,
			"error":  "no coupons available",
		})
	default:
		log.Error().Str("status", string(result.Status)).Msg("unexpected claim status")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}

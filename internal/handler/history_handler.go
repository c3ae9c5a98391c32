package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lumadrop/coupon-distributor/internal/identity"
	"github.com/lumadrop/coupon-distributor/internal/model"
)

// ClaimHistoryInterface lists ledger entries for the audit view.
type ClaimHistoryInterface interface {
	ClaimHistory(ctx context.Context, filter model.ClaimFilter) ([]model.ClaimRecord, error)
}

// HistoryHandler handles admin claim-history requests.
type HistoryHandler struct {
	service ClaimHistoryInterface
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(svc ClaimHistoryInterface) *HistoryHandler {
	return &HistoryHandler{service: svc}
}

// claimRecordView is the history DTO. The origin address is masked for
// display; the full address stays in storage for eligibility checks.
type claimRecordView struct {
	ID                uuid.UUID `json:"id"`
	CouponID          uuid.UUID `json:"coupon_id"`
	CouponCode        string    `json:"coupon_code"`
	Discount          string    `json:"discount"`
	OriginAddress     string    `json:"origin_address"`
	DeviceFingerprint string    `json:"device_fingerprint"`
	UserAgent         string    `json:"user_agent,omitempty"`
	ClaimedAt         time.Time `json:"claimed_at"`
}

// List handles GET /api/admin/claims, optionally filtered by ?coupon_id=.
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	var filter model.ClaimFilter
	if raw := c.Query("coupon_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid coupon_id filter"})
		}
		filter.CouponID = &id
	}

	records, err := h.service.ClaimHistory(c.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to list claim history")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	views := make([]claimRecordView, 0, len(records))
	for _, rec := range records {
		views = append(views, claimRecordView{
			ID:                rec.ID,
			CouponID:          rec.CouponID,
			CouponCode:        rec.CouponCode,
			Discount:          rec.Discount,
			OriginAddress:     identity.MaskAddress(rec.OriginAddress),
			DeviceFingerprint: rec.DeviceFingerprint,
			UserAgent:         rec.UserAgent,
			ClaimedAt:         rec.ClaimedAt,
		})
	}
	return c.JSON(views)
}

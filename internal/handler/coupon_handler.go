package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lumadrop/coupon-distributor/internal/model"
	"github.com/lumadrop/coupon-distributor/internal/service"
)

// CouponAdminInterface defines the coupon-pool operations exposed to admins.
type CouponAdminInterface interface {
	CreateCoupon(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error)
	ListCoupons(ctx context.Context) ([]model.Coupon, error)
	UpdateCoupon(ctx context.Context, id uuid.UUID, req *model.UpdateCouponRequest) (*model.Coupon, error)
	SetCouponActive(ctx context.Context, id uuid.UUID, active bool) error
	DeleteCoupon(ctx context.Context, id uuid.UUID) error
}

// CouponHandler handles admin HTTP requests for the coupon pool.
type CouponHandler struct {
	service   CouponAdminInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponAdminInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// formatCouponValidationError converts validator errors to user-facing messages.
func formatCouponValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			switch fe.Field() {
			case "Code":
				if fe.Tag() == "couponcode" {
					return "invalid request: code must be at least 4 characters and contain no spaces"
				}
				return "invalid request: code is invalid"
			case "Description":
				return "invalid request: description must be at most 500 characters"
			case "Discount":
				return "invalid request: discount is invalid"
			case "ExpiresAt":
				return "invalid request: expires_at must be in the future"
			default:
				return "invalid request: " + fe.Field() + " is invalid"
			}
		}
	}
	return "invalid request"
}

func parseCouponID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// CreateCoupon handles POST /api/admin/coupons.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req model.CreateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatCouponValidationError(err)})
	}

	coupon, err := h.service.CreateCoupon(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrCouponExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon code already exists"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("coupon_code", req.Code).Msg("failed to create coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(fiber.StatusCreated).JSON(coupon)
}

// ListCoupons handles GET /api/admin/coupons.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.service.ListCoupons(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list coupons")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(coupons)
}

// UpdateCoupon handles PUT /api/admin/coupons/:id.
func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	id, err := parseCouponID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid coupon id"})
	}

	var req model.UpdateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatCouponValidationError(err)})
	}

	coupon, err := h.service.UpdateCoupon(c.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		if errors.Is(err, service.ErrCouponExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon code already exists"})
		}
		log.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to update coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(coupon)
}

// setActiveRequest is the body for PATCH /api/admin/coupons/:id/active.
type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// SetActive handles PATCH /api/admin/coupons/:id/active.
func (h *CouponHandler) SetActive(c *fiber.Ctx) error {
	id, err := parseCouponID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid coupon id"})
	}

	var req setActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: is_active is required"})
	}

	if err := h.service.SetCouponActive(c.Context(), id, *req.IsActive); err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		log.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to toggle coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteCoupon handles DELETE /api/admin/coupons/:id.
func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	id, err := parseCouponID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid coupon id"})
	}

	if err := h.service.DeleteCoupon(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		log.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to delete coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/lumadrop/coupon-distributor/internal/model"
	"github.com/lumadrop/coupon-distributor/internal/service"
)

// SettingsAdminInterface exposes distribution-settings reads and edits.
type SettingsAdminInterface interface {
	GetSettings(ctx context.Context) (*model.DistributionSettings, error)
	UpdateSettings(ctx context.Context, req *model.UpdateSettingsRequest) (*model.DistributionSettings, error)
}

// SettingsHandler handles admin settings requests.
type SettingsHandler struct {
	service   SettingsAdminInterface
	validator *validator.Validate
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(svc SettingsAdminInterface, v *validator.Validate) *SettingsHandler {
	return &SettingsHandler{service: svc, validator: v}
}

// Get handles GET /api/admin/settings.
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	settings, err := h.service.GetSettings(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to get settings")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(settings)
}

// Update handles PUT /api/admin/settings.
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	var req model.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: values must be non-negative"})
	}

	settings, err := h.service.UpdateSettings(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Msg("failed to update settings")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(settings)
}

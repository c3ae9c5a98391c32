package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumadrop/coupon-distributor/internal/model"
	appvalidator "github.com/lumadrop/coupon-distributor/internal/validator"
)

// mockSettingsAdmin is a mock implementation of SettingsAdminInterface.
type mockSettingsAdmin struct {
	getFn    func(ctx context.Context) (*model.DistributionSettings, error)
	updateFn func(ctx context.Context, req *model.UpdateSettingsRequest) (*model.DistributionSettings, error)
}

func (m *mockSettingsAdmin) GetSettings(ctx context.Context) (*model.DistributionSettings, error) {
	if m.getFn != nil {
		return m.getFn(ctx)
	}
	return &model.DistributionSettings{CooldownHours: model.DefaultCooldownHours}, nil
}

func (m *mockSettingsAdmin) UpdateSettings(ctx context.Context, req *model.UpdateSettingsRequest) (*model.DistributionSettings, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, req)
	}
	return &model.DistributionSettings{}, nil
}

func setupSettingsTestApp(mockSvc *mockSettingsAdmin) *fiber.App {
	app := fiber.New()
	h := NewSettingsHandler(mockSvc, appvalidator.New())
	app.Get("/api/admin/settings", h.Get)
	app.Put("/api/admin/settings", h.Update)
	return app
}

func TestSettingsGet_ReturnsCurrentValues(t *testing.T) {
	mockSvc := &mockSettingsAdmin{
		getFn: func(ctx context.Context) (*model.DistributionSettings, error) {
			return &model.DistributionSettings{CooldownHours: 48, RotationCursor: 3}, nil
		},
	}
	app := setupSettingsTestApp(mockSvc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var settings model.DistributionSettings
	err = json.NewDecoder(resp.Body).Decode(&settings)
	require.NoError(t, err)
	assert.Equal(t, 48, settings.CooldownHours)
	assert.Equal(t, 3, settings.RotationCursor)
}

func TestSettingsUpdate_Success(t *testing.T) {
	var captured *model.UpdateSettingsRequest
	mockSvc := &mockSettingsAdmin{
		updateFn: func(ctx context.Context, req *model.UpdateSettingsRequest) (*model.DistributionSettings, error) {
			captured = req
			return &model.DistributionSettings{CooldownHours: *req.CooldownHours}, nil
		},
	}
	app := setupSettingsTestApp(mockSvc)

	body := `{"cooldown_hours": 12}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/settings", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, captured)
	require.NotNil(t, captured.CooldownHours)
	assert.Equal(t, 12, *captured.CooldownHours)
	assert.Nil(t, captured.RotationCursor, "unset fields must stay nil")
}

func TestSettingsUpdate_NegativeCooldown(t *testing.T) {
	mockSvc := &mockSettingsAdmin{}
	app := setupSettingsTestApp(mockSvc)

	body := `{"cooldown_hours": -5}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/settings", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var result map[string]string
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(t, err)
	assert.Equal(t, "invalid request: values must be non-negative", result["error"])
}

func TestSettingsUpdate_MalformedJSON(t *testing.T) {
	mockSvc := &mockSettingsAdmin{}
	app := setupSettingsTestApp(mockSvc)

	req := httptest.NewRequest(http.MethodPut, "/api/admin/settings", bytes.NewBufferString(`{bad`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

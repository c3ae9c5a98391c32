package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lumadrop/coupon-distributor/internal/model"
)

// CouponRepositoryInterface defines the coupon-pool access the admin surface
// needs.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateCouponRequest) (*model.Coupon, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ClaimHistoryReader lists ledger entries for the audit view.
type ClaimHistoryReader interface {
	List(ctx context.Context, filter model.ClaimFilter) ([]model.ClaimRecord, error)
}

// SettingsRepositoryInterface defines settings access for the admin surface.
type SettingsRepositoryInterface interface {
	Get(ctx context.Context) (*model.DistributionSettings, error)
	Update(ctx context.Context, req *model.UpdateSettingsRequest) (*model.DistributionSettings, error)
}

// AdminService provides the administrative operations: coupon pool CRUD,
// claim-history queries and settings edits. These bypass eligibility and
// allocation entirely.
type AdminService struct {
	coupons  CouponRepositoryInterface
	claims   ClaimHistoryReader
	settings SettingsRepositoryInterface
}

// NewAdminService creates an AdminService from its repositories.
func NewAdminService(coupons CouponRepositoryInterface, claims ClaimHistoryReader, settings SettingsRepositoryInterface) *AdminService {
	return &AdminService{coupons: coupons, claims: claims, settings: settings}
}

// CreateCoupon creates a coupon with distribution defaults: active, not
// assigned, zero claims. A blank code is replaced with a generated one.
func (s *AdminService) CreateCoupon(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	code := req.Code
	if code == "" {
		code = model.GenerateCode(model.DefaultCodeLength)
	}

	coupon := &model.Coupon{
		ID:          uuid.New(),
		Code:        code,
		Discount:    req.Discount,
		Description: req.Description,
		IsActive:    true,
		ExpiresAt:   req.ExpiresAt,
	}
	if err := s.coupons.Insert(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// ListCoupons returns all coupons, newest first.
func (s *AdminService) ListCoupons(ctx context.Context) ([]model.Coupon, error) {
	return s.coupons.List(ctx)
}

// UpdateCoupon applies an admin edit to a coupon.
// Returns ErrCouponNotFound if the coupon doesn't exist.
func (s *AdminService) UpdateCoupon(ctx context.Context, id uuid.UUID, req *model.UpdateCouponRequest) (*model.Coupon, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	return s.coupons.Update(ctx, id, req)
}

// SetCouponActive toggles a coupon's distribution eligibility.
func (s *AdminService) SetCouponActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.coupons.SetActive(ctx, id, active)
}

// DeleteCoupon removes a coupon from the pool. Ledger entries referencing it
// keep their own code snapshot, so the audit trail is unaffected.
func (s *AdminService) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	return s.coupons.Delete(ctx, id)
}

// ClaimHistory returns ledger entries newest-first, optionally filtered by
// coupon id.
func (s *AdminService) ClaimHistory(ctx context.Context, filter model.ClaimFilter) ([]model.ClaimRecord, error) {
	records, err := s.claims.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("claim history: %w", err)
	}
	return records, nil
}

// GetSettings returns the distribution settings, with defaults applied when
// the singleton has never been written.
func (s *AdminService) GetSettings(ctx context.Context) (*model.DistributionSettings, error) {
	return s.settings.Get(ctx)
}

// UpdateSettings merges the provided fields into the distribution settings.
func (s *AdminService) UpdateSettings(ctx context.Context, req *model.UpdateSettingsRequest) (*model.DistributionSettings, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	return s.settings.Update(ctx, req)
}

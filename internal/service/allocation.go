package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lumadrop/coupon-distributor/internal/metrics"
	"github.com/lumadrop/coupon-distributor/internal/model"
)

// maxAllocationAttempts bounds retries after losing the conditional update to
// a concurrent claimant. Each attempt re-reads the candidate set, so a retry
// never re-offers a coupon that was just consumed.
const maxAllocationAttempts = 3

// CouponAllocator is the coupon-pool view the allocation engine needs.
type CouponAllocator interface {
	ListEligible(ctx context.Context) ([]model.Coupon, error)
	MarkAssigned(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
}

// SettingsStore is the settings access the allocation engine needs.
type SettingsStore interface {
	Get(ctx context.Context) (*model.DistributionSettings, error)
	SetCursor(ctx context.Context, cursor int) error
}

// Allocator hands out the next coupon from the active, unassigned pool using
// a persisted round-robin cursor. The cursor indexes the live candidate list
// at call time, not a stable absolute offset; it drifts as the pool shrinks,
// which is a known fairness limitation of the rotation scheme.
type Allocator struct {
	coupons  CouponAllocator
	settings SettingsStore
}

// NewAllocator creates an Allocator over the given stores.
func NewAllocator(coupons CouponAllocator, settings SettingsStore) *Allocator {
	return &Allocator{coupons: coupons, settings: settings}
}

// Allocate selects and durably reserves one coupon.
// Returns ErrPoolExhausted when no coupon is eligible.
//
// The reservation itself is a conditional update (assign only if still
// unassigned), so two concurrent callers can never both receive the same
// coupon: the loser re-reads the candidate set and tries again.
func (a *Allocator) Allocate(ctx context.Context) (*model.Coupon, error) {
	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		candidates, err := a.coupons.ListEligible(ctx)
		if err != nil {
			return nil, fmt.Errorf("read candidates: %w", err)
		}
		if len(candidates) == 0 {
			return nil, ErrPoolExhausted
		}

		settings, err := a.settings.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("read rotation cursor: %w", err)
		}

		next := (settings.RotationCursor + 1) % len(candidates)
		if err := a.settings.SetCursor(ctx, next); err != nil {
			return nil, fmt.Errorf("advance rotation cursor: %w", err)
		}

		selected := candidates[next]
		coupon, err := a.coupons.MarkAssigned(ctx, selected.ID)
		if err != nil {
			return nil, fmt.Errorf("reserve coupon %s: %w", selected.ID, err)
		}
		if coupon != nil {
			return coupon, nil
		}

		// A concurrent claimant assigned this coupon between our read and
		// write. Re-read and try the next position.
		metrics.AllocationRetried()
		log.Debug().
			Str("coupon_id", selected.ID.String()).
			Int("attempt", attempt+1).
			Msg("lost allocation race, retrying")
	}

	return nil, fmt.Errorf("allocation contention: no reservation after %d attempts", maxAllocationAttempts)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lumadrop/coupon-distributor/internal/metrics"
	"github.com/lumadrop/coupon-distributor/internal/model"
)

// EligibilityCheckerInterface decides whether an identity may claim.
type EligibilityCheckerInterface interface {
	Check(ctx context.Context, identity model.Identity) (model.Eligibility, error)
}

// AllocatorInterface reserves the next coupon from the pool.
type AllocatorInterface interface {
	Allocate(ctx context.Context) (*model.Coupon, error)
}

// ClaimRecorder appends entries to the claim ledger.
type ClaimRecorder interface {
	Insert(ctx context.Context, rec *model.ClaimRecord) error
}

// ClaimMetadata carries optional request metadata stored with the ledger
// entry for audit purposes.
type ClaimMetadata struct {
	UserAgent string
}

// DistributionService orchestrates the claim flow: eligibility check,
// allocation, then the ledger append.
type DistributionService struct {
	eligibility EligibilityCheckerInterface
	allocator   AllocatorInterface
	ledger      ClaimRecorder
}

// NewDistributionService creates a DistributionService from its collaborators.
func NewDistributionService(eligibility EligibilityCheckerInterface, allocator AllocatorInterface, ledger ClaimRecorder) *DistributionService {
	return &DistributionService{eligibility: eligibility, allocator: allocator, ledger: ledger}
}

// Claim runs one claim request for the given identity.
//
// Ineligibility and pool exhaustion are normal outcomes carried in the result,
// not errors. A storage failure surfaces as an error; if the ledger append
// fails after the coupon was already reserved, the error is
// ErrInconsistentAllocation and the allocation is NOT retried (the coupon is
// consumed; retrying would hand out a second one for the same request).
func (s *DistributionService) Claim(ctx context.Context, identity model.Identity, meta ClaimMetadata) (*model.ClaimResult, error) {
	eligibility, err := s.eligibility.Check(ctx, identity)
	if err != nil {
		metrics.ClaimProcessed("error")
		return nil, fmt.Errorf("check eligibility: %w", err)
	}
	if !eligibility.Eligible {
		metrics.ClaimProcessed(string(model.ClaimIneligible))
		metrics.ClaimIneligible(string(eligibility.Reason))
		return &model.ClaimResult{
			Status:   model.ClaimIneligible,
			Reason:   eligibility.Reason,
			TimeLeft: eligibility.TimeLeft,
		}, nil
	}

	start := time.Now()
	coupon, err := s.allocator.Allocate(ctx)
	metrics.ObserveAllocation(time.Since(start))
	if err != nil {
		if errors.Is(err, ErrPoolExhausted) {
			metrics.ClaimProcessed(string(model.ClaimExhausted))
			return &model.ClaimResult{Status: model.ClaimExhausted}, nil
		}
		metrics.ClaimProcessed("error")
		return nil, fmt.Errorf("allocate coupon: %w", err)
	}

	rec := &model.ClaimRecord{
		ID:                uuid.New(),
		CouponID:          coupon.ID,
		CouponCode:        coupon.Code,
		Discount:          coupon.Discount,
		OriginAddress:     identity.OriginAddress,
		DeviceFingerprint: identity.DeviceFingerprint,
		UserAgent:         meta.UserAgent,
	}
	if err := s.ledger.Insert(ctx, rec); err != nil {
		metrics.ClaimProcessed("error")
		metrics.InconsistentAllocation()
		log.Error().
			Err(err).
			Str("coupon_id", coupon.ID.String()).
			Str("coupon_code", coupon.Code).
			Msg("coupon consumed without audit trail")
		return nil, fmt.Errorf("%w: coupon %s: %v", ErrInconsistentAllocation, coupon.ID, err)
	}

	metrics.ClaimProcessed(string(model.ClaimSuccess))
	return &model.ClaimResult{Status: model.ClaimSuccess, Coupon: coupon}, nil
}

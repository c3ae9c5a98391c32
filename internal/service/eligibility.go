package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lumadrop/coupon-distributor/internal/model"
)

// SettingsReader provides read access to the distribution settings singleton.
type SettingsReader interface {
	Get(ctx context.Context) (*model.DistributionSettings, error)
}

// ClaimLookup is the ledger view the eligibility check needs.
type ClaimLookup interface {
	LatestByOrigin(ctx context.Context, originAddress string, since time.Time) (*model.ClaimRecord, error)
	LatestByFingerprint(ctx context.Context, fingerprint string, since time.Time) (*model.ClaimRecord, error)
}

// EligibilityChecker decides whether an identity may claim, based purely on
// ledger state and the configured cooldown. It has no side effects.
type EligibilityChecker struct {
	settings SettingsReader
	claims   ClaimLookup
	now      func() time.Time
}

// NewEligibilityChecker creates an EligibilityChecker over the given stores.
func NewEligibilityChecker(settings SettingsReader, claims ClaimLookup) *EligibilityChecker {
	return &EligibilityChecker{settings: settings, claims: claims, now: time.Now}
}

// NewEligibilityCheckerWithClock creates an EligibilityChecker with a fixed
// clock. Primarily used for testing cooldown boundaries.
func NewEligibilityCheckerWithClock(settings SettingsReader, claims ClaimLookup, now func() time.Time) *EligibilityChecker {
	return &EligibilityChecker{settings: settings, claims: claims, now: now}
}

// Check tests the origin address and the device fingerprint independently
// against the cooldown window, so defeating one signal alone does not bypass
// the limit. The address check runs first, which fixes the reported reason
// when both signals would reject.
func (e *EligibilityChecker) Check(ctx context.Context, identity model.Identity) (model.Eligibility, error) {
	settings, err := e.settings.Get(ctx)
	if err != nil {
		return model.Eligibility{}, fmt.Errorf("load settings: %w", err)
	}

	cooldown := settings.Cooldown()
	now := e.now()
	earliest := now.Add(-cooldown)

	rec, err := e.claims.LatestByOrigin(ctx, identity.OriginAddress, earliest)
	if err != nil {
		return model.Eligibility{}, fmt.Errorf("lookup claims by origin: %w", err)
	}
	if rec != nil {
		return model.Eligibility{
			Eligible: false,
			Reason:   model.ReasonOriginAddress,
			TimeLeft: timeLeft(rec.ClaimedAt, cooldown, now),
		}, nil
	}

	rec, err = e.claims.LatestByFingerprint(ctx, identity.DeviceFingerprint, earliest)
	if err != nil {
		return model.Eligibility{}, fmt.Errorf("lookup claims by fingerprint: %w", err)
	}
	if rec != nil {
		return model.Eligibility{
			Eligible: false,
			Reason:   model.ReasonDeviceFingerprint,
			TimeLeft: timeLeft(rec.ClaimedAt, cooldown, now),
		}, nil
	}

	return model.Eligibility{Eligible: true}, nil
}

// timeLeft computes the remaining cooldown for presentation, clamped at zero.
func timeLeft(claimedAt time.Time, cooldown time.Duration, now time.Time) model.TimeLeft {
	remaining := claimedAt.Add(cooldown).Sub(now)
	if remaining <= 0 {
		return model.TimeLeft{}
	}
	return model.TimeLeft{
		Hours:   int(remaining.Hours()),
		Minutes: int(remaining.Minutes()) % 60,
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// ClaimRecord is an immutable audit entry written once per successful
// allocation. CouponCode and Discount are snapshots taken at claim time so the
// history survives later coupon edits or deletion.
type ClaimRecord struct {
	ID                uuid.UUID `json:"id"`
	CouponID          uuid.UUID `json:"coupon_id"`
	CouponCode        string    `json:"coupon_code"`
	Discount          string    `json:"discount"`
	OriginAddress     string    `json:"origin_address"`
	DeviceFingerprint string    `json:"device_fingerprint"`
	UserAgent         string    `json:"user_agent,omitempty"`
	ClaimedAt         time.Time `json:"claimed_at"`
}

// ClaimFilter narrows claim-history queries.
type ClaimFilter struct {
	CouponID *uuid.UUID
}

// RejectionReason identifies which identity signal blocked a claim.
type RejectionReason string

const (
	ReasonOriginAddress     RejectionReason = "origin_address"
	ReasonDeviceFingerprint RejectionReason = "device_fingerprint"
)

// TimeLeft is the remaining cooldown, for presentation only. Eligibility is
// always re-derived from the ledger query window, not from these values.
type TimeLeft struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// Eligibility is the outcome of a cooldown check.
type Eligibility struct {
	Eligible bool
	Reason   RejectionReason
	TimeLeft TimeLeft
}

// ClaimStatus classifies the outcome of a claim request.
type ClaimStatus string

const (
	ClaimSuccess    ClaimStatus = "success"
	ClaimIneligible ClaimStatus = "ineligible"
	ClaimExhausted  ClaimStatus = "exhausted"
)

// ClaimResult is returned by the distribution service for every completed
// claim request. Coupon is set only on success; Reason and TimeLeft only when
// ineligible.
type ClaimResult struct {
	Status   ClaimStatus
	Coupon   *Coupon
	Reason   RejectionReason
	TimeLeft TimeLeft
}

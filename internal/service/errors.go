package service

import "errors"

var (
	// ErrCouponExists is returned when a coupon code collides with an existing one
	ErrCouponExists = errors.New("coupon code already exists")

	// ErrCouponNotFound is returned when a coupon cannot be found
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrPoolExhausted is returned when no active, unassigned coupon exists.
	// This is an expected outcome, not a failure.
	ErrPoolExhausted = errors.New("no coupons available")

	// ErrInconsistentAllocation is returned when a coupon was marked assigned
	// but the ledger write failed: the coupon is consumed with no audit trail.
	// The condition is logged with the coupon id and never retried as a fresh
	// allocation, which would hand out a second coupon for one request.
	ErrInconsistentAllocation = errors.New("coupon assigned but claim record write failed")
)

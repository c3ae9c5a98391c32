package model

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
)

// Coupon represents one distributable code. A coupon is eligible for
// allocation while IsActive is true and IsAssigned is false; IsAssigned never
// reverts to false once set.
type Coupon struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Discount    string     `json:"discount"`
	Description string     `json:"description"`
	IsActive    bool       `json:"is_active"`
	IsAssigned  bool       `json:"is_assigned"`
	ClaimCount  int        `json:"claim_count"`
	CreatedAt   time.Time  `json:"created_at"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Eligible reports whether the coupon may still be handed out.
func (c *Coupon) Eligible() bool {
	return c.IsActive && !c.IsAssigned
}

// CreateCouponRequest is the DTO for creating a coupon. Code is optional; a
// blank code is replaced with a generated one.
type CreateCouponRequest struct {
	Code        string     `json:"code" validate:"omitempty,couponcode,max=255"`
	Discount    string     `json:"discount" validate:"max=255"`
	Description string     `json:"description" validate:"max=500"`
	ExpiresAt   *time.Time `json:"expires_at" validate:"omitempty,gt"`
}

// UpdateCouponRequest is the DTO for editing a coupon. Only non-nil fields are
// applied.
type UpdateCouponRequest struct {
	Code        *string    `json:"code" validate:"omitempty,couponcode,max=255"`
	Discount    *string    `json:"discount" validate:"omitempty,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=500"`
	IsActive    *bool      `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at" validate:"omitempty,gt"`
}

// codeCharset excludes characters that are easy to confuse (O, 0, 1, I).
// Exactly 32 characters, so indexing with a byte modulo introduces no bias.
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// DefaultCodeLength is the length of generated coupon codes.
const DefaultCodeLength = 8

// GenerateCode returns a random coupon code of the given length.
func GenerateCode(length int) string {
	if length <= 0 {
		length = DefaultCodeLength
	}
	buf := make([]byte, length)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(buf)
}

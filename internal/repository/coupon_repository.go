package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumadrop/coupon-distributor/internal/model"
	"github.com/lumadrop/coupon-distributor/internal/service"
	"github.com/lumadrop/coupon-distributor/pkg/database"
)

const couponColumns = `id, code, discount, description, is_active, is_assigned, claim_count, created_at, assigned_at, updated_at, expires_at`

// CouponRepository provides data access for the coupon pool using pgx.
type CouponRepository struct {
	pool database.Querier
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithQuerier creates a CouponRepository with a custom
// querier. This is primarily used for testing.
func NewCouponRepositoryWithQuerier(pool database.Querier) *CouponRepository {
	return &CouponRepository{pool: pool}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCoupon(row scanner, c *model.Coupon) error {
	return row.Scan(
		&c.ID,
		&c.Code,
		&c.Discount,
		&c.Description,
		&c.IsActive,
		&c.IsAssigned,
		&c.ClaimCount,
		&c.CreatedAt,
		&c.AssignedAt,
		&c.UpdatedAt,
		&c.ExpiresAt,
	)
}

// Insert inserts a new coupon. Timestamps are server-assigned and scanned
// back into the coupon.
// Returns service.ErrCouponExists if a coupon with the same code already exists.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	query := `INSERT INTO coupons (id, code, discount, description, is_active, is_assigned, claim_count, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, 0, now(), now(), $6)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		coupon.ID, coupon.Code, coupon.Discount, coupon.Description, coupon.IsActive, coupon.ExpiresAt,
	).Scan(&coupon.CreatedAt, &coupon.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByID retrieves a coupon by id.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	var coupon model.Coupon
	if err := scanCoupon(r.pool.QueryRow(ctx, query, id), &coupon); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon %s: %w", id, err)
	}
	return &coupon, nil
}

// List returns all coupons, newest first, for the admin view.
func (r *CouponRepository) List(ctx context.Context) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		var c model.Coupon
		if err := scanCoupon(rows, &c); err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}
	return coupons, nil
}

// ListEligible returns the allocation candidate set: active, unassigned
// coupons in creation order. The id tiebreak keeps the ordering deterministic
// for equal timestamps, which rotation depends on.
func (r *CouponRepository) ListEligible(ctx context.Context) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons
		WHERE is_active AND NOT is_assigned
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list eligible coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		var c model.Coupon
		if err := scanCoupon(rows, &c); err != nil {
			return nil, fmt.Errorf("scan eligible coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate eligible coupon rows: %w", err)
	}
	return coupons, nil
}

// MarkAssigned marks the coupon assigned only if it is currently unassigned.
// This conditional update is the primitive the allocation engine relies on:
// two concurrent callers can both read the coupon as eligible, but only one
// update matches the is_assigned guard.
// Returns nil, nil when the guard did not match (concurrent caller won).
func (r *CouponRepository) MarkAssigned(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	query := `UPDATE coupons
		SET is_assigned = TRUE, claim_count = claim_count + 1, assigned_at = now(), updated_at = now()
		WHERE id = $1 AND NOT is_assigned
		RETURNING ` + couponColumns

	var coupon model.Coupon
	if err := scanCoupon(r.pool.QueryRow(ctx, query, id), &coupon); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("mark coupon %s assigned: %w", id, err)
	}
	return &coupon, nil
}

// Update applies the non-nil fields of the request to the coupon.
// Returns service.ErrCouponNotFound if the coupon doesn't exist and
// service.ErrCouponExists if the new code collides with another coupon.
func (r *CouponRepository) Update(ctx context.Context, id uuid.UUID, req *model.UpdateCouponRequest) (*model.Coupon, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if req.Code != nil {
		appendSet("code", *req.Code)
	}
	if req.Discount != nil {
		appendSet("discount", *req.Discount)
	}
	if req.Description != nil {
		appendSet("description", *req.Description)
	}
	if req.IsActive != nil {
		appendSet("is_active", *req.IsActive)
	}
	if req.ExpiresAt != nil {
		appendSet("expires_at", *req.ExpiresAt)
	}

	query := `UPDATE coupons SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + couponColumns

	var coupon model.Coupon
	if err := scanCoupon(r.pool.QueryRow(ctx, query, args...), &coupon); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, service.ErrCouponExists
		}
		return nil, fmt.Errorf("update coupon %s: %w", id, err)
	}
	return &coupon, nil
}

// SetActive toggles distribution eligibility for the coupon.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE coupons SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set coupon %s active=%t: %w", id, active, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

// Delete physically removes a coupon. This is an administrative escape hatch;
// claim history keeps its own code snapshot, so the audit trail survives.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

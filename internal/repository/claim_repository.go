package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumadrop/coupon-distributor/internal/model"
	"github.com/lumadrop/coupon-distributor/pkg/database"
)

const claimColumns = `id, coupon_id, coupon_code, discount, origin_address, device_fingerprint, user_agent, claimed_at`

// ClaimRepository provides access to the append-only claim ledger. No method
// on this type mutates or deletes an existing row.
type ClaimRepository struct {
	pool database.Querier
}

// NewClaimRepository creates a new ClaimRepository with the given pool.
func NewClaimRepository(pool *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

// NewClaimRepositoryWithQuerier creates a ClaimRepository with a custom
// querier. This is primarily used for testing.
func NewClaimRepositoryWithQuerier(pool database.Querier) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

func scanClaim(row scanner, rec *model.ClaimRecord) error {
	return row.Scan(
		&rec.ID,
		&rec.CouponID,
		&rec.CouponCode,
		&rec.Discount,
		&rec.OriginAddress,
		&rec.DeviceFingerprint,
		&rec.UserAgent,
		&rec.ClaimedAt,
	)
}

// Insert appends one immutable ledger entry. The claim timestamp is
// server-assigned and scanned back into the record.
func (r *ClaimRepository) Insert(ctx context.Context, rec *model.ClaimRecord) error {
	query := `INSERT INTO claims (id, coupon_id, coupon_code, discount, origin_address, device_fingerprint, user_agent, claimed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING claimed_at`

	err := r.pool.QueryRow(ctx, query,
		rec.ID, rec.CouponID, rec.CouponCode, rec.Discount,
		rec.OriginAddress, rec.DeviceFingerprint, rec.UserAgent,
	).Scan(&rec.ClaimedAt)
	if err != nil {
		return fmt.Errorf("insert claim for coupon %s: %w", rec.CouponID, err)
	}
	return nil
}

// LatestByOrigin returns the most recent claim from the given origin address
// at or after the since bound. Returns nil, nil when no such claim exists.
func (r *ClaimRepository) LatestByOrigin(ctx context.Context, originAddress string, since time.Time) (*model.ClaimRecord, error) {
	query := `SELECT ` + claimColumns + ` FROM claims
		WHERE origin_address = $1 AND claimed_at >= $2
		ORDER BY claimed_at DESC LIMIT 1`

	var rec model.ClaimRecord
	if err := scanClaim(r.pool.QueryRow(ctx, query, originAddress, since), &rec); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest claim by origin: %w", err)
	}
	return &rec, nil
}

// LatestByFingerprint returns the most recent claim with the given device
// fingerprint at or after the since bound. Returns nil, nil when none exists.
func (r *ClaimRepository) LatestByFingerprint(ctx context.Context, fingerprint string, since time.Time) (*model.ClaimRecord, error) {
	query := `SELECT ` + claimColumns + ` FROM claims
		WHERE device_fingerprint = $1 AND claimed_at >= $2
		ORDER BY claimed_at DESC LIMIT 1`

	var rec model.ClaimRecord
	if err := scanClaim(r.pool.QueryRow(ctx, query, fingerprint, since), &rec); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest claim by fingerprint: %w", err)
	}
	return &rec, nil
}

// List returns claim records newest-first, optionally filtered by coupon id.
func (r *ClaimRepository) List(ctx context.Context, filter model.ClaimFilter) ([]model.ClaimRecord, error) {
	query := `SELECT ` + claimColumns + ` FROM claims`
	args := []any{}
	if filter.CouponID != nil {
		query += ` WHERE coupon_id = $1`
		args = append(args, *filter.CouponID)
	}
	query += ` ORDER BY claimed_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	records := []model.ClaimRecord{}
	for rows.Next() {
		var rec model.ClaimRecord
		if err := scanClaim(rows, &rec); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claim rows: %w", err)
	}
	return records, nil
}

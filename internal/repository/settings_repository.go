package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumadrop/coupon-distributor/internal/model"
	"github.com/lumadrop/coupon-distributor/pkg/database"
)

const settingsColumns = `cooldown_hours, rotation_cursor, updated_at`

// SettingsRepository is a thin atomic accessor for the distribution settings
// singleton row. The row is created lazily with defaults on first access.
type SettingsRepository struct {
	pool database.Querier
}

// NewSettingsRepository creates a new SettingsRepository with the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// NewSettingsRepositoryWithQuerier creates a SettingsRepository with a custom
// querier. This is primarily used for testing.
func NewSettingsRepositoryWithQuerier(pool database.Querier) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

func (r *SettingsRepository) scanRow(ctx context.Context) (*model.DistributionSettings, error) {
	var s model.DistributionSettings
	err := r.pool.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM distribution_settings WHERE id = 1`,
	).Scan(&s.CooldownHours, &s.RotationCursor, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) ensureRow(ctx context.Context) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO distribution_settings (id, cooldown_hours, rotation_cursor)
		 VALUES (1, $1, $2) ON CONFLICT (id) DO NOTHING`,
		model.DefaultCooldownHours, model.DefaultRotationCursor)
	if err != nil {
		return fmt.Errorf("insert default settings: %w", err)
	}
	return nil
}

// Get returns the settings singleton, creating it with defaults if missing.
func (r *SettingsRepository) Get(ctx context.Context) (*model.DistributionSettings, error) {
	s, err := r.scanRow(ctx)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	if err := r.ensureRow(ctx); err != nil {
		return nil, err
	}
	s, err = r.scanRow(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings after init: %w", err)
	}
	return s, nil
}

// Update merges the non-nil fields of the request into the singleton and
// stamps the update time. The row is created first when missing.
func (r *SettingsRepository) Update(ctx context.Context, req *model.UpdateSettingsRequest) (*model.DistributionSettings, error) {
	sets := []string{"updated_at = now()"}
	args := []any{}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if req.CooldownHours != nil {
		appendSet("cooldown_hours", *req.CooldownHours)
	}
	if req.RotationCursor != nil {
		appendSet("rotation_cursor", *req.RotationCursor)
	}

	query := `UPDATE distribution_settings SET ` + strings.Join(sets, ", ") +
		` WHERE id = 1 RETURNING ` + settingsColumns

	run := func() (*model.DistributionSettings, error) {
		var s model.DistributionSettings
		err := r.pool.QueryRow(ctx, query, args...).
			Scan(&s.CooldownHours, &s.RotationCursor, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		return &s, nil
	}

	s, err := run()
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update settings: %w", err)
	}

	if err := r.ensureRow(ctx); err != nil {
		return nil, err
	}
	s, err = run()
	if err != nil {
		return nil, fmt.Errorf("update settings after init: %w", err)
	}
	return s, nil
}

// SetCursor atomically persists the rotation cursor. It deliberately does not
// touch any other field; cursor drift across a crash is tolerated, a torn
// settings row is not.
func (r *SettingsRepository) SetCursor(ctx context.Context, cursor int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE distribution_settings SET rotation_cursor = $1, updated_at = now() WHERE id = 1`,
		cursor)
	if err != nil {
		return fmt.Errorf("set rotation cursor: %w", err)
	}
	return nil
}

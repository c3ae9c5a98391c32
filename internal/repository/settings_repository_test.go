package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumadrop/coupon-distributor/internal/model"
)

func TestSettingsRepository_Get_ExistingRow(t *testing.T) {
	mock := &mockQuerier{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				*(dest[0].(*int)) = 12
				*(dest[1].(*int)) = 3
				*(dest[2].(*time.Time)) = time.Now()
				return nil
			}}
		},
	}

	repo := NewSettingsRepositoryWithQuerier(mock)
	settings, err := repo.Get(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 12, settings.CooldownHours)
	assert.Equal(t, 3, settings.RotationCursor)
	assert.Equal(t, 12*time.Hour, settings.Cooldown())
}

func TestSettingsRepository_Get_LazyInit(t *testing.T) {
	// First read misses, the defaults row is inserted, second read succeeds.
	selects := 0
	var insertSQL string
	var insertArgs []any

	mock := &mockQuerier{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			selects++
			if selects == 1 {
				return &mockRow{scanFn: func(dest ...any) error { return pgx.ErrNoRows }}
			}
			return &mockRow{scanFn: func(dest ...any) error {
				*(dest[0].(*int)) = model.DefaultCooldownHours
				*(dest[1].(*int)) = model.DefaultRotationCursor
				*(dest[2].(*time.Time)) = time.Now()
				return nil
			}}
		},
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			insertSQL = sql
			insertArgs = arguments
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}

	repo := NewSettingsRepositoryWithQuerier(mock)
	settings, err := repo.Get(context.Background())

	require.NoError(t, err)
	assert.Equal(t, model.DefaultCooldownHours, settings.CooldownHours)
	assert.Equal(t, model.DefaultRotationCursor, settings.RotationCursor)
	assert.Contains(t, insertSQL, "ON CONFLICT (id) DO NOTHING", "concurrent lazy init must not fail")
	assert.Equal(t, model.DefaultCooldownHours, insertArgs[0])
	assert.Equal(t, 2, selects)
}

func TestSettingsRepository_Update_MergesFields(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any

	mock := &mockQuerier{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			capturedSQL = sql
			capturedArgs = args
			return &mockRow{scanFn: func(dest ...any) error {
				*(dest[0].(*int)) = 48
				*(dest[1].(*int)) = 0
				*(dest[2].(*time.Time)) = time.Now()
				return nil
			}}
		},
	}

	repo := NewSettingsRepositoryWithQuerier(mock)
	hours := 48
	settings, err := repo.Update(context.Background(), &model.UpdateSettingsRequest{CooldownHours: &hours})

	require.NoError(t, err)
	assert.Equal(t, 48, settings.CooldownHours)
	assert.Contains(t, capturedSQL, "cooldown_hours = $1")
	assert.Contains(t, capturedSQL, "updated_at = now()")
	assert.NotContains(t, capturedSQL, "rotation_cursor =", "unset fields must not be touched")
	require.Len(t, capturedArgs, 1)
	assert.Equal(t, 48, capturedArgs[0])
}

func TestSettingsRepository_SetCursor(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any

	mock := &mockQuerier{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedSQL = sql
			capturedArgs = arguments
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}

	repo := NewSettingsRepositoryWithQuerier(mock)
	err := repo.SetCursor(context.Background(), 7)

	require.NoError(t, err)
	assert.Contains(t, capturedSQL, "SET rotation_cursor = $1")
	assert.Equal(t, 7, capturedArgs[0])
}

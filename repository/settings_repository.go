package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"economy/database"
	"economy/models"

	"github.com/jackc/pgx/v5"
)

// SettingsRepository stores the single economy settings row in postgres
type SettingsRepository struct {
	q queryable
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{q: db.Pool}
}

// Get returns the saved settings, or nil if they were never saved
func (r *SettingsRepository) Get(ctx context.Context) (*models.EconomySettings, error) {
	query := `
		SELECT interest_rate, interest_period_ms, updated_by, updated_at
		FROM economy_settings
		WHERE id = 1
	`

	var settings models.EconomySettings
	var periodMs int64
	err := r.q.QueryRow(ctx, query).Scan(
		&settings.InterestRate,
		&periodMs,
		&settings.UpdatedBy,
		&settings.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get economy settings: %w", err)
	}

	settings.InterestPeriod = time.Duration(periodMs) * time.Millisecond
	return &settings, nil
}

// Save replaces the stored settings
func (r *SettingsRepository) Save(ctx context.Context, settings *models.EconomySettings) error {
	query := `
		INSERT INTO economy_settings (id, interest_rate, interest_period_ms, updated_by, updated_at)
		VALUES (1, $1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE
		SET interest_rate = EXCLUDED.interest_rate,
		    interest_period_ms = EXCLUDED.interest_period_ms,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = NOW()
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		settings.InterestRate,
		settings.InterestPeriodMillis(),
		settings.UpdatedBy,
	).Scan(&settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save economy settings: %w", err)
	}
	return nil
}

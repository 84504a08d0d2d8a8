package service

import (
	"context"

	"economy/models"
)

// AccountRepository defines the interface for account persistence.
// The ledger is the only writer: it loads everything once and then hands over the
// accounts touched by each update.
type AccountRepository interface {
	// LoadAll returns every persisted account
	LoadAll(ctx context.Context) ([]*models.Account, error)

	// Upsert persists the given accounts, creating the ones that do not exist yet
	Upsert(ctx context.Context, accounts []*models.Account) error
}

// SettingsRepository defines the interface for economy settings persistence
type SettingsRepository interface {
	// Get returns the saved settings, or nil if none were ever saved
	Get(ctx context.Context) (*models.EconomySettings, error)

	// Save replaces the saved settings
	Save(ctx context.Context, settings *models.EconomySettings) error
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns the most recent balance history for a user
	GetByUser(ctx context.Context, userID string, limit int) ([]*models.BalanceHistory, error)
}

// InterestRunRepository defines the interface for interest run bookkeeping
type InterestRunRepository interface {
	// Create records a completed interest run
	Create(ctx context.Context, run *models.InterestRun) error

	// GetLatest returns the most recent run, or nil if there is none
	GetLatest(ctx context.Context) (*models.InterestRun, error)
}

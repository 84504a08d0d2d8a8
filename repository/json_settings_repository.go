package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"economy/models"
)

// settingsDocument is the on-disk settings layout; the period is in milliseconds
type settingsDocument struct {
	InterestRate   float64 `json:"interestRate"`
	InterestPeriod int64   `json:"interestPeriod"`
}

// JSONSettingsRepository stores economy settings in a small JSON file
type JSONSettingsRepository struct {
	mu   sync.Mutex
	path string
}

// NewJSONSettingsRepository creates a repository backed by the file at path
func NewJSONSettingsRepository(path string) *JSONSettingsRepository {
	return &JSONSettingsRepository{path: path}
}

// Get returns the saved settings, or nil when the file is missing or unreadable
func (r *JSONSettingsRepository) Get(ctx context.Context) (*models.EconomySettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var doc settingsDocument
	found, err := readJSONFile(r.path, &doc)
	if err != nil || !found {
		return nil, err
	}

	return &models.EconomySettings{
		InterestRate:   doc.InterestRate,
		InterestPeriod: time.Duration(doc.InterestPeriod) * time.Millisecond,
	}, nil
}

// Save replaces the settings file
func (r *JSONSettingsRepository) Save(ctx context.Context, settings *models.EconomySettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := settingsDocument{
		InterestRate:   settings.InterestRate,
		InterestPeriod: settings.InterestPeriodMillis(),
	}
	if err := writeJSONFile(r.path, doc); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"economy/events"
	"economy/models"

	log "github.com/sirupsen/logrus"
)

// MinInterestPeriod is the shortest accepted interest period
const MinInterestPeriod = time.Second

// SettingsService owns the process-wide economy settings
type SettingsService struct {
	mu          sync.RWMutex
	repo        SettingsRepository
	publisher   events.Publisher
	current     models.EconomySettings
	subscribers []chan models.EconomySettings
	now         func() time.Time
}

// NewSettingsService loads saved settings, falling back to defaults when nothing was saved yet
func NewSettingsService(ctx context.Context, repo SettingsRepository, defaults models.EconomySettings, publisher events.Publisher) (*SettingsService, error) {
	if err := validateInterest(defaults.InterestRate, defaults.InterestPeriod); err != nil {
		return nil, fmt.Errorf("invalid default settings: %w", err)
	}

	saved, err := repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load economy settings: %w", err)
	}

	current := defaults
	if saved != nil {
		if err := validateInterest(saved.InterestRate, saved.InterestPeriod); err != nil {
			log.WithError(err).Warn("Saved economy settings are invalid, using defaults")
		} else {
			current = *saved
		}
	}

	return &SettingsService{
		repo:      repo,
		publisher: publisher,
		current:   current,
		now:       time.Now,
	}, nil
}

func validateInterest(rate float64, period time.Duration) error {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return ErrInvalidRate
	}
	if period < MinInterestPeriod {
		return ErrInvalidPeriod
	}
	return nil
}

// Get returns the current settings
func (s *SettingsService) Get() models.EconomySettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetInterest validates, persists and announces a new interest configuration
func (s *SettingsService) SetInterest(ctx context.Context, rate float64, period time.Duration, by string) (models.EconomySettings, error) {
	if err := validateInterest(rate, period); err != nil {
		return models.EconomySettings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := models.EconomySettings{
		InterestRate:   rate,
		InterestPeriod: period,
		UpdatedBy:      by,
		UpdatedAt:      s.now().UTC(),
	}
	if err := s.repo.Save(ctx, &updated); err != nil {
		return models.EconomySettings{}, fmt.Errorf("failed to save economy settings: %w", err)
	}
	s.current = updated

	for _, ch := range s.subscribers {
		// Keep only the latest value for slow subscribers
		select {
		case <-ch:
		default:
		}
		ch <- updated
	}
	if s.publisher != nil {
		s.publisher.Publish(events.SettingsChangedEvent{Settings: updated})
	}

	log.WithFields(log.Fields{
		"rate":       rate,
		"period":     period,
		"updated_by": by,
	}).Info("Economy settings updated")
	return updated, nil
}

// Changes returns a channel that receives every settings update
func (s *SettingsService) Changes() <-chan models.EconomySettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan models.EconomySettings, 1)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

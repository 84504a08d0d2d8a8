package service

import (
	"context"
	"time"

	"economy/models"

	log "github.com/sirupsen/logrus"
)

// InterestApplier applies one round of bank interest
type InterestApplier interface {
	ApplyInterest(ctx context.Context, rate float64) (*models.InterestRun, error)
}

// InterestSettings provides the current interest configuration and its updates
type InterestSettings interface {
	Get() models.EconomySettings
	Changes() <-chan models.EconomySettings
}

// InterestWorker periodically applies bank interest using the current settings
type InterestWorker struct {
	ledger   InterestApplier
	settings InterestSettings
}

// NewInterestWorker creates a new interest worker
func NewInterestWorker(ledger InterestApplier, settings InterestSettings) *InterestWorker {
	return &InterestWorker{
		ledger:   ledger,
		settings: settings,
	}
}

// Start runs the worker until ctx is cancelled or the returned cleanup function is called
func (w *InterestWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})
	done := make(chan struct{})
	changes := w.settings.Changes()

	current := w.settings.Get()
	ticker := time.NewTicker(current.InterestPeriod)

	go func() {
		defer close(done)
		defer ticker.Stop()

		log.WithFields(log.Fields{
			"rate":   current.InterestRate,
			"period": current.InterestPeriod,
		}).Info("Interest worker started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Interest worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Interest worker shutting down (stop requested)...")
				return
			case updated := <-changes:
				if updated.InterestPeriod != current.InterestPeriod {
					ticker.Reset(updated.InterestPeriod)
					log.WithField("period", updated.InterestPeriod).Info("Interest worker rescheduled")
				}
				current = updated
			case <-ticker.C:
				w.runOnce(ctx, current.InterestRate)
			}
		}
	}()

	return func() {
		close(stopChan)
		<-done
	}
}

func (w *InterestWorker) runOnce(ctx context.Context, rate float64) {
	run, err := w.ledger.ApplyInterest(ctx, rate)
	if err != nil {
		log.WithError(err).WithField("rate", rate).Error("Failed to apply interest")
		return
	}
	log.WithFields(log.Fields{
		"run_at":         run.RunAt,
		"users_affected": run.UsersAffected,
		"total_interest": run.TotalInterestDistributed,
	}).Debug("Interest run completed")
}

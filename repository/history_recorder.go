package repository

import (
	"context"

	"economy/events"
	"economy/models"
	"economy/service"

	log "github.com/sirupsen/logrus"
)

// HistoryRecorder writes committed ledger events to the audit tables
type HistoryRecorder struct {
	history service.BalanceHistoryRepository
	runs    service.InterestRunRepository
}

// NewHistoryRecorder creates a recorder writing to the given repositories
func NewHistoryRecorder(history service.BalanceHistoryRepository, runs service.InterestRunRepository) *HistoryRecorder {
	return &HistoryRecorder{history: history, runs: runs}
}

// Attach subscribes the recorder to balance changes and interest runs
func (r *HistoryRecorder) Attach(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBalanceChange, r.handleBalanceChange)
	bus.Subscribe(events.EventTypeInterestApplied, r.handleInterestApplied)
}

func (r *HistoryRecorder) handleBalanceChange(ctx context.Context, event events.Event) {
	e, ok := event.(events.BalanceChangeEvent)
	if !ok {
		return
	}

	if err := r.history.Record(ctx, historyFromEvent(e)); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id":          e.UserID,
			"transaction_type": e.TransactionType,
		}).Error("Failed to record balance history")
	}
}

func (r *HistoryRecorder) handleInterestApplied(ctx context.Context, event events.Event) {
	e, ok := event.(events.InterestAppliedEvent)
	if !ok || e.Run == nil {
		return
	}

	run := *e.Run
	if err := r.runs.Create(ctx, &run); err != nil {
		log.WithError(err).WithField("run_at", run.RunAt).Error("Failed to record interest run")
		return
	}
	log.WithField("run_id", run.ID).Debug("Recorded interest run")
}

func historyFromEvent(e events.BalanceChangeEvent) *models.BalanceHistory {
	history := &models.BalanceHistory{
		UserID:              e.UserID,
		BalanceBefore:       e.OldBalance,
		BalanceAfter:        e.NewBalance,
		BankBefore:          e.OldBank,
		BankAfter:           e.NewBank,
		ChangeAmount:        e.ChangeAmount,
		TransactionType:     e.TransactionType,
		TransactionMetadata: e.Metadata,
	}
	if e.RelatedID != "" {
		relatedID := e.RelatedID
		relatedType := e.RelatedType
		history.RelatedID = &relatedID
		history.RelatedType = &relatedType
	}
	return history
}


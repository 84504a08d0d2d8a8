package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"economy/events"
	"economy/models"

	log "github.com/sirupsen/logrus"
)

const (
	// WithdrawFeePercent is charged on every bank withdrawal, rounded up
	WithdrawFeePercent = 2

	// MaxRankingRange caps how many leaderboard entries a single request may ask for
	MaxRankingRange = 100
)

// Ledger owns every account balance. All reads and writes go through a single lock so
// load-mutate-persist cycles never interleave.
type Ledger struct {
	mu        sync.Mutex
	repo      AccountRepository
	publisher events.Publisher
	accounts  map[string]*models.Account
	now       func() time.Time
}

// NewLedger loads all accounts from repo and returns a ready ledger
func NewLedger(ctx context.Context, repo AccountRepository, publisher events.Publisher) (*Ledger, error) {
	accounts, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	l := &Ledger{
		repo:      repo,
		publisher: publisher,
		accounts:  make(map[string]*models.Account, len(accounts)),
		now:       time.Now,
	}
	for _, acc := range accounts {
		userID := NormalizeUserID(acc.UserID)
		if userID == "" {
			log.WithField("user_id", acc.UserID).Warn("Skipping account with empty identifier")
			continue
		}
		if existing, ok := l.accounts[userID]; ok {
			// Two spellings of the same user in a legacy file: merge them
			existing.Balance = addCapped(existing.Balance, acc.Balance)
			existing.Bank = addCapped(existing.Bank, acc.Bank)
			continue
		}
		acc.UserID = userID
		l.accounts[userID] = acc
	}

	log.WithField("accounts", len(l.accounts)).Info("Ledger loaded")
	return l, nil
}

// Update runs fn against a staged view of the ledger and persists the accounts it touched.
// If fn or persistence fails nothing changes and no events are emitted.
func (l *Ledger) Update(ctx context.Context, fn func(tx *LedgerTx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := newLedgerTx(l, false)
	if err := fn(tx); err != nil {
		tx.bus.Discard()
		return err
	}

	dirty := tx.dirtyAccounts()
	if len(dirty) == 0 {
		tx.bus.Flush()
		return nil
	}
	sort.Slice(dirty, func(i, j int) bool { return dirty[i].UserID < dirty[j].UserID })

	if err := l.repo.Upsert(ctx, dirty); err != nil {
		tx.bus.Discard()
		return fmt.Errorf("failed to persist accounts: %w", err)
	}

	for _, acc := range dirty {
		l.accounts[acc.UserID] = acc
	}
	tx.bus.Flush()
	return nil
}

// View runs fn against a read-only view of the ledger
func (l *Ledger) View(fn func(tx *LedgerTx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return fn(newLedgerTx(l, true))
}

// GetAccount returns a copy of the user's account; unknown users get a zero account
func (l *Ledger) GetAccount(ctx context.Context, user string) (models.Account, error) {
	var acc models.Account
	err := l.View(func(tx *LedgerTx) error {
		var err error
		acc, err = tx.Account(user)
		return err
	})
	return acc, err
}

// GetBalance returns the user's spendable balance, zero if unknown
func (l *Ledger) GetBalance(ctx context.Context, user string) (int64, error) {
	acc, err := l.GetAccount(ctx, user)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// GiveMoney credits amount to the user and returns the new balance
func (l *Ledger) GiveMoney(ctx context.Context, user string, amount int64, by string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var balance int64
	err := l.Update(ctx, func(tx *LedgerTx) error {
		var err error
		balance, err = tx.Credit(user, amount, Posting{
			Type:     models.TransactionTypeGive,
			Metadata: map[string]any{"given_by": by},
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// TakeMoney debits amount from the user and returns the new balance.
// An unknown user or a balance below amount leaves the ledger untouched.
func (l *Ledger) TakeMoney(ctx context.Context, user string, amount int64, by string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var balance int64
	err := l.Update(ctx, func(tx *LedgerTx) error {
		var err error
		balance, err = tx.Debit(user, amount, Posting{
			Type:     models.TransactionTypeTake,
			Metadata: map[string]any{"taken_by": by},
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// TransferMoney moves amount from one user to another in a single update
func (l *Ledger) TransferMoney(ctx context.Context, from, to string, amount int64) (*models.TransferResult, error) {
	fromID, toID := NormalizeUserID(from), NormalizeUserID(to)
	if fromID == "" || toID == "" {
		return nil, ErrInvalidUser
	}
	if fromID == toID {
		return nil, ErrSelfTransfer
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	result := &models.TransferResult{Amount: amount, From: fromID, To: toID}
	err := l.Update(ctx, func(tx *LedgerTx) error {
		var err error
		result.FromBalance, err = tx.Debit(fromID, amount, Posting{
			Type:     models.TransactionTypeTransferOut,
			Metadata: map[string]any{"recipient": toID, "transfer_amount": amount},
		})
		if err != nil {
			return err
		}
		result.ToBalance, err = tx.Credit(toID, amount, Posting{
			Type:     models.TransactionTypeTransferIn,
			Metadata: map[string]any{"sender": fromID, "transfer_amount": amount},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DepositBank moves amount from the user's balance into their bank
func (l *Ledger) DepositBank(ctx context.Context, user string, amount int64) (*models.DepositResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var acc *models.Account
	err := l.Update(ctx, func(tx *LedgerTx) error {
		var err error
		acc, err = tx.MoveToBank(user, amount, Posting{Type: models.TransactionTypeBankDeposit})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &models.DepositResult{Amount: amount, Balance: acc.Balance, Bank: acc.Bank}, nil
}

// WithdrawalFee returns the fee charged for withdrawing amount from the bank
func WithdrawalFee(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	// Split on 100 so large amounts never overflow: ceil(amount*p/100) = amount/100*p + ceil(amount%100*p/100)
	return amount/100*WithdrawFeePercent + (amount%100*WithdrawFeePercent+99)/100
}

// WithdrawBank takes amount out of the user's bank; the fee is kept and the rest is credited to the balance
func (l *Ledger) WithdrawBank(ctx context.Context, user string, amount int64) (*models.WithdrawResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	fee := WithdrawalFee(amount)
	var acc *models.Account
	err := l.Update(ctx, func(tx *LedgerTx) error {
		var err error
		acc, err = tx.MoveFromBank(user, amount, fee, Posting{
			Type:     models.TransactionTypeBankWithdraw,
			Metadata: map[string]any{"fee": fee, "received": amount - fee},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &models.WithdrawResult{
		Amount:   amount,
		Fee:      fee,
		Received: amount - fee,
		Balance:  acc.Balance,
		Bank:     acc.Bank,
	}, nil
}

// GetRichestUsers ranks accounts by balance+bank descending and returns ranks start..end (1-indexed, inclusive).
// Equal totals are ordered by user id.
func (l *Ledger) GetRichestUsers(ctx context.Context, start, end int) ([]*models.LeaderboardEntry, error) {
	if start < 1 || end < start || end-start+1 > MaxRankingRange {
		return nil, fmt.Errorf("%w: %d-%d", ErrInvalidRange, start, end)
	}

	var ranked []*models.Account
	l.View(func(tx *LedgerTx) error {
		ranked = make([]*models.Account, 0, len(l.accounts))
		for _, acc := range l.accounts {
			ranked = append(ranked, acc.Clone())
		}
		return nil
	})

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Total() != ranked[j].Total() {
			return ranked[i].Total() > ranked[j].Total()
		}
		return ranked[i].UserID < ranked[j].UserID
	})

	if start > len(ranked) {
		return []*models.LeaderboardEntry{}, nil
	}
	if end > len(ranked) {
		end = len(ranked)
	}

	entries := make([]*models.LeaderboardEntry, 0, end-start+1)
	for i := start - 1; i < end; i++ {
		acc := ranked[i]
		entries = append(entries, &models.LeaderboardEntry{
			Rank:    i + 1,
			UserID:  acc.UserID,
			Balance: acc.Balance,
			Bank:    acc.Bank,
			Total:   acc.Total(),
		})
	}
	return entries, nil
}

// InterestFor returns floor(bank * rate), capped at math.MaxInt64
func InterestFor(bank int64, rate float64) int64 {
	if bank <= 0 || rate <= 0 {
		return 0
	}
	// The epsilon absorbs float error such as 0.29*100 = 28.999999999999996
	interest := math.Floor(float64(bank)*rate + 1e-9)
	if interest >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(interest)
}

// ApplyInterest grows every positive bank by floor(bank * rate) in a single update
func (l *Ledger) ApplyInterest(ctx context.Context, rate float64) (*models.InterestRun, error) {
	if rate < 0 || rate > 1 || math.IsNaN(rate) {
		return nil, ErrInvalidRate
	}

	started := l.now()
	run := &models.InterestRun{InterestRate: rate}
	err := l.Update(ctx, func(tx *LedgerTx) error {
		run.RunAt = tx.now
		run.TotalInterestDistributed = 0
		run.UsersAffected = 0

		userIDs := make([]string, 0, len(l.accounts))
		for userID, acc := range l.accounts {
			if acc.Bank > 0 {
				userIDs = append(userIDs, userID)
			}
		}
		sort.Strings(userIDs)

		var maxInterest int64
		var capped []string
		for _, userID := range userIDs {
			bank := l.accounts[userID].Bank
			interest := InterestFor(bank, rate)
			if headroom := math.MaxInt64 - bank; interest > headroom {
				capped = append(capped, userID)
				interest = headroom
			}
			if interest == 0 {
				continue
			}
			if _, err := tx.creditBank(userID, interest, Posting{
				Type:     models.TransactionTypeInterest,
				Metadata: map[string]any{"interest_rate": rate},
			}); err != nil {
				return fmt.Errorf("failed to credit interest to %s: %w", userID, err)
			}
			run.TotalInterestDistributed = addCapped(run.TotalInterestDistributed, interest)
			run.UsersAffected++
			if interest > maxInterest {
				maxInterest = interest
			}
		}

		if len(capped) > 0 {
			log.WithField("users", capped).Warn("Interest capped at the largest supported bank value")
		}

		run.ExecutionSummary = map[string]any{
			"accounts_with_bank": len(userIDs),
			"capped_accounts":    len(capped),
			"max_interest":       maxInterest,
			"execution_time_ms":  l.now().Sub(started).Milliseconds(),
		}
		tx.Publish(events.InterestAppliedEvent{Run: run})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"rate":           rate,
		"users_affected": run.UsersAffected,
		"total_interest": run.TotalInterestDistributed,
	}).Info("Applied bank interest")
	return run, nil
}

// Count returns the number of known accounts
func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.accounts)
}

// Snapshot returns copies of every account ordered by user id
func (l *Ledger) Snapshot() []models.Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts := make([]models.Account, 0, len(l.accounts))
	for _, acc := range l.accounts {
		accounts = append(accounts, *acc)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].UserID < accounts[j].UserID })
	return accounts
}

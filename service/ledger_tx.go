package service

import (
	"fmt"
	"math"
	"time"

	"economy/events"
	"economy/models"
)

// Posting describes why a balance moved; it ends up in the balance history
type Posting struct {
	Type        models.TransactionType
	Metadata    map[string]any
	RelatedID   string
	RelatedType models.RelatedType
}

// LedgerTx stages account changes for a single ledger update.
// Nothing it does is visible to other callers until the update is persisted.
type LedgerTx struct {
	ledger   *Ledger
	staged   map[string]*models.Account
	dirty    map[string]bool
	bus      *events.TransactionalBus
	now      time.Time
	readOnly bool
}

func newLedgerTx(l *Ledger, readOnly bool) *LedgerTx {
	return &LedgerTx{
		ledger:   l,
		staged:   make(map[string]*models.Account),
		dirty:    make(map[string]bool),
		bus:      events.NewTransactionalBus(l.publisher),
		now:      l.now().UTC(),
		readOnly: readOnly,
	}
}

// account returns the staged copy of a user's account, or a zero account that is not yet persisted
func (tx *LedgerTx) account(userID string) *models.Account {
	if acc, ok := tx.staged[userID]; ok {
		return acc
	}
	var acc *models.Account
	if existing, ok := tx.ledger.accounts[userID]; ok {
		acc = existing.Clone()
	} else {
		acc = &models.Account{UserID: userID}
	}
	tx.staged[userID] = acc
	return acc
}

func (tx *LedgerTx) exists(userID string) bool {
	_, ok := tx.ledger.accounts[userID]
	return ok || tx.dirty[userID]
}

// Account returns a copy of the user's account as seen inside this update
func (tx *LedgerTx) Account(user string) (models.Account, error) {
	userID := NormalizeUserID(user)
	if userID == "" {
		return models.Account{}, ErrInvalidUser
	}
	return *tx.account(userID), nil
}

// Balance returns the user's spendable balance as seen inside this update
func (tx *LedgerTx) Balance(user string) int64 {
	acc, err := tx.Account(user)
	if err != nil {
		return 0
	}
	return acc.Balance
}

// Publish queues an event that is only emitted if the update is persisted
func (tx *LedgerTx) Publish(event events.Event) {
	tx.bus.Publish(event)
}

// Credit adds amount to the user's balance, creating the account if needed
func (tx *LedgerTx) Credit(user string, amount int64, p Posting) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return tx.change(user, amount, 0, amount, p)
}

// Debit removes amount from the user's balance, failing if the balance is too low
func (tx *LedgerTx) Debit(user string, amount int64, p Posting) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return tx.change(user, -amount, 0, -amount, p)
}

// MoveToBank moves amount from balance into bank
func (tx *LedgerTx) MoveToBank(user string, amount int64, p Posting) (*models.Account, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := tx.change(user, -amount, amount, amount, p); err != nil {
		return nil, err
	}
	return tx.account(NormalizeUserID(user)).Clone(), nil
}

// MoveFromBank takes amount out of the bank and credits amount-fee to the balance
func (tx *LedgerTx) MoveFromBank(user string, amount, fee int64, p Posting) (*models.Account, error) {
	if amount <= 0 || fee < 0 || fee > amount {
		return nil, ErrInvalidAmount
	}
	if _, err := tx.change(user, amount-fee, -amount, amount, p); err != nil {
		return nil, err
	}
	return tx.account(NormalizeUserID(user)).Clone(), nil
}

// change applies balance and bank deltas atomically for one account and records the posting
func (tx *LedgerTx) change(user string, balanceDelta, bankDelta, reported int64, p Posting) (int64, error) {
	if tx.readOnly {
		return 0, ErrReadOnly
	}
	userID := NormalizeUserID(user)
	if userID == "" {
		return 0, ErrInvalidUser
	}

	acc := tx.account(userID)
	if balanceDelta > math.MaxInt64-acc.Balance || bankDelta > math.MaxInt64-acc.Bank {
		return acc.Balance, fmt.Errorf("%w: %s holds %d in balance and %d in bank", ErrAmountOverflow, userID, acc.Balance, acc.Bank)
	}
	newBalance := acc.Balance + balanceDelta
	newBank := acc.Bank + bankDelta
	if newBalance < 0 || newBank < 0 {
		if bankDelta < 0 {
			return acc.Balance, fmt.Errorf("%w: bank holds %d, need %d", ErrInsufficientFunds, acc.Bank, -bankDelta)
		}
		return acc.Balance, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, acc.Balance, -balanceDelta)
	}

	if !tx.exists(userID) {
		acc.CreatedAt = tx.now
		tx.bus.Publish(events.AccountCreatedEvent{UserID: userID})
	}

	history := events.BalanceChangeEvent{
		UserID:          userID,
		OldBalance:      acc.Balance,
		NewBalance:      newBalance,
		OldBank:         acc.Bank,
		NewBank:         newBank,
		ChangeAmount:    reported,
		TransactionType: p.Type,
		Metadata:        p.Metadata,
		RelatedID:       p.RelatedID,
		RelatedType:     p.RelatedType,
	}

	acc.Balance = newBalance
	acc.Bank = newBank
	acc.UpdatedAt = tx.now
	tx.dirty[userID] = true
	tx.bus.Publish(history)

	return acc.Balance, nil
}

// dirtyAccounts returns the accounts modified by this update
func (tx *LedgerTx) dirtyAccounts() []*models.Account {
	accounts := make([]*models.Account, 0, len(tx.dirty))
	for userID := range tx.dirty {
		accounts = append(accounts, tx.staged[userID])
	}
	return accounts
}

// creditBank adds amount to the user's bank without touching the balance
func (tx *LedgerTx) creditBank(user string, amount int64, p Posting) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if _, err := tx.change(user, 0, amount, amount, p); err != nil {
		return 0, err
	}
	return tx.account(NormalizeUserID(user)).Bank, nil
}

// addCapped adds two non-negative amounts, saturating at math.MaxInt64
func addCapped(a, b int64) int64 {
	if b > math.MaxInt64-a {
		return math.MaxInt64
	}
	return a + b
}

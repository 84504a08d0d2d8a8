package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeGive         TransactionType = "give"
	TransactionTypeTake         TransactionType = "take"
	TransactionTypeTransferIn   TransactionType = "transfer_in"
	TransactionTypeTransferOut  TransactionType = "transfer_out"
	TransactionTypeBankDeposit  TransactionType = "bank_deposit"
	TransactionTypeBankWithdraw TransactionType = "bank_withdraw"
	TransactionTypeInterest     TransactionType = "interest"
	TransactionTypeDiceEscrow   TransactionType = "dice_escrow"
	TransactionTypeDicePayout   TransactionType = "dice_payout"
	TransactionTypeDiceRefund   TransactionType = "dice_refund"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeDiceGame    RelatedType = "dice_game"
	RelatedTypeInterestRun RelatedType = "interest_run"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	UserID              string          `db:"user_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	BankBefore          int64           `db:"bank_before"`
	BankAfter           int64           `db:"bank_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *string         `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}

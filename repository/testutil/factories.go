package testutil

import (
	"time"

	"economy/models"
)

// CreateTestAccount creates an account with the given balance and bank
func CreateTestAccount(userID string, balance, bank int64) *models.Account {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Account{
		UserID:    userID,
		Balance:   balance,
		Bank:      bank,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestBalanceHistory creates a history entry for a balance debit of 10
func CreateTestBalanceHistory(userID string, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   100,
		BalanceAfter:    90,
		ChangeAmount:    -10,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}

// CreateTestInterestRun creates an interest run that paid two accounts
func CreateTestInterestRun(runAt time.Time) *models.InterestRun {
	return &models.InterestRun{
		RunAt:                    runAt,
		InterestRate:             0.05,
		TotalInterestDistributed: 15,
		UsersAffected:            2,
		ExecutionSummary: map[string]any{
			"accounts_with_bank": float64(3),
			"max_interest":       float64(10),
		},
	}
}

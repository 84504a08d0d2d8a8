package repository

import (
	"context"
	"fmt"
	"time"

	"economy/database"
	"economy/models"

	"github.com/jackc/pgx/v5"
)

// AccountRepository stores accounts in postgres
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// LoadAll returns every account ordered by user id
func (r *AccountRepository) LoadAll(ctx context.Context) ([]*models.Account, error) {
	query := `
		SELECT user_id, balance, bank, created_at, updated_at
		FROM accounts
		ORDER BY user_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var acc models.Account
		if err := rows.Scan(&acc.UserID, &acc.Balance, &acc.Bank, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// Upsert writes all accounts in one transaction; either every row is written or none is
func (r *AccountRepository) Upsert(ctx context.Context, accounts []*models.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return upsertAccounts(ctx, tx, accounts)
	})
}

func upsertAccounts(ctx context.Context, q queryable, accounts []*models.Account) error {
	query := `
		INSERT INTO accounts (user_id, balance, bank, created_at, updated_at)
		VALUES ($1, $2, $3, COALESCE($4::timestamptz, NOW()), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET balance = EXCLUDED.balance,
		    bank = EXCLUDED.bank,
		    updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, acc := range accounts {
		var createdAt *time.Time
		if !acc.CreatedAt.IsZero() {
			createdAt = &acc.CreatedAt
		}
		batch.Queue(query, acc.UserID, acc.Balance, acc.Bank, createdAt)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for _, acc := range accounts {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert account %s: %w", acc.UserID, err)
		}
	}
	return nil
}

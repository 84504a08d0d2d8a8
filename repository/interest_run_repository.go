package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"economy/database"
	"economy/models"

	"github.com/jackc/pgx/v5"
)

// InterestRunRepository keeps an audit row per interest run
type InterestRunRepository struct {
	q queryable
}

// NewInterestRunRepository creates a new interest run repository
func NewInterestRunRepository(db *database.DB) *InterestRunRepository {
	return &InterestRunRepository{q: db.Pool}
}

// Create inserts a run and fills in its id and creation time
func (r *InterestRunRepository) Create(ctx context.Context, run *models.InterestRun) error {
	summaryJSON, err := json.Marshal(run.ExecutionSummary)
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	query := `
		INSERT INTO interest_runs
		(run_at, interest_rate, total_interest_distributed, users_affected, execution_summary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		run.RunAt,
		run.InterestRate,
		run.TotalInterestDistributed,
		run.UsersAffected,
		summaryJSON,
	).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create interest run: %w", err)
	}

	return nil
}

// GetLatest returns the most recent run, or nil if interest was never applied
func (r *InterestRunRepository) GetLatest(ctx context.Context) (*models.InterestRun, error) {
	query := `
		SELECT id, run_at, interest_rate, total_interest_distributed, users_affected,
		       execution_summary, created_at
		FROM interest_runs
		ORDER BY run_at DESC, id DESC
		LIMIT 1
	`

	var run models.InterestRun
	var summaryJSON []byte
	err := r.q.QueryRow(ctx, query).Scan(
		&run.ID,
		&run.RunAt,
		&run.InterestRate,
		&run.TotalInterestDistributed,
		&run.UsersAffected,
		&summaryJSON,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest interest run: %w", err)
	}

	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &run.ExecutionSummary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution summary: %w", err)
		}
	}

	return &run, nil
}

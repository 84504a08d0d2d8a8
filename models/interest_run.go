package models

import (
	"time"
)

// InterestRun represents one application of bank interest across all accounts
type InterestRun struct {
	ID                       int64          `db:"id"`
	RunAt                    time.Time      `db:"run_at"`
	InterestRate             float64        `db:"interest_rate"`
	TotalInterestDistributed int64          `db:"total_interest_distributed"`
	UsersAffected            int            `db:"users_affected"`
	ExecutionSummary         map[string]any `db:"execution_summary"`
	CreatedAt                time.Time      `db:"created_at"`
}

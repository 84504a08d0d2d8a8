package models

import (
	"time"
)

// EconomySettings holds the process-wide interest configuration
type EconomySettings struct {
	InterestRate   float64       `db:"interest_rate"`
	InterestPeriod time.Duration `db:"interest_period_ms"`
	UpdatedBy      string        `db:"updated_by"`
	UpdatedAt      time.Time     `db:"updated_at"`
}

// InterestPeriodMillis returns the period in the unit used by the settings document
func (s *EconomySettings) InterestPeriodMillis() int64 {
	return s.InterestPeriod.Milliseconds()
}

package models

import (
	"math"
	"time"
)

// Account represents a user's holdings in the economy
type Account struct {
	UserID    string    `db:"user_id" json:"userId"`
	Balance   int64     `db:"balance" json:"balance"`
	Bank      int64     `db:"bank" json:"bank"`
	CreatedAt time.Time `db:"created_at" json:"createdAt,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// Total returns the combined spendable and banked amount, saturating at math.MaxInt64
func (a *Account) Total() int64 {
	if a.Bank > math.MaxInt64-a.Balance {
		return math.MaxInt64
	}
	return a.Balance + a.Bank
}

// Clone returns a copy that can be mutated without touching the original
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

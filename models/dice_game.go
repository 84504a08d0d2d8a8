package models

import (
	"time"
)

// DiceGameState represents the state of a dice game
type DiceGameState string

const (
	DiceGameStateAwaitingOpponent DiceGameState = "awaiting_opponent"
	DiceGameStateResolved         DiceGameState = "resolved"
	DiceGameStateCancelled        DiceGameState = "cancelled"
)

// DiceGame represents a two-player dice wager hosted in a room
type DiceGame struct {
	ID           string        `json:"id"`
	RoomID       string        `json:"roomId"`
	Host         string        `json:"host"`
	Bet          int64         `json:"bet"`
	Opponent     string        `json:"opponent,omitempty"`
	State        DiceGameState `json:"state"`
	HostRoll     int           `json:"hostRoll,omitempty"`
	OpponentRoll int           `json:"opponentRoll,omitempty"`
	Winner       string        `json:"winner,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	ExpiresAt    time.Time     `json:"expiresAt"`
}

// DiceResult represents the outcome of a resolved dice game
type DiceResult struct {
	Game         *DiceGame
	HostRoll     int
	OpponentRoll int
	Winner       string // empty on a tie
	Loser        string
	Pot          int64
	Tie          bool
}

// IsParticipant checks if a user is involved in the game
func (g *DiceGame) IsParticipant(userID string) bool {
	return g.Host == userID || (g.Opponent != "" && g.Opponent == userID)
}

// IsActive checks if the game still holds escrowed funds
func (g *DiceGame) IsActive() bool {
	return g.State == DiceGameStateAwaitingOpponent
}

// Pot returns the total escrowed by both players once joined
func (g *DiceGame) Pot() int64 {
	return g.Bet * 2
}

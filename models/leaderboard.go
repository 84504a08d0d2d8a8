package models

// LeaderboardEntry represents a user's position in the richest-users ranking
type LeaderboardEntry struct {
	Rank    int    `json:"rank"`
	UserID  string `json:"userId"`
	Balance int64  `json:"balance"`
	Bank    int64  `json:"bank"`
	Total   int64  `json:"total"`
}

package common

// Leaderboard paging
const (
	LeaderboardPageSize = 10
	DefaultRichestStart = 1
	DefaultRichestEnd   = 10
)

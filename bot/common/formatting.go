package common

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
)

// CurrencyName is appended to every formatted amount
const CurrencyName = "coins"

// FormatBalance formats a balance amount with thousand separators
func FormatBalance(balance int64) string {
	return humanize.Comma(balance)
}

// FormatAmount formats an amount followed by the currency name
func FormatAmount(amount int64) string {
	return fmt.Sprintf("%s %s", humanize.Comma(amount), CurrencyName)
}

// FormatPercent formats a rate such as 0.05 as "5%"
func FormatPercent(rate float64) string {
	return humanize.FtoaWithDigits(rate*100, 4) + "%"
}

// FormatPeriod formats a duration using its two largest units, e.g. "1 day 2 hours"
func FormatPeriod(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d milliseconds", d.Milliseconds())
	}
	return durafmt.Parse(d).LimitFirstN(2).String()
}

// FormatRank formats a leaderboard position as "1st", "2nd", ...
func FormatRank(rank int) string {
	return humanize.Ordinal(rank)
}

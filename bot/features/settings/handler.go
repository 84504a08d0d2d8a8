package settings

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"economy/bot/common"
	"economy/service"

	log "github.com/sirupsen/logrus"
)

// maxPeriodMs is the longest period that still fits in a time.Duration
const maxPeriodMs = math.MaxInt64 / int64(time.Millisecond)

// handleSetInterest handles the setinterest command. Without arguments it shows the current settings.
func (f *Feature) handleSetInterest(ctx context.Context, inv *common.Invocation, r common.Responder) error {
	args := common.SplitArgs(inv.Args)
	if len(args) == 0 {
		current := f.settings.Get()
		return r.Reply(fmt.Sprintf("Interest is %s every %s.",
			common.FormatPercent(current.InterestRate), common.FormatPeriod(current.InterestPeriod)), true)
	}
	if len(args) != 2 {
		return common.NewUserError("Usage: setinterest rate, periodMs (e.g. 0.05, 86400000)", "wrong number of arguments")
	}

	rate, err := parseRate(args[0])
	if err != nil {
		return err
	}
	periodMs, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return common.NewUserError("Period must be a whole number of milliseconds.", fmt.Sprintf("invalid period %q", args[1]))
	}
	if periodMs < service.MinInterestPeriod.Milliseconds() {
		return service.ErrInvalidPeriod
	}
	if periodMs > maxPeriodMs {
		return common.NewUserError(fmt.Sprintf("Period can be at most %d ms.", maxPeriodMs), fmt.Sprintf("period %d ms overflows", periodMs))
	}

	updated, err := f.settings.SetInterest(ctx, rate, time.Duration(periodMs)*time.Millisecond, inv.UserID)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"admin":  inv.UserID,
		"rate":   updated.InterestRate,
		"period": updated.InterestPeriod,
	}).Info("Interest settings changed")

	return r.Reply(fmt.Sprintf("✅ Interest set to **%s** every **%s**.",
		common.FormatPercent(updated.InterestRate), common.FormatPeriod(updated.InterestPeriod)), false)
}

// parseRate accepts a fraction ("0.05") or a percentage ("5%")
func parseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	rate, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, common.NewUserError("Rate must be a number between 0 and 1, or a percentage.", fmt.Sprintf("invalid rate %q", s))
	}
	if percent {
		rate /= 100
	}
	return rate, nil
}

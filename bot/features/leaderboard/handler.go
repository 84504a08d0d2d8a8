package leaderboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"economy/bot/common"
	"economy/models"
)

func (f *Feature) handleRichest(ctx context.Context, inv *common.Invocation, r common.Responder) error {
	start, end, err := common.ParseRange(inv.Args, common.DefaultRichestStart, common.DefaultRichestEnd)
	if err != nil {
		return err
	}

	entries, err := f.ledger.GetRichestUsers(ctx, start, end)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("💰 Richest users %d-%d", start, end)
	return r.Reply(f.render(ctx, inv.Room, title, entries), false)
}

func (f *Feature) handleLeaderboard(ctx context.Context, inv *common.Invocation, r common.Responder) error {
	page := 1
	if arg := strings.TrimSpace(inv.Args); arg != "" {
		p, err := strconv.Atoi(arg)
		if err != nil || p < 1 {
			return common.NewUserError("Page must be a positive number.", fmt.Sprintf("invalid page %q", arg))
		}
		page = p
	}

	start := (page-1)*common.LeaderboardPageSize + 1
	end := start + common.LeaderboardPageSize - 1
	entries, err := f.ledger.GetRichestUsers(ctx, start, end)
	if err != nil {
		return err
	}

	pages := (f.ledger.Count() + common.LeaderboardPageSize - 1) / common.LeaderboardPageSize
	title := fmt.Sprintf("🏆 Leaderboard, page %d of %d", page, max(pages, 1))
	return r.Reply(f.render(ctx, inv.Room, title, entries), false)
}

func (f *Feature) render(ctx context.Context, room, title string, entries []*models.LeaderboardEntry) string {
	var b strings.Builder
	b.WriteString("**" + title + "**\n")
	if len(entries) == 0 {
		b.WriteString("Nobody here yet.")
		return b.String()
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "%s **%s**: %s (balance %s, bank %s)\n",
			common.FormatRank(e.Rank),
			f.users.DisplayName(ctx, room, e.UserID),
			common.FormatAmount(e.Total),
			common.FormatBalance(e.Balance),
			common.FormatBalance(e.Bank),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

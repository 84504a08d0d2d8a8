package balance

import (
	"context"
	"fmt"
	"strings"

	"economy/bot/common"

	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleBalance(ctx context.Context, inv *common.Invocation, r common.Responder) error {
	target := inv.UserID
	if query := strings.TrimSpace(inv.Args); query != "" {
		resolved, err := f.users.ResolveUser(ctx, inv.Room, query)
		if err != nil {
			return err
		}
		target = resolved
	}

	acc, err := f.ledger.GetAccount(ctx, target)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"user_id": acc.UserID,
		"balance": acc.Balance,
		"bank":    acc.Bank,
	}).Debug("Balance lookup")

	name := f.users.DisplayName(ctx, inv.Room, target)
	return r.Reply(fmt.Sprintf("**%s** has **%s** and **%s** in the bank.",
		name, common.FormatAmount(acc.Balance), common.FormatAmount(acc.Bank)), false)
}

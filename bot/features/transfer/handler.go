package transfer

import (
	"context"
	"fmt"

	"economy/bot/common"

	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleTransfer(ctx context.Context, inv *common.Invocation, r common.Responder) error {
	args := common.SplitArgs(inv.Args)
	if len(args) != 2 {
		return common.NewUserError("Usage: transfermoney user, amount", "wrong number of arguments")
	}

	recipient, err := f.users.ResolveUser(ctx, inv.Room, args[0])
	if err != nil {
		return err
	}
	amount, err := common.ParseAmount(args[1])
	if err != nil {
		return err
	}

	result, err := f.ledger.TransferMoney(ctx, inv.UserID, recipient, amount)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"from":   result.From,
		"to":     result.To,
		"amount": result.Amount,
	}).Info("Money transferred")

	sender := f.users.DisplayName(ctx, inv.Room, result.From)
	return r.Reply(fmt.Sprintf("✅ **%s** transferred **%s** to **%s**. %s now has **%s**.",
		sender,
		common.FormatAmount(result.Amount),
		f.users.DisplayName(ctx, inv.Room, result.To),
		sender,
		common.FormatAmount(result.FromBalance),
	), false)
}

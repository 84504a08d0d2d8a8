package admin

import (
	"context"
	"fmt"

	"economy/bot/common"

	log "github.com/sirupsen/logrus"
)

func (f *Feature) parseTarget(ctx context.Context, inv *common.Invocation) (string, int64, error) {
	args := common.SplitArgs(inv.Args)
	if len(args) != 2 {
		return "", 0, common.NewUserError(fmt.Sprintf("Usage: %s user, amount", inv.Command), "wrong number of arguments")
	}
	target, err := f.users.ResolveUser(ctx, inv.Room, args[0])
	if err != nil {
		return "", 0, err
	}
	amount, err := common.ParseAmount(args[1])
	if err != nil {
		return "", 0, err
	}
	return target, amount, nil
}

func (f *Feature) handleGive(ctx context.Context, inv *common.Invocation, r common.Responder) error {
	target, amount, err := f.parseTarget(ctx, inv)
	if err != nil {
		return err
	}

	balance, err := f.ledger.GiveMoney(ctx, target, amount, inv.UserID)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"admin":  inv.UserID,
		"target": target,
		"amount": amount,
	}).Info("Money given")

	return r.Reply(fmt.Sprintf("💰 **%s** was given **%s**. New balance: **%s**.",
		f.users.DisplayName(ctx, inv.Room, target), common.FormatAmount(amount), common.FormatAmount(balance)), false)
}

func (f *Feature) handleTake(ctx context.Context, inv *common.Invocation, r common.Responder) error {
	target, amount, err := f.parseTarget(ctx, inv)
	if err != nil {
		return err
	}

	balance, err := f.ledger.TakeMoney(ctx, target, amount, inv.UserID)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"admin":  inv.UserID,
		"target": target,
		"amount": amount,
	}).Info("Money taken")

	return r.Reply(fmt.Sprintf("💸 Took **%s** from **%s**. New balance: **%s**.",
		common.FormatAmount(amount), f.users.DisplayName(ctx, inv.Room, target), common.FormatAmount(balance)), false)
}

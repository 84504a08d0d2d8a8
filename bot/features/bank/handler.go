package bank

import (
	"context"
	"fmt"
	"strings"

	"economy/bot/common"
	"economy/service"
)

func (f *Feature) handleBank(ctx context.Context, inv *common.Invocation, r common.Responder) error {
	args := common.Fields(inv.Args)
	action := "balance"
	if len(args) > 0 {
		action = strings.ToLower(args[0])
	}

	switch action {
	case "deposit", "withdraw":
		if len(args) != 2 {
			return common.NewUserError(fmt.Sprintf("Usage: bank %s amount", action), "missing bank amount")
		}
		amount, err := common.ParseAmount(args[1])
		if err != nil {
			return err
		}
		if action == "deposit" {
			return f.deposit(ctx, inv, r, amount)
		}
		return f.withdraw(ctx, inv, r, amount)
	case "balance":
		return f.showBank(ctx, inv, r)
	default:
		return common.NewUserError("Usage: bank deposit|withdraw|balance [amount]", fmt.Sprintf("unknown bank action %q", action))
	}
}

func (f *Feature) deposit(ctx context.Context, inv *common.Invocation, r common.Responder, amount int64) error {
	result, err := f.ledger.DepositBank(ctx, inv.UserID, amount)
	if err != nil {
		return err
	}
	return r.Reply(fmt.Sprintf("🏦 Deposited **%s**. Balance: **%s**, bank: **%s**.",
		common.FormatAmount(result.Amount),
		common.FormatAmount(result.Balance),
		common.FormatAmount(result.Bank),
	), true)
}

func (f *Feature) withdraw(ctx context.Context, inv *common.Invocation, r common.Responder, amount int64) error {
	result, err := f.ledger.WithdrawBank(ctx, inv.UserID, amount)
	if err != nil {
		return err
	}
	return r.Reply(fmt.Sprintf("🏦 Withdrew **%s** and received **%s** after a %d%% fee of %s. Balance: **%s**, bank: **%s**.",
		common.FormatAmount(result.Amount),
		common.FormatAmount(result.Received),
		service.WithdrawFeePercent,
		common.FormatAmount(result.Fee),
		common.FormatAmount(result.Balance),
		common.FormatAmount(result.Bank),
	), true)
}

func (f *Feature) showBank(ctx context.Context, inv *common.Invocation, r common.Responder) error {
	acc, err := f.ledger.GetAccount(ctx, inv.UserID)
	if err != nil {
		return err
	}
	settings := f.settings.Get()
	return r.Reply(fmt.Sprintf("🏦 Your bank holds **%s** and earns %s every %s. Withdrawals cost %d%%.",
		common.FormatAmount(acc.Bank),
		common.FormatPercent(settings.InterestRate),
		common.FormatPeriod(settings.InterestPeriod),
		service.WithdrawFeePercent,
	), true)
}

package balance

import (
	"economy/bot/common"
	"economy/service"
)

type Feature struct {
	ledger *service.Ledger
	users  common.UserResolver
}

func New(ledger *service.Ledger, users common.UserResolver) *Feature {
	return &Feature{
		ledger: ledger,
		users:  users,
	}
}

func (f *Feature) Commands() []common.Command {
	return []common.Command{
		{
			Name:        "balance",
			Aliases:     []string{"atm"},
			Description: "Show your balance, or someone else's",
			Usage:       "[user]",
			Handler:     f.handleBalance,
		},
	}
}

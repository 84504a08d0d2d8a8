package transfer

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
			Name:        "transfermoney",
			Aliases:     []string{"transfer"},
			Description: "Send money from your balance to another user",
			Usage:       "user, amount",
			Handler:     f.handleTransfer,
		},
	}
}

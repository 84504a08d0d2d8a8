package admin

import (
	"economy/bot/common"
	"economy/service"
)

// Feature lets admins mint and burn money
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
			Name:        "givemoney",
			Description: "Give money to a user",
			Usage:       "user, amount",
			Admin:       true,
			Handler:     f.handleGive,
		},
		{
			Name:        "takemoney",
			Description: "Take money from a user",
			Usage:       "user, amount",
			Admin:       true,
			Handler:     f.handleTake,
		},
	}
}

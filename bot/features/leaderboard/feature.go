package leaderboard

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
			Name:        "richestusers",
			Description: "List the richest users by balance plus bank",
			Usage:       "[start-end]",
			Handler:     f.handleRichest,
		},
		{
			Name:        "leaderboard",
			Description: "Show a page of the wealth leaderboard",
			Usage:       "[page]",
			Handler:     f.handleLeaderboard,
		},
	}
}

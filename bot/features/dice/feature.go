package dice

import (
	"economy/bot/common"
	"economy/service"
)

// Feature runs two-player dice wagers, one per room
type Feature struct {
	dice  *service.DiceService
	users common.UserResolver
}

func New(dice *service.DiceService, users common.UserResolver) *Feature {
	return &Feature{
		dice:  dice,
		users: users,
	}
}

func (f *Feature) Commands() []common.Command {
	return []common.Command{
		{
			Name:        "dice",
			Description: "Bet against another user on a roll of the dice",
			Usage:       "start amount | join | status | help",
			Handler:     f.handleDice,
		},
	}
}

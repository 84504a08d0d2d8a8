package bank

import (
	"economy/bot/common"
	"economy/service"
)

// Feature moves money between a user's balance and their interest-earning bank
type Feature struct {
	ledger   *service.Ledger
	settings *service.SettingsService
}

func New(ledger *service.Ledger, settings *service.SettingsService) *Feature {
	return &Feature{
		ledger:   ledger,
		settings: settings,
	}
}

func (f *Feature) Commands() []common.Command {
	return []common.Command{
		{
			Name:        "bank",
			Description: "Deposit to or withdraw from your bank",
			Usage:       "deposit|withdraw|balance [amount]",
			Handler:     f.handleBank,
		},
	}
}

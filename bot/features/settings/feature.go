package settings

import (
	"economy/bot/common"
	"economy/service"
)

// Feature handles economy settings management
type Feature struct {
	settings *service.SettingsService
}

// NewFeature creates a new settings feature instance
func NewFeature(settings *service.SettingsService) *Feature {
	return &Feature{
		settings: settings,
	}
}

func (f *Feature) Commands() []common.Command {
	return []common.Command{
		{
			Name:        "setinterest",
			Description: "Set the bank interest rate and how often it is paid",
			Usage:       "rate, periodMs",
			Admin:       true,
			Handler:     f.handleSetInterest,
		},
	}
}

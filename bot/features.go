package bot

import (
	"economy/bot/common"
	"economy/bot/features/admin"
	"economy/bot/features/balance"
	"economy/bot/features/bank"
	"economy/bot/features/dice"
	"economy/bot/features/help"
	"economy/bot/features/leaderboard"
	"economy/bot/features/settings"
	"economy/bot/features/transfer"
	"economy/service"
)

// Services are the economy services the chat commands operate on
type Services struct {
	Ledger   *service.Ledger
	Settings *service.SettingsService
	Dice     *service.DiceService
}

// RegisterFeatures adds every economy command to the router
func RegisterFeatures(router *Router, prefix string, svc Services, users common.UserResolver) {
	router.Register(
		balance.New(svc.Ledger, users),
		transfer.New(svc.Ledger, users),
		bank.New(svc.Ledger, svc.Settings),
		settings.NewFeature(svc.Settings),
		admin.New(svc.Ledger, users),
		leaderboard.New(svc.Ledger, users),
		dice.New(svc.Dice, users),
		help.New(prefix, router.Commands),
	)
}

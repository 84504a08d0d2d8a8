package bot

import (
	"context"

	"economy/bot/common"
	"economy/bot/features/dice"
	"economy/events"

	log "github.com/sirupsen/logrus"
)

// AnnounceExpiredGames tells a room when its dice game was refunded because nobody joined
func AnnounceExpiredGames(bus *events.Bus, messenger common.RoomMessenger, users common.UserResolver) {
	bus.Subscribe(events.EventTypeDiceGameExpired, func(ctx context.Context, event events.Event) {
		expired, ok := event.(events.DiceGameExpiredEvent)
		if !ok {
			return
		}

		game := expired.Game
		name := func(userID string) string { return users.DisplayName(ctx, game.RoomID, userID) }
		if err := messenger.Broadcast(game.RoomID, dice.FormatExpired(name, game)); err != nil {
			log.WithError(err).WithField("room", game.RoomID).Error("Failed to announce expired dice game")
		}
	})
}

package dice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"economy/bot/common"
	"economy/models"
)

func (f *Feature) handleDice(ctx context.Context, inv *common.Invocation, r common.Responder) error {
	args := common.Fields(inv.Args)
	action := "help"
	if len(args) > 0 {
		action = strings.ToLower(args[0])
	}

	switch action {
	case "start":
		if len(args) != 2 {
			return common.NewUserError("Usage: dice start amount", "missing dice bet")
		}
		bet, err := common.ParseAmount(args[1])
		if err != nil {
			return err
		}
		return f.start(ctx, inv, r, bet)
	case "join":
		return f.join(ctx, inv, r)
	case "status":
		return f.status(ctx, inv, r)
	case "help":
		return r.Reply(f.help(), true)
	default:
		return common.NewUserError("Usage: dice start amount | join | status | help", fmt.Sprintf("unknown dice action %q", action))
	}
}

func (f *Feature) start(ctx context.Context, inv *common.Invocation, r common.Responder, bet int64) error {
	game, err := f.dice.Start(ctx, inv.Room, inv.UserID, bet)
	if err != nil {
		return err
	}

	return r.Reply(fmt.Sprintf("🎲 **%s** started a dice game for **%s**! Type `dice join` within %s to play.",
		f.users.DisplayName(ctx, inv.Room, game.Host),
		common.FormatAmount(game.Bet),
		common.FormatPeriod(f.dice.Timeout()),
	), false)
}

func (f *Feature) join(ctx context.Context, inv *common.Invocation, r common.Responder) error {
	result, err := f.dice.Join(ctx, inv.Room, inv.UserID)
	if err != nil {
		return err
	}
	return r.Reply(FormatResult(f.names(ctx, inv.Room), result), false)
}

func (f *Feature) status(ctx context.Context, inv *common.Invocation, r common.Responder) error {
	game, ok := f.dice.Active(inv.Room)
	if !ok {
		return r.Reply("🎲 No dice game is running here. Start one with `dice start amount`.", true)
	}

	remaining := time.Until(game.ExpiresAt).Round(time.Second)
	return r.Reply(fmt.Sprintf("🎲 **%s** is waiting for an opponent with **%s** on the table. %s left to join.",
		f.users.DisplayName(ctx, inv.Room, game.Host),
		common.FormatAmount(game.Bet),
		common.FormatPeriod(max(remaining, time.Second)),
	), true)
}

func (f *Feature) help() string {
	return strings.Join([]string{
		"🎲 **Dice**",
		"`dice start amount`: put up a bet and wait for an opponent",
		"`dice join`: match the bet; both players roll a die and the higher roll takes the pot",
		"`dice status`: show the game waiting in this room",
		fmt.Sprintf("Ties refund both players. Unjoined games are refunded after %s.", common.FormatPeriod(f.dice.Timeout())),
	}, "\n")
}

func (f *Feature) names(ctx context.Context, room string) func(string) string {
	return func(userID string) string {
		return f.users.DisplayName(ctx, room, userID)
	}
}

// FormatResult describes a settled game
func FormatResult(name func(string) string, result *models.DiceResult) string {
	game := result.Game
	rolls := fmt.Sprintf("🎲 **%s** rolled **%d**, **%s** rolled **%d**.",
		name(game.Host), result.HostRoll, name(game.Opponent), result.OpponentRoll)
	if result.Tie {
		return rolls + fmt.Sprintf(" It's a tie! Both players get their **%s** back.", common.FormatAmount(game.Bet))
	}
	return rolls + fmt.Sprintf(" **%s** wins **%s**!", name(result.Winner), common.FormatAmount(result.Pot))
}

// FormatExpired describes a game nobody joined
func FormatExpired(name func(string) string, game models.DiceGame) string {
	return fmt.Sprintf("🎲 Nobody joined **%s**'s dice game. **%s** has been refunded.",
		name(game.Host), common.FormatAmount(game.Bet))
}

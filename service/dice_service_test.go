package service

import (
	"context"
	"math"
	"testing"
	"time"

	"economy/events"
	"economy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRolls returns the given rolls in order, then repeats the last one
func fixedRolls(rolls ...int) DiceRoller {
	i := 0
	return func() int {
		r := rolls[i]
		if i < len(rolls)-1 {
			i++
		}
		return r
	}
}

func newTestDice(t *testing.T, timeout time.Duration, accounts ...models.Account) (*DiceService, *Ledger, *RecordingPublisher) {
	t.Helper()
	ledger, _, publisher := newTestLedger(t, accounts...)
	return NewDiceService(ledger, timeout), ledger, publisher
}

func TestDiceService_StartEscrowsBet(t *testing.T) {
	ctx := context.Background()
	dice, ledger, publisher := newTestDice(t, time.Minute, models.Account{UserID: "host", Balance: 100})
	defer dice.Close(ctx)

	game, err := dice.Start(ctx, "room1", "Host", 10)
	require.NoError(t, err)
	assert.Equal(t, "host", game.Host)
	assert.Equal(t, models.DiceGameStateAwaitingOpponent, game.State)
	assert.NotEmpty(t, game.ID)

	balance, _ := ledger.GetBalance(ctx, "host")
	assert.Equal(t, int64(90), balance)

	active, ok := dice.Active("room1")
	require.True(t, ok)
	assert.Equal(t, game.ID, active.ID)
	assert.Len(t, publisher.Events(events.EventTypeDiceGameStarted), 1)
}

func TestDiceService_StartRejections(t *testing.T) {
	ctx := context.Background()
	dice, ledger, _ := newTestDice(t, time.Minute,
		models.Account{UserID: "host", Balance: 100},
		models.Account{UserID: "poor", Balance: 5},
	)
	defer dice.Close(ctx)

	_, err := dice.Start(ctx, "room1", "host", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = dice.Start(ctx, "room1", "host", math.MaxInt64/2+1)
	assert.ErrorIs(t, err, ErrAmountOverflow)

	_, err = dice.Start(ctx, "room1", "poor", 10)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	_, ok := dice.Active("room1")
	assert.False(t, ok)

	_, err = dice.Start(ctx, "room1", "host", 10)
	require.NoError(t, err)

	_, err = dice.Start(ctx, "room1", "poor", 1)
	assert.ErrorIs(t, err, ErrGameAlreadyActive)

	poor, _ := ledger.GetBalance(ctx, "poor")
	assert.Equal(t, int64(5), poor)

	// Other rooms are independent
	_, err = dice.Start(ctx, "room2", "poor", 5)
	assert.NoError(t, err)
}

func TestDiceService_JoinHostWins(t *testing.T) {
	ctx := context.Background()
	dice, ledger, publisher := newTestDice(t, time.Minute,
		models.Account{UserID: "host", Balance: 100},
		models.Account{UserID: "guest", Balance: 100},
	)
	dice.SetRoller(fixedRolls(6, 2))

	_, err := dice.Start(ctx, "room1", "host", 10)
	require.NoError(t, err)

	result, err := dice.Join(ctx, "room1", "guest")
	require.NoError(t, err)
	assert.Equal(t, 6, result.HostRoll)
	assert.Equal(t, 2, result.OpponentRoll)
	assert.Equal(t, "host", result.Winner)
	assert.Equal(t, "guest", result.Loser)
	assert.Equal(t, int64(20), result.Pot)
	assert.False(t, result.Tie)
	assert.Equal(t, models.DiceGameStateResolved, result.Game.State)

	host, _ := ledger.GetBalance(ctx, "host")
	guest, _ := ledger.GetBalance(ctx, "guest")
	assert.Equal(t, int64(110), host)
	assert.Equal(t, int64(90), guest)

	_, ok := dice.Active("room1")
	assert.False(t, ok, "slot is freed immediately")
	assert.Len(t, publisher.Events(events.EventTypeDiceGameResolved), 1)

	// A new game can start right away
	_, err = dice.Start(ctx, "room1", "guest", 10)
	assert.NoError(t, err)
	require.NoError(t, dice.Close(ctx))
}

func TestDiceService_JoinOpponentWins(t *testing.T) {
	ctx := context.Background()
	dice, ledger, _ := newTestDice(t, time.Minute,
		models.Account{UserID: "host", Balance: 100},
		models.Account{UserID: "guest", Balance: 100},
	)
	dice.SetRoller(fixedRolls(1, 4))

	_, err := dice.Start(ctx, "room1", "host", 25)
	require.NoError(t, err)
	result, err := dice.Join(ctx, "room1", "guest")
	require.NoError(t, err)
	assert.Equal(t, "guest", result.Winner)

	host, _ := ledger.GetBalance(ctx, "host")
	guest, _ := ledger.GetBalance(ctx, "guest")
	assert.Equal(t, int64(75), host)
	assert.Equal(t, int64(125), guest)
}

func TestDiceService_JoinTieRefundsBoth(t *testing.T) {
	ctx := context.Background()
	dice, ledger, _ := newTestDice(t, time.Minute,
		models.Account{UserID: "host", Balance: 100},
		models.Account{UserID: "guest", Balance: 100},
	)
	dice.SetRoller(fixedRolls(3, 3))

	_, err := dice.Start(ctx, "room1", "host", 10)
	require.NoError(t, err)
	result, err := dice.Join(ctx, "room1", "guest")
	require.NoError(t, err)
	assert.True(t, result.Tie)
	assert.Empty(t, result.Winner)

	host, _ := ledger.GetBalance(ctx, "host")
	guest, _ := ledger.GetBalance(ctx, "guest")
	assert.Equal(t, int64(100), host)
	assert.Equal(t, int64(100), guest)
}

func TestDiceService_JoinRejections(t *testing.T) {
	ctx := context.Background()
	dice, ledger, _ := newTestDice(t, time.Minute,
		models.Account{UserID: "host", Balance: 100},
		models.Account{UserID: "poor", Balance: 5},
	)
	defer dice.Close(ctx)

	_, err := dice.Join(ctx, "room1", "poor")
	assert.ErrorIs(t, err, ErrNoActiveGame)

	_, err = dice.Start(ctx, "room1", "host", 10)
	require.NoError(t, err)

	_, err = dice.Join(ctx, "room1", "HOST")
	assert.ErrorIs(t, err, ErrSelfJoin)

	_, err = dice.Join(ctx, "room1", "poor")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// The game stays open after a failed join
	_, ok := dice.Active("room1")
	assert.True(t, ok)
	poor, _ := ledger.GetBalance(ctx, "poor")
	assert.Equal(t, int64(5), poor)
}

func TestDiceService_TimeoutRefundsHost(t *testing.T) {
	ctx := context.Background()
	dice, ledger, publisher := newTestDice(t, 50*time.Millisecond, models.Account{UserID: "host", Balance: 100})

	_, err := dice.Start(ctx, "room1", "host", 10)
	require.NoError(t, err)

	balance, _ := ledger.GetBalance(ctx, "host")
	assert.Equal(t, int64(90), balance)

	require.Eventually(t, func() bool {
		_, ok := dice.Active("room1")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	balance, _ = ledger.GetBalance(ctx, "host")
	assert.Equal(t, int64(100), balance)

	expired := publisher.Events(events.EventTypeDiceGameExpired)
	require.Len(t, expired, 1)
	assert.Equal(t, models.DiceGameStateCancelled, expired[0].(events.DiceGameExpiredEvent).Game.State)

	_, err = dice.Join(ctx, "room1", "guest")
	assert.ErrorIs(t, err, ErrNoActiveGame)
}

func TestDiceService_StaleTimerIsIgnored(t *testing.T) {
	ctx := context.Background()
	dice, ledger, publisher := newTestDice(t, time.Minute,
		models.Account{UserID: "host", Balance: 100},
		models.Account{UserID: "guest", Balance: 100},
	)
	defer dice.Close(ctx)
	dice.SetRoller(fixedRolls(6, 2))

	first, err := dice.Start(ctx, "room1", "host", 10)
	require.NoError(t, err)
	_, err = dice.Join(ctx, "room1", "guest")
	require.NoError(t, err)
	_, err = dice.Start(ctx, "room1", "guest", 10)
	require.NoError(t, err)

	// A timer armed for the first game fires late
	dice.expire("room1", first.ID)

	_, ok := dice.Active("room1")
	assert.True(t, ok)
	host, _ := ledger.GetBalance(ctx, "host")
	assert.Equal(t, int64(110), host)
	assert.Empty(t, publisher.Events(events.EventTypeDiceGameExpired))
}

func TestDiceService_CloseRefundsPendingHosts(t *testing.T) {
	ctx := context.Background()
	dice, ledger, _ := newTestDice(t, time.Minute,
		models.Account{UserID: "alice", Balance: 100},
		models.Account{UserID: "bob", Balance: 100},
	)

	_, err := dice.Start(ctx, "room1", "alice", 30)
	require.NoError(t, err)
	_, err = dice.Start(ctx, "room2", "bob", 40)
	require.NoError(t, err)

	require.NoError(t, dice.Close(ctx))

	alice, _ := ledger.GetBalance(ctx, "alice")
	bob, _ := ledger.GetBalance(ctx, "bob")
	assert.Equal(t, int64(100), alice)
	assert.Equal(t, int64(100), bob)
	assert.Empty(t, dice.ActiveGames())

	_, err = dice.Start(ctx, "room1", "alice", 1)
	assert.ErrorIs(t, err, ErrDiceClosed)
}

func TestDiceService_ConservesCurrency(t *testing.T) {
	ctx := context.Background()
	dice, ledger, _ := newTestDice(t, time.Minute,
		models.Account{UserID: "alice", Balance: 1000},
		models.Account{UserID: "bob", Balance: 1000},
	)

	for i := 0; i < 200; i++ {
		host, guest := "alice", "bob"
		if i%2 == 1 {
			host, guest = guest, host
		}
		if _, err := dice.Start(ctx, "room1", host, 7); err != nil {
			continue
		}
		_, _ = dice.Join(ctx, "room1", guest)
	}
	require.NoError(t, dice.Close(ctx))

	var total int64
	for _, acc := range ledger.Snapshot() {
		total += acc.Total()
	}
	assert.Equal(t, int64(2000), total)
}

func TestRollD6_Distribution(t *testing.T) {
	const rolls = 60000
	counts := make(map[int]int)
	for i := 0; i < rolls; i++ {
		r := RollD6()
		require.GreaterOrEqual(t, r, 1)
		require.LessOrEqual(t, r, 6)
		counts[r]++
	}

	expected := rolls / 6
	for face := 1; face <= 6; face++ {
		assert.InDelta(t, expected, counts[face], float64(expected)*0.1, "face %d", face)
	}
}

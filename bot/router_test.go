package bot

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"economy/bot/common"
	"economy/models"
	"economy/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reply struct {
	message   string
	ephemeral bool
}

type fakeResponder struct {
	replies []reply
}

func (f *fakeResponder) Reply(message string, ephemeral bool) error {
	f.replies = append(f.replies, reply{message: message, ephemeral: ephemeral})
	return nil
}

func (f *fakeResponder) last(t *testing.T) reply {
	t.Helper()
	require.NotEmpty(t, f.replies)
	return f.replies[len(f.replies)-1]
}

type testEnv struct {
	router *Router
	ledger *service.Ledger
	dice   *service.DiceService
	svc    Services
}

func newTestEnv(t *testing.T, accounts ...models.Account) *testEnv {
	t.Helper()
	ctx := context.Background()

	ledger, err := service.NewLedger(ctx, service.NewMemoryAccountRepository(accounts...), nil)
	require.NoError(t, err)
	settings, err := service.NewSettingsService(ctx, &service.MemorySettingsRepository{}, models.EconomySettings{
		InterestRate:   0.05,
		InterestPeriod: 24 * time.Hour,
	}, nil)
	require.NoError(t, err)
	dice := service.NewDiceService(ledger, time.Minute)
	t.Cleanup(func() { dice.Close(context.Background()) })

	svc := Services{Ledger: ledger, Settings: settings, Dice: dice}
	router := NewRouter(NewStaticPermissions([]string{"admin"}), nil)
	RegisterFeatures(router, "!", svc, PlainUserResolver{})
	return &testEnv{router: router, ledger: ledger, dice: dice, svc: svc}
}

func (e *testEnv) run(t *testing.T, user, command, args string) *fakeResponder {
	t.Helper()
	resp := &fakeResponder{}
	handled := e.router.Dispatch(context.Background(), &common.Invocation{
		Room:    "general",
		UserID:  user,
		Command: command,
		Args:    args,
	}, resp)
	require.True(t, handled, "command %s should be registered", command)
	return resp
}

func TestRouter_UnknownCommand(t *testing.T) {
	env := newTestEnv(t)
	resp := &fakeResponder{}

	handled := env.router.Dispatch(context.Background(), &common.Invocation{UserID: "alice", Command: "nope"}, resp)
	assert.False(t, handled)
	assert.Empty(t, resp.replies)
}

func TestRouter_CommandsSortedWithAliases(t *testing.T) {
	env := newTestEnv(t)

	names := make([]string, 0)
	for _, cmd := range env.router.Commands() {
		names = append(names, cmd.Name)
	}
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "givemoney")
	assert.Contains(t, names, "dice")

	cmd, ok := env.router.Lookup("ATM")
	require.True(t, ok)
	assert.Equal(t, "balance", cmd.Name)
}

func TestRouter_AdminCommandDenied(t *testing.T) {
	env := newTestEnv(t)

	resp := env.run(t, "mallory", "givemoney", "mallory, 1000")
	assert.Equal(t, "❌ You don't have permission to use this command.", resp.last(t).message)
	assert.True(t, resp.last(t).ephemeral)

	balance, err := env.ledger.GetBalance(context.Background(), "mallory")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestRouter_GiveAndTake(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.run(t, "admin", "givemoney", "bob, 1000")
	balance, err := env.ledger.GetBalance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	resp := env.run(t, "admin", "takemoney", "bob, 5000")
	assert.Equal(t, "❌ Insufficient funds.", resp.last(t).message)

	env.run(t, "admin", "takemoney", "bob, 400")
	balance, err = env.ledger.GetBalance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(600), balance)
}

func TestRouter_TransferAndBalance(t *testing.T) {
	env := newTestEnv(t, models.Account{UserID: "alice", Balance: 100})

	resp := env.run(t, "alice", "transfer", "bob, 30")
	assert.Contains(t, resp.last(t).message, "transferred **30 coins** to **bob**")

	resp = env.run(t, "bob", "atm", "")
	assert.Equal(t, "**bob** has **30 coins** and **0 coins** in the bank.", resp.last(t).message)

	resp = env.run(t, "bob", "balance", "alice")
	assert.Equal(t, "**alice** has **70 coins** and **0 coins** in the bank.", resp.last(t).message)
}

func TestRouter_UserErrorsAreReplied(t *testing.T) {
	env := newTestEnv(t, models.Account{UserID: "alice", Balance: 100})

	tests := []struct {
		name    string
		command string
		args    string
		want    string
	}{
		{"self transfer", "transfermoney", "alice, 10", "❌ You can't transfer money to yourself."},
		{"bad amount", "transfermoney", "bob, ten", "❌ Amount must be a positive whole number."},
		{"missing args", "transfermoney", "bob", "❌ Usage: transfermoney user, amount"},
		{"overdraft", "transfermoney", "bob, 101", "❌ Insufficient funds."},
		{"range too wide", "richestusers", "1-500", "❌ Invalid range. Use start-end with at most 100 entries, e.g. 1-10."},
		{"no game", "dice", "join", "❌ There is no dice game to join in this room."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.run(t, "alice", tt.command, tt.args)
			assert.Equal(t, tt.want, resp.last(t).message)
			assert.True(t, resp.last(t).ephemeral)
		})
	}

	balance, err := env.ledger.GetBalance(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestRouter_SystemErrorHidesDetails(t *testing.T) {
	router := NewRouter(nil, nil)
	router.Register(staticFeature{common.Command{
		Name: "boom",
		Handler: func(ctx context.Context, inv *common.Invocation, r common.Responder) error {
			return errors.New("disk on fire")
		},
	}})

	resp := &fakeResponder{}
	require.True(t, router.Dispatch(context.Background(), &common.Invocation{UserID: "alice", Command: "boom"}, resp))
	assert.Equal(t, "❌ Something went wrong. Please try again later.", resp.last(t).message)
}

func TestRouter_RateLimited(t *testing.T) {
	router := NewRouter(nil, NewCommandLimiter(0.001, 2))
	calls := 0
	router.Register(staticFeature{common.Command{
		Name: "ping",
		Handler: func(ctx context.Context, inv *common.Invocation, r common.Responder) error {
			calls++
			return r.Reply("pong", false)
		},
	}})

	for i := 0; i < 3; i++ {
		router.Dispatch(context.Background(), &common.Invocation{UserID: "alice", Command: "ping"}, &fakeResponder{})
	}
	assert.Equal(t, 2, calls)

	// other users have their own bucket
	router.Dispatch(context.Background(), &common.Invocation{UserID: "bob", Command: "ping"}, &fakeResponder{})
	assert.Equal(t, 3, calls)
}

func TestRouter_BankAndSettings(t *testing.T) {
	env := newTestEnv(t, models.Account{UserID: "alice", Balance: 1000})

	resp := env.run(t, "alice", "bank", "deposit 500")
	assert.Equal(t, "🏦 Deposited **500 coins**. Balance: **500 coins**, bank: **500 coins**.", resp.last(t).message)

	resp = env.run(t, "alice", "bank", "withdraw 100")
	assert.Contains(t, resp.last(t).message, "received **98 coins**")

	resp = env.run(t, "alice", "setinterest", "0.1, 1000")
	assert.Equal(t, "❌ You don't have permission to use this command.", resp.last(t).message)

	resp = env.run(t, "admin", "setinterest", "10%, 3600000")
	assert.Equal(t, "✅ Interest set to **10%** every **1 hour**.", resp.last(t).message)
	assert.Equal(t, 0.1, env.svc.Settings.Get().InterestRate)

	resp = env.run(t, "admin", "setinterest", "0.1, 10")
	assert.Equal(t, "❌ Interest period must be at least 1000 ms.", resp.last(t).message)
}

func TestRouter_SetInterestPeriodBounds(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		args string
		want string
	}{
		{"negative", "0.1, -5", "❌ Interest period must be at least 1000 ms."},
		{"overflows duration", "0.1, 9223372036854775807", "❌ Period can be at most 9223372036854 ms."},
		{"just past the limit", "0.1, 9223372036855", "❌ Period can be at most 9223372036854 ms."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.run(t, "admin", "setinterest", tt.args)
			assert.Equal(t, tt.want, resp.last(t).message)
		})
	}
	assert.Equal(t, 24*time.Hour, env.svc.Settings.Get().InterestPeriod)

	resp := env.run(t, "admin", "setinterest", "0.1, 9223372036854")
	assert.Contains(t, resp.last(t).message, "✅ Interest set to **10%**")
	assert.Greater(t, env.svc.Settings.Get().InterestPeriod, time.Duration(0))
}

func TestRouter_GiveMoneyOverflowIsReported(t *testing.T) {
	env := newTestEnv(t, models.Account{UserID: "whale", Balance: math.MaxInt64 - 10})

	resp := env.run(t, "admin", "givemoney", "whale, 11")
	assert.Equal(t, "❌ That amount is too large for the ledger to hold.", resp.last(t).message)

	balance, err := env.ledger.GetBalance(context.Background(), "whale")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64-10), balance)
}

func TestRouter_DiceGame(t *testing.T) {
	env := newTestEnv(t,
		models.Account{UserID: "alice", Balance: 100},
		models.Account{UserID: "bob", Balance: 100},
	)
	rolls := []int{6, 2}
	env.dice.SetRoller(func() int {
		r := rolls[0]
		rolls = rolls[1:]
		return r
	})

	resp := env.run(t, "alice", "dice", "start 10")
	assert.Contains(t, resp.last(t).message, "**alice** started a dice game for **10 coins**")

	resp = env.run(t, "bob", "dice", "join")
	assert.Equal(t, "🎲 **alice** rolled **6**, **bob** rolled **2**. **alice** wins **20 coins**!", resp.last(t).message)

	ctx := context.Background()
	alice, _ := env.ledger.GetBalance(ctx, "alice")
	bob, _ := env.ledger.GetBalance(ctx, "bob")
	assert.Equal(t, int64(110), alice)
	assert.Equal(t, int64(90), bob)
}

func TestRouter_Leaderboard(t *testing.T) {
	env := newTestEnv(t,
		models.Account{UserID: "alice", Balance: 100, Bank: 1000},
		models.Account{UserID: "bob", Balance: 500},
	)

	resp := env.run(t, "alice", "richestusers", "")
	assert.Equal(t, "**💰 Richest users 1-10**\n"+
		"1st **alice**: 1,100 coins (balance 100, bank 1,000)\n"+
		"2nd **bob**: 500 coins (balance 500, bank 0)", resp.last(t).message)

	resp = env.run(t, "alice", "leaderboard", "2")
	assert.Equal(t, "**🏆 Leaderboard, page 2 of 1**\nNobody here yet.", resp.last(t).message)
}

func TestRouter_HelpListsCommands(t *testing.T) {
	env := newTestEnv(t)

	resp := env.run(t, "alice", "economyhelp", "")
	msg := resp.last(t).message
	assert.Contains(t, msg, "`!transfermoney user, amount`")
	assert.Contains(t, msg, "(also !transfer)")
	assert.Contains(t, msg, "[admin]")
}

type staticFeature struct {
	cmd common.Command
}

func (f staticFeature) Commands() []common.Command {
	return []common.Command{f.cmd}
}

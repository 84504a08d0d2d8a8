package repository

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"economy/models"
	"economy/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONAccountRepository_MissingFileIsEmpty(t *testing.T) {
	repo := NewJSONAccountRepository(filepath.Join(t.TempDir(), "ledger.json"))

	accounts, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestJSONAccountRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "ledger.json")
	repo := NewJSONAccountRepository(path)

	require.NoError(t, repo.Upsert(ctx, []*models.Account{
		{UserID: "alice", Balance: 10, Bank: 5},
		{UserID: "bob", Balance: 3},
	}))
	require.NoError(t, repo.Upsert(ctx, []*models.Account{
		{UserID: "bob", Balance: 7, Bank: 1},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"alice": {"balance": 10, "bank": 5}, "bob": {"balance": 7, "bank": 1}}`, string(data))

	accounts, err := NewJSONAccountRepository(path).LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "alice", accounts[0].UserID)
	assert.Equal(t, int64(10), accounts[0].Balance)
	assert.Equal(t, int64(5), accounts[0].Bank)
	assert.Equal(t, int64(7), accounts[1].Balance)
}

func TestJSONAccountRepository_LegacyFlatLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"alice": 10, "bob": {"balance": 4, "bank": 2}, "carol": 2.9}`), 0o644))

	accounts, err := NewJSONAccountRepository(path).LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	byID := make(map[string]*models.Account)
	for _, acc := range accounts {
		byID[acc.UserID] = acc
	}
	assert.Equal(t, int64(10), byID["alice"].Balance)
	assert.Equal(t, int64(0), byID["alice"].Bank)
	assert.Equal(t, int64(4), byID["bob"].Balance)
	assert.Equal(t, int64(2), byID["bob"].Bank)
	assert.Equal(t, int64(2), byID["carol"].Balance)
}

func TestJSONAccountRepository_FractionalObjectValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"alice": {"balance": 10.5, "bank": 0}, "bob": {"balance": 500, "bank": 20.99}, "carol": {"balance": 1e300}}`), 0o644))

	accounts, err := NewJSONAccountRepository(path).LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	assert.Equal(t, "alice", accounts[0].UserID)
	assert.Equal(t, int64(10), accounts[0].Balance)
	assert.Equal(t, int64(0), accounts[0].Bank)
	assert.Equal(t, int64(500), accounts[1].Balance)
	assert.Equal(t, int64(20), accounts[1].Bank)
	assert.Equal(t, int64(math.MaxInt64), accounts[2].Balance)

	// Nothing was moved aside
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestJSONAccountRepository_DuplicateSpellingsMerged(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Ash": {"balance": 100, "bank": 4}, "ash": 7, "B-o-b": {"balance": 3}, "!!!": 50}`), 0o644))

	repo := NewJSONAccountRepository(path)
	accounts, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "ash", accounts[0].UserID)
	assert.Equal(t, int64(107), accounts[0].Balance)
	assert.Equal(t, int64(4), accounts[0].Bank)
	assert.Equal(t, "bob", accounts[1].UserID)

	// The next write drops the old spellings
	require.NoError(t, repo.Upsert(ctx, []*models.Account{{UserID: "ash", Balance: 108, Bank: 4}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ash": {"balance": 108, "bank": 4}, "bob": {"balance": 3, "bank": 0}}`, string(data))
}

func TestJSONAccountRepository_LedgerReloadKeepsMergedBalance(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Ash": {"balance": 100, "bank": 0}}`), 0o644))

	ledger, err := service.NewLedger(ctx, NewJSONAccountRepository(path), nil)
	require.NoError(t, err)
	balance, err := ledger.GiveMoney(ctx, "ash", 1, "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(101), balance)

	reloaded, err := service.NewLedger(ctx, NewJSONAccountRepository(path), nil)
	require.NoError(t, err)
	balance, err = reloaded.GetBalance(ctx, "ash")
	require.NoError(t, err)
	assert.Equal(t, int64(101), balance)
	assert.Equal(t, 1, reloaded.Count())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ash": {"balance": 101, "bank": 0}}`, string(data))
}

func TestJSONAccountRepository_CorruptFileIsPreserved(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"alice": {"balance": 10`), 0o644))

	repo := NewJSONAccountRepository(path)
	accounts, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var preserved []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "ledger.json.corrupt-") {
			preserved = append(preserved, e.Name())
		}
	}
	require.Len(t, preserved, 1)

	original, err := os.ReadFile(filepath.Join(dir, preserved[0]))
	require.NoError(t, err)
	assert.Equal(t, `{"alice": {"balance": 10`, string(original))

	// The next save starts a fresh document
	require.NoError(t, repo.Upsert(ctx, []*models.Account{{UserID: "bob", Balance: 1}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bob": {"balance": 1, "bank": 0}}`, string(data))
}

func TestJSONAccountRepository_NegativeValuesClamped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"alice": {"balance": -5, "bank": 3}}`), 0o644))

	accounts, err := NewJSONAccountRepository(path).LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, int64(0), accounts[0].Balance)
	assert.Equal(t, int64(3), accounts[0].Bank)
}

func TestJSONAccountRepository_WriteFailureKeepsDocument(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.json")
	repo := NewJSONAccountRepository(path)
	require.NoError(t, repo.Upsert(ctx, []*models.Account{{UserID: "alice", Balance: 10}}))

	// Replace the target with a directory so the rename fails
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "keep"), nil, 0o644))

	err := repo.Upsert(ctx, []*models.Account{{UserID: "bob", Balance: 5}})
	require.Error(t, err)

	require.NoError(t, os.RemoveAll(path))
	require.NoError(t, repo.Upsert(ctx, []*models.Account{{UserID: "carol", Balance: 1}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"alice": {"balance": 10, "bank": 0}, "carol": {"balance": 1, "bank": 0}}`, string(data))
}

func TestJSONSettingsRepository(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.json")
	repo := NewJSONSettingsRepository(path)

	settings, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, settings)

	require.NoError(t, repo.Save(ctx, &models.EconomySettings{InterestRate: 0.05, InterestPeriod: 24 * time.Hour}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"interestRate": 0.05, "interestPeriod": 86400000}`, string(data))

	settings, err = repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, 0.05, settings.InterestRate)
	assert.Equal(t, 24*60*60*int64(1000), settings.InterestPeriodMillis())
}

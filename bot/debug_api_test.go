package bot

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"economy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDebugAPI(t *testing.T, accounts ...models.Account) (*DebugAPI, *testEnv) {
	t.Helper()
	env := newTestEnv(t, accounts...)
	return NewDebugAPI("127.0.0.1:0", "!", env.router, env.ledger, env.dice), env
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, data any) DebugResponse {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Error   string          `json:"error"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return DebugResponse{Success: raw.Success, Error: raw.Error}
}

func TestDebugAPI_Health(t *testing.T) {
	api, _ := newTestDebugAPI(t)

	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestDebugAPI_Account(t *testing.T) {
	api, _ := newTestDebugAPI(t, models.Account{UserID: "alice", Balance: 40, Bank: 2})

	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/accounts/Alice", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var acc models.Account
	resp := decodeResponse(t, rec, &acc)
	assert.True(t, resp.Success)
	assert.Equal(t, "alice", acc.UserID)
	assert.Equal(t, int64(40), acc.Balance)
	assert.Equal(t, int64(2), acc.Bank)
}

func TestDebugAPI_Accounts(t *testing.T) {
	api, _ := newTestDebugAPI(t,
		models.Account{UserID: "bob", Balance: 20},
		models.Account{UserID: "alice", Balance: 10},
	)

	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/accounts", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var accounts []models.Account
	decodeResponse(t, rec, &accounts)
	require.Len(t, accounts, 2)
	assert.Equal(t, "alice", accounts[0].UserID)
	assert.Equal(t, "bob", accounts[1].UserID)
}

func TestDebugAPI_Leaderboard(t *testing.T) {
	api, _ := newTestDebugAPI(t,
		models.Account{UserID: "alice", Balance: 10},
		models.Account{UserID: "bob", Balance: 20},
	)

	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/leaderboard?start=1&end=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []models.LeaderboardEntry
	decodeResponse(t, rec, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "bob", entries[0].UserID)

	rec = httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/leaderboard?start=5&end=1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDebugAPI_CommandAndDice(t *testing.T) {
	api, env := newTestDebugAPI(t, models.Account{UserID: "alice", Balance: 100})

	body, err := json.Marshal(DebugCommand{Room: "general", User: "alice", Text: "!dice start 25"})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/command", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var replies []DebugReply
	decodeResponse(t, rec, &replies)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Message, "started a dice game")

	rec = httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/dice/general", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var game models.DiceGame
	decodeResponse(t, rec, &game)
	assert.Equal(t, "alice", game.Host)
	assert.Equal(t, int64(25), game.Bet)

	balance, err := env.ledger.GetBalance(t.Context(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(75), balance)

	rec = httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/dice/elsewhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDebugAPI_CommandErrors(t *testing.T) {
	api, _ := newTestDebugAPI(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", "{", http.StatusBadRequest},
		{"missing user", `{"room":"general","text":"!atm"}`, http.StatusBadRequest},
		{"unknown command", `{"room":"general","user":"alice","text":"!nope"}`, http.StatusNotFound},
		{"unprefixed command", `{"room":"general","user":"alice","text":"atm"}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			api.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/command", bytes.NewBufferString(tt.body)))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

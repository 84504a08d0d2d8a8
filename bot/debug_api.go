package bot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"economy/bot/common"
	"economy/models"
	"economy/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// DebugCommand is a chat command submitted over HTTP
type DebugCommand struct {
	Room string `json:"room"`
	User string `json:"user"`
	Text string `json:"text"`
}

// DebugReply is one reply produced by a debug command
type DebugReply struct {
	Message   string `json:"message"`
	Ephemeral bool   `json:"ephemeral"`
}

// DebugResponse represents the response from a debug endpoint
type DebugResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// DebugAPI exposes ledger state and a command console on a local HTTP port
type DebugAPI struct {
	router *Router
	ledger *service.Ledger
	dice   *service.DiceService
	prefix string
	server *http.Server
}

func NewDebugAPI(addr, prefix string, router *Router, ledger *service.Ledger, dice *service.DiceService) *DebugAPI {
	api := &DebugAPI{
		router: router,
		ledger: ledger,
		dice:   dice,
		prefix: prefix,
	}
	api.server = &http.Server{
		Addr:         addr,
		Handler:      api.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return api
}

// Routes builds the HTTP handler
func (a *DebugAPI) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/debug", func(r chi.Router) {
		r.Get("/accounts", a.handleAccounts)
		r.Get("/accounts/{userID}", a.handleAccount)
		r.Get("/leaderboard", a.handleLeaderboard)
		r.Get("/dice", a.handleDiceGames)
		r.Get("/dice/{roomID}", a.handleDiceGame)
		r.Post("/command", a.handleCommand)
	})
	return r
}

// Start serves until Shutdown is called
func (a *DebugAPI) Start() error {
	log.WithField("addr", a.server.Addr).Info("Debug API listening")
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *DebugAPI) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

func (a *DebugAPI) handleAccounts(w http.ResponseWriter, r *http.Request) {
	respondWithData(w, a.ledger.Snapshot())
}

func (a *DebugAPI) handleAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := a.ledger.GetAccount(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondWithError(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondWithData(w, acc)
}

func (a *DebugAPI) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	start, end := common.DefaultRichestStart, common.DefaultRichestEnd
	if v := r.URL.Query().Get("start"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, "start must be a number", http.StatusBadRequest)
			return
		}
		start = n
	}
	if v := r.URL.Query().Get("end"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, "end must be a number", http.StatusBadRequest)
			return
		}
		end = n
	}

	entries, err := a.ledger.GetRichestUsers(r.Context(), start, end)
	if err != nil {
		respondWithError(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondWithData(w, entries)
}

func (a *DebugAPI) handleDiceGames(w http.ResponseWriter, r *http.Request) {
	games := a.dice.ActiveGames()
	if games == nil {
		games = []models.DiceGame{}
	}
	respondWithData(w, games)
}

func (a *DebugAPI) handleDiceGame(w http.ResponseWriter, r *http.Request) {
	game, ok := a.dice.Active(chi.URLParam(r, "roomID"))
	if !ok {
		respondWithError(w, service.ErrNoActiveGame.Error(), http.StatusNotFound)
		return
	}
	respondWithData(w, game)
}

func (a *DebugAPI) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd DebugCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondWithError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if cmd.Room == "" || cmd.User == "" {
		respondWithError(w, "room and user are required", http.StatusBadRequest)
		return
	}

	name, args, ok := common.ParseCommand(cmd.Text, a.prefix, "/")
	if !ok {
		name, args, ok = common.ParseCommand("/"+strings.TrimSpace(cmd.Text), "/")
	}
	if !ok {
		respondWithError(w, "text must contain a command", http.StatusBadRequest)
		return
	}

	resp := &bufferResponder{}
	inv := &common.Invocation{Room: cmd.Room, UserID: cmd.User, Command: name, Args: args}
	if !a.router.Dispatch(r.Context(), inv, resp) {
		respondWithError(w, "Unknown command: "+name, http.StatusNotFound)
		return
	}
	respondWithData(w, resp.Replies())
}

// bufferResponder collects replies for the HTTP response
type bufferResponder struct {
	mu      sync.Mutex
	replies []DebugReply
}

func (b *bufferResponder) Reply(message string, ephemeral bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies = append(b.replies, DebugReply{Message: message, Ephemeral: ephemeral})
	return nil
}

func (b *bufferResponder) Replies() []DebugReply {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]DebugReply(nil), b.replies...)
}

func respondWithData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DebugResponse{
		Success: true,
		Data:    data,
	})
}

func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(DebugResponse{
		Success: false,
		Error:   message,
	})
}

package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"economy/events"
	"economy/models"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultDiceTimeout is how long a host waits for an opponent before the bet is refunded
	DefaultDiceTimeout = 60 * time.Second

	// diceRefundRetry is the delay before a failed timeout refund is attempted again
	diceRefundRetry = 5 * time.Second
)

// DiceRoller returns a single die roll between 1 and 6
type DiceRoller func() int

// RollD6 rolls a fair six-sided die
func RollD6() int {
	return rand.Intn(6) + 1
}

type activeDiceGame struct {
	game  models.DiceGame
	timer *time.Timer
}

// DiceService runs at most one two-player dice wager per room.
// The service lock is always taken before the ledger lock.
type DiceService struct {
	mu      sync.Mutex
	ledger  *Ledger
	games   map[string]*activeDiceGame
	roll    DiceRoller
	timeout time.Duration
	closed  bool
	now     func() time.Time
}

// NewDiceService creates a dice service settling bets through ledger. Game events go out
// through the ledger's publisher once the matching balance change is persisted.
func NewDiceService(ledger *Ledger, timeout time.Duration) *DiceService {
	if timeout <= 0 {
		timeout = DefaultDiceTimeout
	}
	return &DiceService{
		ledger:  ledger,
		games:   make(map[string]*activeDiceGame),
		roll:    RollD6,
		timeout: timeout,
		now:     time.Now,
	}
}

// SetRoller replaces the die used for new rolls
func (s *DiceService) SetRoller(roller DiceRoller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roll = roller
}

// Timeout returns how long a game waits for an opponent
func (s *DiceService) Timeout() time.Duration {
	return s.timeout
}

// Start escrows the host's bet and opens a game in the room
func (s *DiceService) Start(ctx context.Context, room, host string, bet int64) (*models.DiceGame, error) {
	if room == "" {
		return nil, ErrInvalidRoom
	}
	hostID := NormalizeUserID(host)
	if hostID == "" {
		return nil, ErrInvalidUser
	}
	if bet <= 0 {
		return nil, ErrInvalidAmount
	}
	if bet > math.MaxInt64/2 {
		// The pot is twice the bet
		return nil, fmt.Errorf("%w: bet %d", ErrAmountOverflow, bet)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrDiceClosed
	}
	if _, ok := s.games[room]; ok {
		return nil, ErrGameAlreadyActive
	}

	now := s.now().UTC()
	game := models.DiceGame{
		ID:        NewID(),
		RoomID:    room,
		Host:      hostID,
		Bet:       bet,
		State:     models.DiceGameStateAwaitingOpponent,
		CreatedAt: now,
		ExpiresAt: now.Add(s.timeout),
	}

	err := s.ledger.Update(ctx, func(tx *LedgerTx) error {
		if _, err := tx.Debit(hostID, bet, dicePosting(models.TransactionTypeDiceEscrow, &game)); err != nil {
			return err
		}
		tx.Publish(events.DiceGameStartedEvent{Game: game})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to escrow dice bet: %w", err)
	}

	active := &activeDiceGame{game: game}
	gameID := game.ID
	active.timer = time.AfterFunc(s.timeout, func() { s.expire(room, gameID) })
	s.games[room] = active

	log.WithFields(log.Fields{
		"room":    room,
		"game_id": game.ID,
		"host":    hostID,
		"bet":     bet,
	}).Info("Dice game started")
	return &game, nil
}

// Join escrows the opponent's stake, rolls for both players and settles the pot
func (s *DiceService) Join(ctx context.Context, room, opponent string) (*models.DiceResult, error) {
	opponentID := NormalizeUserID(opponent)
	if opponentID == "" {
		return nil, ErrInvalidUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active, ok := s.games[room]
	if !ok {
		return nil, ErrNoActiveGame
	}
	game := active.game
	if game.Host == opponentID {
		return nil, ErrSelfJoin
	}

	hostRoll, opponentRoll := s.roll(), s.roll()
	game.Opponent = opponentID
	game.HostRoll = hostRoll
	game.OpponentRoll = opponentRoll
	game.State = models.DiceGameStateResolved

	result := &models.DiceResult{
		Game:         &game,
		HostRoll:     hostRoll,
		OpponentRoll: opponentRoll,
		Pot:          game.Pot(),
		Tie:          hostRoll == opponentRoll,
	}
	switch {
	case hostRoll > opponentRoll:
		result.Winner, result.Loser = game.Host, opponentID
	case opponentRoll > hostRoll:
		result.Winner, result.Loser = opponentID, game.Host
	}
	game.Winner = result.Winner

	err := s.ledger.Update(ctx, func(tx *LedgerTx) error {
		if _, err := tx.Debit(opponentID, game.Bet, dicePosting(models.TransactionTypeDiceEscrow, &game)); err != nil {
			return err
		}
		if result.Tie {
			for _, player := range []string{game.Host, opponentID} {
				if _, err := tx.Credit(player, game.Bet, dicePosting(models.TransactionTypeDiceRefund, &game)); err != nil {
					return err
				}
			}
		} else {
			payout := dicePosting(models.TransactionTypeDicePayout, &game)
			payout.Metadata["host_roll"] = hostRoll
			payout.Metadata["opponent_roll"] = opponentRoll
			if _, err := tx.Credit(result.Winner, result.Pot, payout); err != nil {
				return err
			}
		}
		tx.Publish(events.DiceGameResolvedEvent{Game: game, Tie: result.Tie, Pot: result.Pot})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to settle dice game: %w", err)
	}

	active.timer.Stop()
	delete(s.games, room)

	log.WithFields(log.Fields{
		"room":          room,
		"game_id":       game.ID,
		"host_roll":     hostRoll,
		"opponent_roll": opponentRoll,
		"winner":        result.Winner,
		"pot":           result.Pot,
	}).Info("Dice game resolved")
	return result, nil
}

// Active returns a copy of the room's open game
func (s *DiceService) Active(room string) (*models.DiceGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, ok := s.games[room]
	if !ok {
		return nil, false
	}
	game := active.game
	return &game, true
}

// ActiveGames returns every open game ordered by room
func (s *DiceService) ActiveGames() []models.DiceGame {
	s.mu.Lock()
	defer s.mu.Unlock()

	games := make([]models.DiceGame, 0, len(s.games))
	for _, active := range s.games {
		games = append(games, active.game)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].RoomID < games[j].RoomID })
	return games
}

// expire refunds the host when nobody joined in time. It is a no-op if the
// game it was armed for has already been settled.
func (s *DiceService) expire(room, gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, ok := s.games[room]
	if !ok || active.game.ID != gameID {
		return
	}

	game := active.game
	game.State = models.DiceGameStateCancelled
	err := s.ledger.Update(context.Background(), func(tx *LedgerTx) error {
		refund := dicePosting(models.TransactionTypeDiceRefund, &game)
		refund.Metadata["reason"] = "timeout"
		if _, err := tx.Credit(game.Host, game.Bet, refund); err != nil {
			return err
		}
		tx.Publish(events.DiceGameExpiredEvent{Game: game})
		return nil
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"room":    room,
			"game_id": gameID,
		}).Error("Failed to refund expired dice game, retrying")
		active.timer = time.AfterFunc(diceRefundRetry, func() { s.expire(room, gameID) })
		return
	}

	delete(s.games, room)
	log.WithFields(log.Fields{
		"room":    room,
		"game_id": gameID,
		"host":    game.Host,
		"bet":     game.Bet,
	}).Info("Dice game expired, bet refunded")
}

// Close stops every timer and refunds all pending hosts. Later calls to Start fail.
func (s *DiceService) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if len(s.games) == 0 {
		return nil
	}

	err := s.ledger.Update(ctx, func(tx *LedgerTx) error {
		for _, active := range s.games {
			refund := dicePosting(models.TransactionTypeDiceRefund, &active.game)
			refund.Metadata["reason"] = "shutdown"
			if _, err := tx.Credit(active.game.Host, active.game.Bet, refund); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to refund pending dice games: %w", err)
	}

	for room, active := range s.games {
		active.timer.Stop()
		delete(s.games, room)
	}
	log.Info("Dice games closed, pending bets refunded")
	return nil
}

func dicePosting(txType models.TransactionType, game *models.DiceGame) Posting {
	return Posting{
		Type:        txType,
		Metadata:    map[string]any{"room": game.RoomID, "bet": game.Bet},
		RelatedID:   game.ID,
		RelatedType: models.RelatedTypeDiceGame,
	}
}

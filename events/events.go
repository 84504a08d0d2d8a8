package events

import (
	"context"
	"sync"

	"economy/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange    EventType = "balance_change"
	EventTypeAccountCreated   EventType = "account_created"
	EventTypeInterestApplied  EventType = "interest_applied"
	EventTypeSettingsChanged  EventType = "settings_changed"
	EventTypeDiceGameStarted  EventType = "dice_game_started"
	EventTypeDiceGameResolved EventType = "dice_game_resolved"
	EventTypeDiceGameExpired  EventType = "dice_game_expired"
)

// AllEventTypes lists every event type emitted by the economy
var AllEventTypes = []EventType{
	EventTypeBalanceChange,
	EventTypeAccountCreated,
	EventTypeInterestApplied,
	EventTypeSettingsChanged,
	EventTypeDiceGameStarted,
	EventTypeDiceGameResolved,
	EventTypeDiceGameExpired,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance or bank change that occurred
type BalanceChangeEvent struct {
	UserID          string                 `json:"userId"`
	OldBalance      int64                  `json:"oldBalance"`
	NewBalance      int64                  `json:"newBalance"`
	OldBank         int64                  `json:"oldBank"`
	NewBank         int64                  `json:"newBank"`
	ChangeAmount    int64                  `json:"changeAmount"`
	TransactionType models.TransactionType `json:"transactionType"`
	Metadata        map[string]any         `json:"metadata,omitempty"`
	RelatedID       string                 `json:"relatedId,omitempty"`
	RelatedType     models.RelatedType     `json:"relatedType,omitempty"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// AccountCreatedEvent represents the lazy creation of an account on first credit
type AccountCreatedEvent struct {
	UserID string `json:"userId"`
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// InterestAppliedEvent represents a completed interest run
type InterestAppliedEvent struct {
	Run *models.InterestRun `json:"run"`
}

func (e InterestAppliedEvent) Type() EventType {
	return EventTypeInterestApplied
}

// SettingsChangedEvent represents an update to the economy settings
type SettingsChangedEvent struct {
	Settings models.EconomySettings `json:"settings"`
}

func (e SettingsChangedEvent) Type() EventType {
	return EventTypeSettingsChanged
}

// DiceGameStartedEvent represents a host opening a dice game in a room
type DiceGameStartedEvent struct {
	Game models.DiceGame `json:"game"`
}

func (e DiceGameStartedEvent) Type() EventType {
	return EventTypeDiceGameStarted
}

// DiceGameResolvedEvent represents a dice game settled by a roll
type DiceGameResolvedEvent struct {
	Game models.DiceGame `json:"game"`
	Tie  bool            `json:"tie"`
	Pot  int64           `json:"pot"`
}

func (e DiceGameResolvedEvent) Type() EventType {
	return EventTypeDiceGameResolved
}

// DiceGameExpiredEvent represents a dice game cancelled because nobody joined
type DiceGameExpiredEvent struct {
	Game models.DiceGame `json:"game"`
}

func (e DiceGameExpiredEvent) Type() EventType {
	return EventTypeDiceGameExpired
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Publisher accepts events for delivery
type Publisher interface {
	Publish(event Event)
}

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	wg       sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Publish emits the event immediately, satisfying Publisher
func (b *Bus) Publish(event Event) {
	b.Emit(context.Background(), event)
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Call handlers asynchronously to avoid blocking the ledger
	for i, handler := range handlers {
		b.wg.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started so far has returned
func (b *Bus) Wait() {
	b.wg.Wait()
}

// TransactionalBus holds events raised during a ledger update until it is committed.
type TransactionalBus struct {
	real    Publisher
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real Publisher) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Pending returns the number of events waiting for Flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush is called after the update has been persisted.
func (b *TransactionalBus) Flush() {
	if b.real != nil {
		for _, ev := range b.pending {
			b.real.Publish(ev)
		}
	}
	b.pending = nil
}

// Discard drops pending events after a failed update.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

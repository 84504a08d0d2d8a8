package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"economy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventDeliveryIntegration tests the complete event flow from TransactionalBus to main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BalanceChangeEvent, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		balanceEvent, ok := event.(BalanceChangeEvent)
		if !ok {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
			return
		}
		eventReceived <- balanceEvent
	})

	testEvent := BalanceChangeEvent{
		UserID:          "alice",
		OldBalance:      1000,
		NewBalance:      1500,
		TransactionType: models.TransactionTypeGive,
		ChangeAmount:    500,
	}

	transactionalBus.Publish(testEvent)
	assert.Equal(t, 1, transactionalBus.Pending())

	transactionalBus.Flush()
	assert.Equal(t, 0, transactionalBus.Pending())

	select {
	case receivedEvent := <-eventReceived:
		assert.Equal(t, testEvent, receivedEvent)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

func TestTransactionalBus_DiscardDropsEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var mu sync.Mutex
	received := 0
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		mu.Lock()
		received++
		mu.Unlock()
	})

	transactionalBus.Publish(BalanceChangeEvent{UserID: "bob", ChangeAmount: 10})
	transactionalBus.Publish(BalanceChangeEvent{UserID: "bob", ChangeAmount: 20})
	transactionalBus.Discard()
	transactionalBus.Flush()
	mainBus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, received)
}

func TestBus_MultipleHandlersAndTypes(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	seen := map[EventType]int{}
	record := func(ctx context.Context, event Event) {
		mu.Lock()
		defer mu.Unlock()
		seen[event.Type()]++
	}

	bus.Subscribe(EventTypeBalanceChange, record)
	bus.Subscribe(EventTypeBalanceChange, record)
	bus.Subscribe(EventTypeDiceGameResolved, record)

	bus.Publish(BalanceChangeEvent{UserID: "carol"})
	bus.Publish(DiceGameResolvedEvent{Game: models.DiceGame{ID: "g1"}, Pot: 20})
	bus.Publish(InterestAppliedEvent{Run: &models.InterestRun{}}) // no subscribers
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, seen[EventTypeBalanceChange])
	assert.Equal(t, 1, seen[EventTypeDiceGameResolved])
	assert.Equal(t, 0, seen[EventTypeInterestApplied])
}

func TestBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewBus()
	done := make(chan struct{})

	bus.Subscribe(EventTypeAccountCreated, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeAccountCreated, func(ctx context.Context, event Event) {
		close(done)
	})

	require.NotPanics(t, func() {
		bus.Publish(AccountCreatedEvent{UserID: "dave"})
		bus.Wait()
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second handler did not run")
	}
}

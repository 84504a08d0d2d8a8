package service

import (
	"context"
	"sort"
	"sync"

	"economy/events"
	"economy/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) LoadAll(ctx context.Context) ([]*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Upsert(ctx context.Context, accounts []*models.Account) error {
	args := m.Called(ctx, accounts)
	return args.Error(0)
}

// MockSettingsRepository is a mock implementation of SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context) (*models.EconomySettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EconomySettings), args.Error(1)
}

func (m *MockSettingsRepository) Save(ctx context.Context, settings *models.EconomySettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockInterestRunRepository is a mock implementation of InterestRunRepository
type MockInterestRunRepository struct {
	mock.Mock
}

func (m *MockInterestRunRepository) Create(ctx context.Context, run *models.InterestRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockInterestRunRepository) GetLatest(ctx context.Context) (*models.InterestRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InterestRun), args.Error(1)
}

// MemoryAccountRepository keeps accounts in memory. Saves copy their input so tests can
// inspect exactly what was persisted.
type MemoryAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	saves    int
}

// NewMemoryAccountRepository creates a store seeded with accounts
func NewMemoryAccountRepository(accounts ...models.Account) *MemoryAccountRepository {
	r := &MemoryAccountRepository{accounts: make(map[string]models.Account)}
	for _, acc := range accounts {
		r.accounts[acc.UserID] = acc
	}
	return r
}

func (r *MemoryAccountRepository) LoadAll(ctx context.Context) ([]*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts := make([]*models.Account, 0, len(r.accounts))
	for _, acc := range r.accounts {
		acc := acc
		accounts = append(accounts, &acc)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].UserID < accounts[j].UserID })
	return accounts, nil
}

func (r *MemoryAccountRepository) Upsert(ctx context.Context, accounts []*models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, acc := range accounts {
		r.accounts[acc.UserID] = *acc
	}
	r.saves++
	return nil
}

// Stored returns the persisted copy of an account
func (r *MemoryAccountRepository) Stored(userID string) (models.Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[userID]
	return acc, ok
}

// Saves returns how many times Upsert was called
func (r *MemoryAccountRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// MemorySettingsRepository keeps settings in memory
type MemorySettingsRepository struct {
	mu       sync.Mutex
	settings *models.EconomySettings
}

func (r *MemorySettingsRepository) Get(ctx context.Context) (*models.EconomySettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settings == nil {
		return nil, nil
	}
	s := *r.settings
	return &s, nil
}

func (r *MemorySettingsRepository) Save(ctx context.Context, settings *models.EconomySettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := *settings
	r.settings = &s
	return nil
}

// RecordingPublisher collects published events synchronously
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingPublisher) Publish(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// Events returns the published events of type t
func (p *RecordingPublisher) Events(t events.EventType) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	var matched []events.Event
	for _, e := range p.events {
		if e.Type() == t {
			matched = append(matched, e)
		}
	}
	return matched
}

// Reset forgets every recorded event
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"economy/models"
	"economy/service"

	log "github.com/sirupsen/logrus"
)

// accountRecord is the per-user value in the ledger document
type accountRecord struct {
	Balance int64 `json:"balance"`
	Bank    int64 `json:"bank"`
}

// UnmarshalJSON also accepts the older flat layout where the value is just the balance.
// Fractional amounts in either layout are floored.
func (r *accountRecord) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var amounts struct {
			Balance float64 `json:"balance"`
			Bank    float64 `json:"bank"`
		}
		if err := json.Unmarshal(data, &amounts); err != nil {
			return err
		}
		*r = accountRecord{Balance: floorAmount(amounts.Balance), Bank: floorAmount(amounts.Bank)}
		return nil
	}

	var balance float64
	if err := json.Unmarshal(data, &balance); err != nil {
		return fmt.Errorf("account value must be an object or a number: %w", err)
	}
	*r = accountRecord{Balance: floorAmount(balance)}
	return nil
}

// floorAmount converts a stored amount to whole units, saturating at the int64 range
func floorAmount(v float64) int64 {
	v = math.Floor(v)
	switch {
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	return int64(v)
}

// saturatingAdd adds two non-negative amounts, capping at math.MaxInt64
func saturatingAdd(a, b int64) int64 {
	if b > math.MaxInt64-a {
		return math.MaxInt64
	}
	return a + b
}

// JSONAccountRepository stores the ledger as a single JSON document keyed by user id
type JSONAccountRepository struct {
	mu      sync.Mutex
	path    string
	records map[string]accountRecord
	loaded  bool
}

// NewJSONAccountRepository creates a repository backed by the file at path
func NewJSONAccountRepository(path string) *JSONAccountRepository {
	return &JSONAccountRepository{path: path}
}

// Path returns the ledger file location
func (r *JSONAccountRepository) Path() string {
	return r.path
}

// load reads the document once. Keys are normalized and spellings of the same user are merged,
// so the next write drops the old spellings. Negative amounts are clamped to zero.
func (r *JSONAccountRepository) load() error {
	if r.loaded {
		return nil
	}
	raw := make(map[string]accountRecord)
	found, err := readJSONFile(r.path, &raw)
	if err != nil {
		return err
	}
	if !found {
		raw = nil
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make(map[string]accountRecord, len(raw))
	for _, key := range keys {
		rec := raw[key]
		userID := service.NormalizeUserID(key)
		if userID == "" {
			log.WithField("key", key).Warn("Dropping ledger entry with empty user id")
			continue
		}
		if rec.Balance < 0 || rec.Bank < 0 {
			log.WithFields(log.Fields{
				"user_id": key,
				"balance": rec.Balance,
				"bank":    rec.Bank,
			}).Warn("Clamping negative amounts in ledger file")
			rec.Balance, rec.Bank = max(rec.Balance, 0), max(rec.Bank, 0)
		}
		if existing, ok := records[userID]; ok {
			log.WithFields(log.Fields{
				"user_id": userID,
				"key":     key,
			}).Warn("Merging duplicate spelling in ledger file")
			rec.Balance = saturatingAdd(existing.Balance, rec.Balance)
			rec.Bank = saturatingAdd(existing.Bank, rec.Bank)
		}
		records[userID] = rec
	}

	r.records = records
	r.loaded = true
	return nil
}

// LoadAll returns every account in the document ordered by user id
func (r *JSONAccountRepository) LoadAll(ctx context.Context) ([]*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.loaded = false
	if err := r.load(); err != nil {
		return nil, err
	}

	accounts := make([]*models.Account, 0, len(r.records))
	for userID, rec := range r.records {
		accounts = append(accounts, &models.Account{UserID: userID, Balance: rec.Balance, Bank: rec.Bank})
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].UserID < accounts[j].UserID })

	log.WithFields(log.Fields{
		"path":     r.path,
		"accounts": len(accounts),
	}).Debug("Loaded ledger file")
	return accounts, nil
}

// Upsert merges accounts into the document and rewrites it. On failure the document is unchanged.
func (r *JSONAccountRepository) Upsert(ctx context.Context, accounts []*models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return err
	}

	next := make(map[string]accountRecord, len(r.records)+len(accounts))
	for userID, rec := range r.records {
		next[userID] = rec
	}
	for _, acc := range accounts {
		next[acc.UserID] = accountRecord{Balance: acc.Balance, Bank: acc.Bank}
	}

	if err := writeJSONFile(r.path, next); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	r.records = next
	return nil
}

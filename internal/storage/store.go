// Package storage persists the expense collection and settings as JSON
// documents under fixed keys, the same layout the web client keeps in
// browser storage.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"moneymood/internal/core"
)

// Storage keys shared with the web client.
const (
	ExpensesKey = "moneymood-expenses"
	SettingsKey = "moneymood-settings"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("not found")

// Store is a minimal key/value document store.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (m *MemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Save(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// LoadExpenses reads the expense array. A missing key yields an empty slice;
// a document that is not a JSON array is an error.
func LoadExpenses(ctx context.Context, s Store) ([]core.Expense, error) {
	raw, err := s.Load(ctx, ExpensesKey)
	if errors.Is(err, ErrNotFound) {
		return []core.Expense{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	var expenses []core.Expense
	if err := json.Unmarshal(raw, &expenses); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	return expenses, nil
}

func SaveExpenses(ctx context.Context, s Store, expenses []core.Expense) error {
	if expenses == nil {
		expenses = []core.Expense{}
	}
	raw, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := s.Save(ctx, ExpensesKey, raw); err != nil {
		return fmt.Errorf("save expenses: %w", err)
	}
	return nil
}

// LoadSettings reads settings merged over the defaults. A missing key yields
// the defaults.
func LoadSettings(ctx context.Context, s Store) (core.Settings, error) {
	raw, err := s.Load(ctx, SettingsKey)
	if errors.Is(err, ErrNotFound) {
		return core.DefaultSettings(), nil
	}
	if err != nil {
		return core.DefaultSettings(), fmt.Errorf("load settings: %w", err)
	}
	settings, err := core.MergeSettings(raw)
	if err != nil {
		return core.DefaultSettings(), fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

func SaveSettings(ctx context.Context, s Store, settings core.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.Save(ctx, SettingsKey, raw); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

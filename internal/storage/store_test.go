package storage

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"moneymood/internal/core"
	"moneymood/internal/log"
)

// StoreTestSuite runs the same checks against every Store implementation.
type StoreTestSuite struct {
	suite.Suite
	newStore func(t *testing.T) Store
	store    Store
	ctx      context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore(s.T())
}

func (s *StoreTestSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *StoreTestSuite) TestLoadMissingKey() {
	_, err := s.store.Load(s.ctx, "missing")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *StoreTestSuite) TestSaveOverwriteDelete() {
	require.NoError(s.T(), s.store.Save(s.ctx, "k", []byte(`{"a":1}`)))
	require.NoError(s.T(), s.store.Save(s.ctx, "k", []byte(`{"a":2}`)))

	got, err := s.store.Load(s.ctx, "k")
	require.NoError(s.T(), err)
	assert.JSONEq(s.T(), `{"a":2}`, string(got))

	require.NoError(s.T(), s.store.Delete(s.ctx, "k"))
	_, err = s.store.Load(s.ctx, "k")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *StoreTestSuite) TestExpensesRoundTrip() {
	empty, err := LoadExpenses(s.ctx, s.store)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), empty)
	assert.NotNil(s.T(), empty)

	expenses := []core.Expense{
		{ID: "a", Amount: 10, Currency: "USD", ConvertedAmount: 1492.54, Category: core.Food,
			Memo: "lunch", Date: core.NewDate(2025, 1, 2), ExchangeRate: 149.254},
		{ID: "b", Amount: 5000, Currency: "JPY", ConvertedAmount: 5000, Category: core.Other,
			Date: core.NewDate(2025, 1, 3), ExchangeRate: 1},
	}
	require.NoError(s.T(), SaveExpenses(s.ctx, s.store, expenses))

	loaded, err := LoadExpenses(s.ctx, s.store)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), expenses, loaded)

	raw, err := s.store.Load(s.ctx, ExpensesKey)
	require.NoError(s.T(), err)
	assert.Contains(s.T(), string(raw), `"convertedAmount":1492.54`)
	assert.Contains(s.T(), string(raw), `"date":"2025-01-02"`)
}

func (s *StoreTestSuite) TestExpensesRejectsNonArray() {
	require.NoError(s.T(), s.store.Save(s.ctx, ExpensesKey, []byte(`{"not":"an array"}`)))
	_, err := LoadExpenses(s.ctx, s.store)
	assert.Error(s.T(), err)
}

func (s *StoreTestSuite) TestSettingsDefaultsAndMerge() {
	settings, err := LoadSettings(s.ctx, s.store)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), core.DefaultSettings(), settings)

	require.NoError(s.T(), s.store.Save(s.ctx, SettingsKey, []byte(`{"language":"en"}`)))
	settings, err = LoadSettings(s.ctx, s.store)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), core.LanguageEN, settings.Language)
	assert.Equal(s.T(), core.ThemeAuto, settings.Theme)

	settings.Theme = core.ThemeDark
	require.NoError(s.T(), SaveSettings(s.ctx, s.store, settings))
	again, err := LoadSettings(s.ctx, s.store)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), settings, again)
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(t *testing.T) Store { return NewMemoryStore() }})
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(t *testing.T) Store {
		store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "moneymood.db"), nil)
		require.NoError(t, err, "failed to create test database")
		return store
	}})
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moneymood.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, SettingsKey, []byte(`{"theme":"light"}`)))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	defer second.Close()

	settings, err := LoadSettings(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, core.ThemeLight, settings.Theme)
}

func TestOpen(t *testing.T) {
	mem, err := Open(MemoryBackend, "", nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, mem)

	sq, err := Open(SQLiteBackend, filepath.Join(t.TempDir(), "open.db"), nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, sq)
	require.NoError(t, sq.Close())

	_, err = Open("sheets", "", nil)
	assert.Error(t, err)
	assert.False(t, BackendType("sheets").IsValid())
}

func TestSQLiteStoreLogsAsStorage(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Component: log.ComponentStorage, Output: &buf})

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "logged.db"), logger)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), ExpensesKey, []byte(`[]`)))
	out := buf.String()
	assert.Contains(t, out, "component=storage")
	assert.Contains(t, out, "Document saved to SQLite")
	assert.Contains(t, out, "bytes=2")
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"moneymood/internal/amqp"
	"moneymood/internal/backup"
	"moneymood/internal/converter"
	"moneymood/internal/core"
	"moneymood/internal/ledger"
	"moneymood/internal/lifestate"
	"moneymood/internal/log"
	"moneymood/internal/storage"
)

var (
	// ErrExpenseNotFound is returned when an id does not match a stored expense.
	ErrExpenseNotFound = errors.New("expense not found")
	// ErrExpenseConflict is returned when the amount or currency of an expense
	// changed while an edit of them was being converted.
	ErrExpenseConflict = errors.New("expense changed during the edit")
)

// Converter values an amount in the home currency.
type Converter interface {
	ToHome(ctx context.Context, amount float64, from string) (converter.Conversion, error)
}

// EventPublisher receives notifications about the expense collection.
// *amqp.Client implements it.
type EventPublisher interface {
	PublishExpenseAdded(ctx context.Context, msg *amqp.ExpenseAddedMessage) error
	PublishLifeStateChanged(ctx context.Context, msg *amqp.LifeStateChangedMessage) error
}

// NewExpense is the user input for a new expense. When AmountText is set it
// is parsed with the form rules and takes precedence over Amount.
type NewExpense struct {
	Amount     float64
	AmountText string
	Currency   string
	Category   core.Category
	Memo       string
	Date       core.Date
}

// ExpenseUpdate holds the fields an edit replaces; nil fields are kept.
// AmountText, when set, is parsed with the form rules and replaces Amount.
type ExpenseUpdate struct {
	Amount     *float64
	AmountText string
	Currency   *string
	Category   *core.Category
	Memo       *string
	Date       *core.Date
}

// ExpenseService owns the expense collection and settings, persists them
// through a Store and publishes events about changes.
type ExpenseService struct {
	mu       sync.RWMutex
	expenses []core.Expense
	settings core.Settings

	converter Converter
	store     storage.Store
	events    EventPublisher
	tracker   *lifestate.Tracker
	logger    *log.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures an ExpenseService.
type Option func(*ExpenseService)

// WithEvents enables event publishing. A nil publisher disables it.
func WithEvents(p EventPublisher) Option {
	return func(s *ExpenseService) { s.events = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *ExpenseService) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *ExpenseService) { s.newID = newID }
}

// NewExpenseService loads the stored expenses and settings.
func NewExpenseService(ctx context.Context, store storage.Store, conv Converter, opts ...Option) (*ExpenseService, error) {
	s := &ExpenseService{
		converter: conv,
		store:     store,
		logger:    log.Discard(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	expenses, err := storage.LoadExpenses(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	settings, err := storage.LoadSettings(ctx, store)
	if err != nil {
		// Unreadable settings are replaced by defaults, as the web client does.
		s.logger.WarnContext(ctx, "Stored settings unreadable, using defaults", log.FieldError, err)
	}

	s.expenses = expenses
	s.settings = settings
	s.tracker = lifestate.NewTracker(lifestate.Classify(ledger.Total(expenses)).State)

	s.logger.InfoContext(ctx, "Expense service ready",
		"expenses", len(expenses),
		log.FieldTier, s.tracker.Current())
	return s, nil
}

// AddExpense validates and converts the input, then stores a new record whose
// converted amount and exchange rate are fixed from now on.
func (s *ExpenseService) AddExpense(ctx context.Context, in NewExpense) (core.Expense, error) {
	if in.AmountText != "" {
		amount, err := core.ParseAmount(in.AmountText)
		if err != nil {
			return core.Expense{}, err
		}
		in.Amount = amount
	}
	today := core.Today(s.now())
	if err := core.ValidateDetails(in.Category, in.Memo, in.Date, today); err != nil {
		return core.Expense{}, err
	}

	conv, err := s.converter.ToHome(ctx, in.Amount, in.Currency)
	if err != nil {
		return core.Expense{}, err
	}
	currency, _ := core.ParseCurrency(in.Currency)

	stamp := s.now().UTC()
	e := core.Expense{
		ID:              s.newID(),
		Amount:          in.Amount,
		Currency:        currency,
		ConvertedAmount: conv.HomeAmount,
		Category:        in.Category,
		Memo:            in.Memo,
		Date:            in.Date,
		ExchangeRate:    conv.Rate,
		CreatedAt:       stamp,
		UpdatedAt:       stamp,
	}

	total, err := s.mutate(ctx, func(list []core.Expense) ([]core.Expense, error) {
		return append(list, e), nil
	})
	if err != nil {
		return core.Expense{}, err
	}

	fields := log.NewFields().
		WithExpense(e.ID, e.Amount, string(e.Currency), e.ConvertedAmount, string(e.Category)).
		WithOperation(log.OpCreate)
	s.logger.InfoContext(ctx, "Expense created", append(fields.ToSlice(),
		log.FieldExchangeRate, e.ExchangeRate,
		log.FieldRateSource, conv.Source)...)

	if s.events != nil {
		msg := amqp.NewExpenseAddedMessage(e.ID, string(e.Currency), e.ConvertedAmount, total)
		if err := s.events.PublishExpenseAdded(ctx, msg); err != nil {
			// The expense is stored; a lost notification is not worth failing the request.
			s.logger.ErrorContext(ctx, "Failed to publish expense added message",
				log.FieldExpenseID, e.ID, log.FieldOperation, log.OpPublish, log.FieldError, err)
		}
	}
	return e, nil
}

// UpdateExpense applies an explicit edit. Only an actual change of amount or
// currency converts the record again; otherwise its converted amount and rate
// stay as they were at creation.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id string, upd ExpenseUpdate) (core.Expense, error) {
	if upd.AmountText != "" {
		amount, err := core.ParseAmount(upd.AmountText)
		if err != nil {
			return core.Expense{}, err
		}
		upd.Amount = &amount
	}

	current, err := s.GetExpense(id)
	if err != nil {
		return core.Expense{}, err
	}
	today := core.Today(s.now())
	draft := applyDetails(current, upd)
	if err := core.ValidateDetails(draft.Category, draft.Memo, draft.Date, today); err != nil {
		return core.Expense{}, err
	}

	// Conversion may hit the network, so it runs before taking the write lock.
	// The converted tuple is applied only if the record still has the amount and
	// currency it was computed from.
	var repriced *core.Expense
	amount, currency, changed, err := priceChange(current, upd)
	if err != nil {
		return core.Expense{}, err
	}
	if changed {
		conv, err := s.converter.ToHome(ctx, amount, string(currency))
		if err != nil {
			return core.Expense{}, err
		}
		repriced = &core.Expense{
			Amount:          amount,
			Currency:        currency,
			ConvertedAmount: conv.HomeAmount,
			ExchangeRate:    conv.Rate,
		}
	}

	stamp := s.now().UTC()
	var next core.Expense
	_, err = s.mutate(ctx, func(list []core.Expense) ([]core.Expense, error) {
		i := slices.IndexFunc(list, func(e core.Expense) bool { return e.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrExpenseNotFound, id)
		}
		next = applyDetails(list[i], upd)
		if err := core.ValidateDetails(next.Category, next.Memo, next.Date, today); err != nil {
			return nil, err
		}
		if repriced != nil {
			if next.Amount != current.Amount || next.Currency != current.Currency {
				return nil, fmt.Errorf("%w: %s", ErrExpenseConflict, id)
			}
			next.Amount = repriced.Amount
			next.Currency = repriced.Currency
			next.ConvertedAmount = repriced.ConvertedAmount
			next.ExchangeRate = repriced.ExchangeRate
		}
		next.UpdatedAt = stamp

		out := slices.Clone(list)
		out[i] = next
		return out, nil
	})
	if err != nil {
		return core.Expense{}, err
	}

	s.logger.InfoContext(ctx, "Expense updated",
		log.FieldExpenseID, id,
		log.FieldOperation, log.OpUpdate,
		"repriced", repriced != nil)
	return next, nil
}

// applyDetails copies the category, memo and date of upd onto e.
func applyDetails(e core.Expense, upd ExpenseUpdate) core.Expense {
	if upd.Category != nil {
		e.Category = *upd.Category
	}
	if upd.Memo != nil {
		e.Memo = *upd.Memo
	}
	if upd.Date != nil {
		e.Date = *upd.Date
	}
	return e
}

// priceChange resolves the amount and currency an edit asks for and reports
// whether they differ from the stored ones.
func priceChange(current core.Expense, upd ExpenseUpdate) (float64, core.Currency, bool, error) {
	amount, currency := current.Amount, current.Currency
	if upd.Amount != nil {
		amount = *upd.Amount
	}
	if upd.Currency != nil {
		c, err := core.ParseCurrency(*upd.Currency)
		if err != nil {
			return 0, "", false, err
		}
		currency = c
	}
	return amount, currency, amount != current.Amount || currency != current.Currency, nil
}

// DeleteExpense removes the expense with id.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, func(list []core.Expense) ([]core.Expense, error) {
		i := slices.IndexFunc(list, func(e core.Expense) bool { return e.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrExpenseNotFound, id)
		}
		return slices.Delete(slices.Clone(list), i, i+1), nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id, log.FieldOperation, log.OpDelete)
	return nil
}

// ClearExpenses removes every expense.
func (s *ExpenseService) ClearExpenses(ctx context.Context) error {
	_, err := s.mutate(ctx, func([]core.Expense) ([]core.Expense, error) {
		return []core.Expense{}, nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "All expenses cleared", log.FieldOperation, log.OpDelete)
	return nil
}

func (s *ExpenseService) GetExpense(id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("%w: %s", ErrExpenseNotFound, id)
}

// ListExpenses returns a snapshot of the collection in insertion order.
func (s *ExpenseService) ListExpenses() []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.expenses)
}

// ExpensesByMonth returns the expenses attributed to month (YYYY-MM).
func (s *ExpenseService) ExpensesByMonth(month string) []core.Expense {
	return ledger.ForMonth(s.ListExpenses(), month)
}

func (s *ExpenseService) Total() float64 {
	return ledger.Total(s.ListExpenses())
}

func (s *ExpenseService) ByCategory() map[core.Category]float64 {
	return ledger.ByCategory(s.ListExpenses())
}

// Summary aggregates all expenses, or only those of month when it is set.
func (s *ExpenseService) Summary(month string) ledger.Summary {
	expenses := s.ListExpenses()
	if month != "" {
		expenses = ledger.ForMonth(expenses, month)
	}
	return ledger.Summarize(expenses)
}

// LifeState evaluates the life state of the overall total.
func (s *ExpenseService) LifeState() lifestate.Status {
	return lifestate.Evaluate(s.Total())
}

// mutate applies fn to the collection, persists the result and swaps it in.
// The collection is left unchanged when fn or the store fails. The tier is
// observed under the lock so the tracker follows the order of stored totals;
// the change is announced after the lock is released.
func (s *ExpenseService) mutate(ctx context.Context, fn func([]core.Expense) ([]core.Expense, error)) (float64, error) {
	s.mu.Lock()
	next, err := fn(s.expenses)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	if err := storage.SaveExpenses(ctx, s.store, next); err != nil {
		s.mu.Unlock()
		return 0, core.WrapError(core.KindServer, "could not save expenses", err)
	}
	s.expenses = next
	total := ledger.Total(next)
	tr, changed := s.tracker.Observe(total)
	s.mu.Unlock()

	if changed {
		s.announce(ctx, tr)
	}
	return total, nil
}

func (s *ExpenseService) announce(ctx context.Context, tr lifestate.Transition) {
	logger := s.logger.WithComponent(log.ComponentLifeState)
	logger.InfoContext(ctx, "Life state changed",
		log.FieldPreviousTier, tr.From,
		log.FieldTier, tr.To,
		log.FieldTotal, tr.Total)
	if s.events == nil {
		return
	}
	msg := amqp.NewLifeStateChangedMessage(string(tr.From), string(tr.To), tr.Total)
	if err := s.events.PublishLifeStateChanged(ctx, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to publish life state message",
			log.FieldOperation, log.OpPublish, log.FieldError, err)
	}
}

// Settings returns the current settings.
func (s *ExpenseService) Settings() core.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings decodes raw over the current settings, so only the fields
// present in raw change.
func (s *ExpenseService) UpdateSettings(ctx context.Context, raw json.RawMessage) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	if err := json.Unmarshal(raw, &next); err != nil {
		return core.Settings{}, core.WrapError(core.KindInvalidInput, "settings must be a JSON object", err)
	}
	return s.saveSettingsLocked(ctx, next)
}

// ResetSettings restores the defaults.
func (s *ExpenseService) ResetSettings(ctx context.Context) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, storage.SettingsKey); err != nil {
		return core.Settings{}, core.WrapError(core.KindServer, "could not reset settings", err)
	}
	s.settings = core.DefaultSettings()
	return s.settings, nil
}

func (s *ExpenseService) saveSettingsLocked(ctx context.Context, next core.Settings) (core.Settings, error) {
	if err := next.Validate(); err != nil {
		return core.Settings{}, err
	}
	next.LastModified = s.now().UTC()
	if err := storage.SaveSettings(ctx, s.store, next); err != nil {
		return core.Settings{}, core.WrapError(core.KindServer, "could not save settings", err)
	}
	s.settings = next
	return next, nil
}

// Export bundles every expense with the current settings.
func (s *ExpenseService) Export(ctx context.Context) (backup.Bundle, error) {
	s.mu.RLock()
	expenses, settings := slices.Clone(s.expenses), s.settings
	s.mu.RUnlock()

	b, err := backup.Export(expenses, settings, s.now())
	if err != nil {
		return backup.Bundle{}, core.WrapError(core.KindServer, "could not export", err)
	}
	s.logger.InfoContext(ctx, "Exported expenses", log.FieldOperation, log.OpExport, "expenses", len(expenses))
	return b, nil
}

// Import adds the bundle's valid expenses whose ids are not already present
// and replaces the settings when the bundle carries usable ones.
func (s *ExpenseService) Import(ctx context.Context, b backup.Bundle) (backup.ImportResult, error) {
	res := backup.Import(b)

	var added int
	_, err := s.mutate(ctx, func(list []core.Expense) ([]core.Expense, error) {
		existing := make(map[string]bool, len(list))
		for _, e := range list {
			existing[e.ID] = true
		}
		out := slices.Clone(list)
		added = 0
		for _, e := range res.Expenses {
			if existing[e.ID] {
				res.Errors = append(res.Errors, fmt.Sprintf("expense %s already exists", e.ID))
				continue
			}
			out = append(out, e)
			added++
		}
		return out, nil
	})
	if err != nil {
		return backup.ImportResult{}, err
	}
	res.SkippedExpenses += res.ImportedExpenses - added
	res.ImportedExpenses = added

	if res.Settings != nil {
		s.mu.Lock()
		_, err := s.saveSettingsLocked(ctx, *res.Settings)
		s.mu.Unlock()
		if err != nil {
			return backup.ImportResult{}, err
		}
	}
	res.Success = res.ImportedExpenses > 0 || res.Settings != nil || (len(b.Expenses) == 0 && len(res.Errors) == 0)

	s.logger.InfoContext(ctx, "Imported bundle",
		log.FieldOperation, log.OpImport,
		"imported", res.ImportedExpenses,
		"skipped", res.SkippedExpenses)
	return res, nil
}

// Close closes the underlying store.
func (s *ExpenseService) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return fmt.Errorf("close expense service: %w", err)
		}
	}
	return nil
}

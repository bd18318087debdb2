// Package http exposes the expense service as a JSON API.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"moneymood/internal/backup"
	"moneymood/internal/converter"
	"moneymood/internal/core"
	"moneymood/internal/ledger"
	"moneymood/internal/lifestate"
	"moneymood/internal/log"
	"moneymood/internal/rates"
	"moneymood/internal/services"
)

// ExpenseService is what the handlers need from services.ExpenseService.
type ExpenseService interface {
	AddExpense(ctx context.Context, in services.NewExpense) (core.Expense, error)
	UpdateExpense(ctx context.Context, id string, upd services.ExpenseUpdate) (core.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	ClearExpenses(ctx context.Context) error
	ListExpenses() []core.Expense
	ExpensesByMonth(month string) []core.Expense
	Summary(month string) ledger.Summary
	LifeState() lifestate.Status
	Settings() core.Settings
	UpdateSettings(ctx context.Context, raw json.RawMessage) (core.Settings, error)
	ResetSettings(ctx context.Context) (core.Settings, error)
	Export(ctx context.Context) (backup.Bundle, error)
	Import(ctx context.Context, b backup.Bundle) (backup.ImportResult, error)
}

// RateSource serves the current rate table. *rates.Provider implements it.
type RateSource interface {
	Rates(ctx context.Context) ([]rates.Entry, error)
}

// Converter values an amount in the home currency. *converter.Converter implements it.
type Converter interface {
	ToHome(ctx context.Context, amount float64, from string) (converter.Conversion, error)
}

// Options tunes the server. Zero values pick the defaults.
type Options struct {
	WriteLimit  int
	WriteWindow time.Duration
	Now         func() time.Time
}

type Server struct {
	http.Server
	expenses    ExpenseService
	rates       RateSource
	converter   Converter
	rateLimiter *rateLimiter
	logger      *log.Logger
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc ExpenseService, rs RateSource, conv Converter, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	if opts.WriteLimit <= 0 {
		opts.WriteLimit = 60
	}
	if opts.WriteWindow <= 0 {
		opts.WriteWindow = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		expenses:    svc,
		rates:       rs,
		converter:   conv,
		rateLimiter: newRateLimiter(opts.WriteLimit, opts.WriteWindow),
		logger:      logger,
		now:         opts.Now,
	}

	r := chi.NewRouter()
	r.Use(
		log.Middleware(logger.WithComponent(log.ComponentHTTP)),
		log.RequestIDMiddleware,
		log.AccessLog,
		securityHeaders,
		s.withRateLimit,
	)

	r.Get("/healthz", handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/currencies", s.handleCurrencies)
		r.Get("/categories", s.handleCategories)
		r.Get("/rates", s.handleRates)
		r.Post("/convert", s.handleConvert)
		r.Get("/summary", s.handleSummary)
		r.Get("/lifestate", s.handleLifeState)
		r.Get("/lifestate/tiers", s.handleTiers)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Mount("/expenses", s.expenseRoutes())
		r.Mount("/settings", s.settingsRoutes())
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) expenseRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.handleListExpenses)
	r.Post("/", s.handleCreateExpense)
	r.Delete("/", s.handleClearExpenses)
	r.Put("/{id}", s.handleUpdateExpense)
	r.Delete("/{id}", s.handleDeleteExpense)
	return r
}

func (s *Server) settingsRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.handleGetSettings)
	r.Put("/", s.handleUpdateSettings)
	r.Delete("/", s.handleResetSettings)
	return r
}

// withRateLimit applies the per-client budget to requests that change state.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		clientIP := extractClientIP(r)
		if !s.rateLimiter.allow(clientIP) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, r, core.NewError(core.KindRateLimitExceeded, "too many requests, try again later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

package rates

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"moneymood/internal/cache"
	"moneymood/internal/core"
	"moneymood/internal/log"
)

// FreshFor is how long a fetched table is served without contacting the source.
const FreshFor = 5 * time.Minute

// Provider serves rate tables from a snapshot cache, refreshing it from a
// Fetcher when stale. It is safe for concurrent use.
type Provider struct {
	fetcher Fetcher
	cache   *cache.Snapshot[Table]
	now     cache.Clock
	logger  *log.Logger
	group   singleflight.Group
}

// Option configures a Provider.
type Option func(*Provider)

// WithCache injects the snapshot cache, e.g. to share or inspect it in tests.
func WithCache(c *cache.Snapshot[Table]) Option {
	return func(p *Provider) { p.cache = c }
}

// WithClock overrides time.Now for fallback stamps.
func WithClock(now cache.Clock) Option {
	return func(p *Provider) { p.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// NewProvider creates a provider with an empty cache fresh for FreshFor.
func NewProvider(f Fetcher, opts ...Option) *Provider {
	p := &Provider{
		fetcher: f,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = cache.NewSnapshot[Table](FreshFor, p.now)
	}
	if p.logger == nil {
		p.logger = log.Discard()
	}
	return p
}

// Rates returns the current rate table.
//
// A fresh cached table is returned as is. Otherwise the table is fetched,
// with concurrent callers sharing one fetch. A failed fetch yields the
// fallback table and leaves the cache untouched. The only error returned is
// the caller's context ending before a result is available.
func (p *Provider) Rates(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e, ok := p.cache.Get(); ok {
		return e.Data.entries(e.StoredAt, SourceAPI), nil
	}

	// The shared fetch must not die with whichever caller started it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan("refresh", func() (any, error) {
		return p.refresh(fetchCtx), nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val.([]Entry), nil
	}
}

func (p *Provider) refresh(ctx context.Context) []Entry {
	table, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "Rate fetch failed, serving fallback table",
			log.FieldOperation, log.OpFallback,
			log.FieldErrorKind, core.KindOf(err),
			log.FieldError, err)
		return FallbackEntries(p.now())
	}

	e := p.cache.Set(table)
	p.logger.InfoContext(ctx, "Rate table refreshed",
		log.FieldOperation, log.OpRefresh,
		log.FieldRateCount, len(table))
	return e.Data.entries(e.StoredAt, SourceAPI)
}

// LastRefresh returns when the cached table was stored, if ever.
func (p *Provider) LastRefresh() (time.Time, bool) {
	e, ok := p.cache.Peek()
	return e.StoredAt, ok
}

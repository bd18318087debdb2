package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"moneymood/internal/core"
)

// DefaultURL is the free JPY-based endpoint of ExchangeRate-API.
const DefaultURL = "https://api.exchangerate-api.com/v4/latest/JPY"

const maxBodyBytes = 1 << 20

// Fetcher retrieves a full rate table from a live source.
type Fetcher interface {
	Fetch(ctx context.Context) (Table, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (Table, error)

func (f FetcherFunc) Fetch(ctx context.Context) (Table, error) { return f(ctx) }

// HTTPFetcher reads {"rates": {"USD": 0.0067, ...}} from a URL.
type HTTPFetcher struct {
	client *http.Client
	url    string
}

// NewHTTPFetcher creates a fetcher. A nil client uses http.DefaultClient.
func NewHTTPFetcher(client *http.Client, url string) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if url == "" {
		url = DefaultURL
	}
	return &HTTPFetcher{client: client, url: url}
}

type ratesPayload struct {
	Rates map[string]float64 `json:"rates"`
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, core.WrapError(core.KindServer, "build rates request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.KindNetwork, "rate source unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, core.NewError(core.KindRateLimitExceeded, "rate source throttled the request")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, core.NewError(core.KindNetwork, fmt.Sprintf("rate source returned status %d", resp.StatusCode))
	}

	var payload ratesPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return nil, core.WrapError(core.KindServer, "decode rates payload", err)
	}
	if payload.Rates == nil {
		return nil, core.NewError(core.KindServer, "rates payload has no rates field")
	}

	table := make(Table, len(payload.Rates))
	for code, rate := range payload.Rates {
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			continue
		}
		table[core.Currency(code)] = rate
	}
	if len(table) == 0 {
		return nil, core.NewError(core.KindServer, "rates payload has no usable rates")
	}
	return table, nil
}

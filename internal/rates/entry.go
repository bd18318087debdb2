// Package rates resolves currency codes to home-currency rates. Live rates
// come from an HTTP source and are cached for a short freshness window; when
// the source is unavailable a static fallback table is served instead.
//
// All rates are expressed as units of foreign currency per one unit of the
// home currency, so home = foreign / rate.
package rates

import (
	"slices"
	"time"

	"moneymood/internal/core"
)

// Source tells where a rate came from.
type Source string

const (
	SourceAPI      Source = "api"
	SourceFallback Source = "fallback"
)

// Entry is one currency's rate together with its capture time.
type Entry struct {
	Currency    core.Currency `json:"currency"`
	Rate        float64       `json:"rate"`
	LastUpdated time.Time     `json:"lastUpdated"`
	Source      Source        `json:"source"`
}

// Table is a complete rate table keyed by currency.
type Table map[core.Currency]float64

// Find returns the entry for c.
func Find(entries []Entry, c core.Currency) (Entry, bool) {
	for _, e := range entries {
		if e.Currency == c {
			return e, true
		}
	}
	return Entry{}, false
}

func (t Table) entries(stamp time.Time, source Source) []Entry {
	out := make([]Entry, 0, len(t))
	for c, r := range t {
		out = append(out, Entry{Currency: c, Rate: r, LastUpdated: stamp, Source: source})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.Currency < b.Currency:
			return -1
		case a.Currency > b.Currency:
			return 1
		}
		return 0
	})
	return out
}

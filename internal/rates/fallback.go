package rates

import (
	"time"

	"moneymood/internal/core"
)

// Approximate JPY-based rates used when the live source cannot be reached.
var fallbackTable = Table{
	"USD": 0.0067,
	"EUR": 0.0062,
	"GBP": 0.0053,
	"CAD": 0.0091,
	"AUD": 0.0102,
	"CHF": 0.0059,
	"CNY": 0.048,
	"KRW": 8.9,
	"SGD": 0.0090,
	"HKD": 0.052,
	"MYR": 0.031,
	"THB": 0.24,
	"IDR": 105,
	"PHP": 0.37,
	"VND": 162,
}

// FallbackRate looks c up in the static table.
func FallbackRate(c core.Currency) (float64, bool) {
	r, ok := fallbackTable[c]
	return r, ok
}

// FallbackEntries returns the static table stamped with now.
func FallbackEntries(now time.Time) []Entry {
	return fallbackTable.entries(now, SourceFallback)
}

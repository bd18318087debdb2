// Package ledger aggregates stored expenses. Every function is pure and works
// on the converted home-currency amounts frozen in each record.
package ledger

import (
	"strings"

	"moneymood/internal/core"
)

// Summary is a one-pass overview of a set of expenses.
type Summary struct {
	Total      float64                   `json:"total"`
	Count      int                       `json:"count"`
	Average    float64                   `json:"average"`
	ByCategory map[core.Category]float64 `json:"byCategory"`
}

// Total sums ConvertedAmount. An empty slice totals 0.
func Total(expenses []core.Expense) float64 {
	var sum float64
	for _, e := range expenses {
		sum += e.ConvertedAmount
	}
	return sum
}

// ByCategory groups ConvertedAmount by category. Categories without
// expenses are absent from the result.
func ByCategory(expenses []core.Expense) map[core.Category]float64 {
	out := make(map[core.Category]float64)
	for _, e := range expenses {
		out[e.Category] += e.ConvertedAmount
	}
	return out
}

// ForMonth returns the expenses attributed to month, given as YYYY-MM.
func ForMonth(expenses []core.Expense, month string) []core.Expense {
	month = strings.TrimSpace(month)
	out := []core.Expense{}
	for _, e := range expenses {
		if e.Date.MonthKey() == month {
			out = append(out, e)
		}
	}
	return out
}

func Summarize(expenses []core.Expense) Summary {
	s := Summary{
		Total:      Total(expenses),
		Count:      len(expenses),
		ByCategory: ByCategory(expenses),
	}
	if s.Count > 0 {
		s.Average = s.Total / float64(s.Count)
	}
	return s
}

// Package lifestate maps a home-currency spending total onto one of four
// narrative tiers and derives progress metrics within the current tier.
package lifestate

import (
	"encoding/json"
	"math"
)

// Tier names a life state.
type Tier string

const (
	Luxury   Tier = "luxury"
	Modest   Tier = "modest"
	Homeless Tier = "homeless"
	Ghost    Tier = "ghost"
)

// Level is one row of the threshold table.
type Level struct {
	Tier      Tier    `json:"tier"`
	Min       float64 `json:"min"`
	Message   string  `json:"message"`
	Animation string  `json:"animation"`
	Color     string  `json:"color"`
	Emoji     string  `json:"emoji"`
}

// levels is ordered by ascending lower bound; Min is inclusive.
var levels = []Level{
	{Tier: Luxury, Min: 0, Message: "relaxed-cafe-day", Animation: "luxury-apartment", Color: "#4CAF50", Emoji: "🏰"},
	{Tier: Modest, Min: 50000, Message: "instant-noodles", Animation: "modest-apartment", Color: "#FF9800", Emoji: "🏠"},
	{Tier: Homeless, Min: 80000, Message: "sleeping-under-bridge", Animation: "homeless", Color: "#F44336", Emoji: "🌉"},
	{Tier: Ghost, Min: 100000, Message: "disconnected-from-reality", Animation: "ghost", Color: "#9C27B0", Emoji: "👻"},
}

const (
	defaultColor = "#2196F3"
	defaultEmoji = "💰"
)

// LifeState is derived from a total and never stored.
type LifeState struct {
	TotalExpense float64 `json:"totalExpense"`
	State        Tier    `json:"state"`
	Message      string  `json:"message"`
	Animation    string  `json:"animation"`
}

// Threshold is a tier lower bound, or Unbounded above the top tier.
type Threshold struct {
	Value     float64
	Unbounded bool
}

// Unbounded is the threshold above the top tier.
var Unbounded = Threshold{Value: math.Inf(1), Unbounded: true}

// MarshalJSON writes null for Unbounded since JSON has no infinity.
func (t Threshold) MarshalJSON() ([]byte, error) {
	if t.Unbounded {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// Levels returns a copy of the threshold table, lowest tier first.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}

// levelIndex picks the highest tier whose lower bound is <= total. Totals
// below the lowest bound fall into the lowest tier.
func levelIndex(total float64) int {
	for i := len(levels) - 1; i >= 0; i-- {
		if total >= levels[i].Min {
			return i
		}
	}
	return 0
}

func indexOf(tier Tier) int {
	for i, l := range levels {
		if l.Tier == tier {
			return i
		}
	}
	return -1
}

// Classify returns the life state for total.
func Classify(total float64) LifeState {
	l := levels[levelIndex(total)]
	return LifeState{
		TotalExpense: total,
		State:        l.Tier,
		Message:      l.Message,
		Animation:    l.Animation,
	}
}

// Progress is how far total has advanced through its tier, in percent.
// The top tier always reports 100.
func Progress(total float64) float64 {
	i := levelIndex(total)
	if i == len(levels)-1 {
		return 100
	}
	lo, hi := levels[i].Min, levels[i+1].Min
	p := (total - lo) / (hi - lo) * 100
	return math.Max(0, math.Min(100, p))
}

// NextThreshold returns the lower bound of the tier above tier, or
// Unbounded for the top tier and for unknown tiers.
func NextThreshold(tier Tier) Threshold {
	i := indexOf(tier)
	if i < 0 || i == len(levels)-1 {
		return Unbounded
	}
	return Threshold{Value: levels[i+1].Min}
}

// Remaining is the amount left before total reaches the next tier; 0 when
// there is no next tier.
func Remaining(total float64) float64 {
	next := NextThreshold(Classify(total).State)
	if next.Unbounded {
		return 0
	}
	return math.Max(0, next.Value-total)
}

// Color returns the display color of tier.
func Color(tier Tier) string {
	if i := indexOf(tier); i >= 0 {
		return levels[i].Color
	}
	return defaultColor
}

// Emoji returns the display emoji of tier.
func Emoji(tier Tier) string {
	if i := indexOf(tier); i >= 0 {
		return levels[i].Emoji
	}
	return defaultEmoji
}

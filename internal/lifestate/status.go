package lifestate

import "sync"

// Status bundles everything a dashboard shows about the current life state.
type Status struct {
	LifeState     LifeState `json:"lifeState"`
	Progress      float64   `json:"progress"`
	NextThreshold Threshold `json:"nextThreshold"`
	Remaining     float64   `json:"remainingAmount"`
	Color         string    `json:"stateColor"`
	Emoji         string    `json:"stateEmoji"`
}

// Evaluate derives the full status for total.
func Evaluate(total float64) Status {
	ls := Classify(total)
	return Status{
		LifeState:     ls,
		Progress:      Progress(total),
		NextThreshold: NextThreshold(ls.State),
		Remaining:     Remaining(total),
		Color:         Color(ls.State),
		Emoji:         Emoji(ls.State),
	}
}

// Transition records a tier change.
type Transition struct {
	From  Tier
	To    Tier
	Total float64
}

// Tracker remembers the last observed tier and reports changes.
type Tracker struct {
	mu   sync.Mutex
	last Tier
}

// NewTracker starts from initial, normally the tier of the loaded expenses.
func NewTracker(initial Tier) *Tracker {
	if initial == "" {
		initial = Luxury
	}
	return &Tracker{last: initial}
}

// Observe classifies total and reports whether the tier differs from the last one.
func (t *Tracker) Observe(total float64) (Transition, bool) {
	tier := Classify(total).State

	t.mu.Lock()
	defer t.mu.Unlock()
	if tier == t.last {
		return Transition{}, false
	}
	tr := Transition{From: t.last, To: tier, Total: total}
	t.last = tier
	return tr, true
}

func (t *Tracker) Current() Tier {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

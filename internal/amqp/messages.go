package amqp

import (
	"encoding/json"
	"time"
)

// Routing keys, one per event type.
const (
	RoutingExpenseAdded     = "expense.added"
	RoutingLifeStateChanged = "lifestate.changed"
)

// ExpenseAddedMessage announces a newly recorded expense and the running total.
type ExpenseAddedMessage struct {
	ID              string    `json:"id"`
	Currency        string    `json:"currency"`
	ConvertedAmount float64   `json:"convertedAmount"`
	Total           float64   `json:"total"`
	Timestamp       time.Time `json:"timestamp"`
}

// LifeStateChangedMessage announces a tier transition.
type LifeStateChangedMessage struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Total     float64   `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseAddedMessage(id, currency string, converted, total float64) *ExpenseAddedMessage {
	return &ExpenseAddedMessage{
		ID:              id,
		Currency:        currency,
		ConvertedAmount: converted,
		Total:           total,
		Timestamp:       time.Now().UTC(),
	}
}

func NewLifeStateChangedMessage(from, to string, total float64) *LifeStateChangedMessage {
	return &LifeStateChangedMessage{
		From:      from,
		To:        to,
		Total:     total,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseAddedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToJSON converts the message to JSON bytes
func (m *LifeStateChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

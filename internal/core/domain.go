package core

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"
)

const (
	Food          Category = "food"
	Transport     Category = "transport"
	Entertainment Category = "entertainment"
	Shopping      Category = "shopping"
	Bills         Category = "bills"
	Health        Category = "health"
	Education     Category = "education"
	Other         Category = "other"
)

// DateLayout is the wire format of Date.
const DateLayout = "2006-01-02"

const maxMemoLength = 200

type (
	Category string

	// Date is a calendar day without time of day, always in UTC.
	Date struct {
		time.Time
	}

	// Expense is a point-in-time snapshot of one spending event. ConvertedAmount
	// and ExchangeRate are fixed when the record is created.
	Expense struct {
		ID              string    `json:"id"`
		Amount          float64   `json:"amount"`
		Currency        Currency  `json:"currency"`
		ConvertedAmount float64   `json:"convertedAmount"`
		Category        Category  `json:"category"`
		Memo            string    `json:"memo"`
		Date            Date      `json:"date"`
		ExchangeRate    float64   `json:"exchangeRate"`
		CreatedAt       time.Time `json:"createdAt,omitzero"`
		UpdatedAt       time.Time `json:"updatedAt,omitzero"`
	}
)

var categories = []Category{Food, Transport, Entertainment, Shopping, Bills, Health, Education, Other}

var (
	ErrEmptyID         = errors.New("empty id")
	ErrInvalidCategory = errors.New("invalid category")
	ErrMemoTooLong     = errors.New("memo too long (max 200 characters)")
	ErrDateOutOfRange  = errors.New("date must be within one year of today")
)

// Categories returns every spending category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) Valid() bool {
	for _, v := range categories {
		if c == v {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, WrapError(KindValidation, "date must be YYYY-MM-DD", err)
	}
	return Date{Time: t}, nil
}

// Today returns the calendar day of now.
func Today(now time.Time) Date {
	y, m, d := now.Date()
	return NewDate(y, int(m), d)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM the date is attributed to.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// Some exports carry a full timestamp; keep only the day.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ValidateWithin checks that d is set and no more than one year away from today.
func (d Date) ValidateWithin(today Date) error {
	if d.IsZero() {
		return NewError(KindValidation, "date is required")
	}
	if d.After(today.AddDate(1, 0, 0)) || d.Before(today.AddDate(-1, 0, 0)) {
		return WrapError(KindValidation, "date out of range", ErrDateOutOfRange)
	}
	return nil
}

// Validate checks a stored record for internal consistency. It is used when
// records come from outside the converter, e.g. an imported bundle.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return WrapError(KindInvalidInput, "id is required", ErrEmptyID)
	}
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if !e.Currency.IsSupported() {
		return NewError(KindCurrencyNotSupported, "unsupported currency "+string(e.Currency))
	}
	if math.IsNaN(e.ConvertedAmount) || math.IsInf(e.ConvertedAmount, 0) || e.ConvertedAmount <= 0 {
		return NewError(KindValidation, "converted amount must be a positive number")
	}
	if e.ExchangeRate <= 0 {
		return NewError(KindValidation, "exchange rate must be positive")
	}
	if !e.Category.Valid() {
		return WrapError(KindValidation, "unknown category "+string(e.Category), ErrInvalidCategory)
	}
	if len(e.Memo) > maxMemoLength {
		return WrapError(KindValidation, "memo too long", ErrMemoTooLong)
	}
	if e.Date.IsZero() {
		return NewError(KindValidation, "date is required")
	}
	return nil
}

// ValidateDetails checks the user-editable descriptive fields of a new or edited expense.
func ValidateDetails(category Category, memo string, date, today Date) error {
	if !category.Valid() {
		return WrapError(KindValidation, "unknown category "+string(category), ErrInvalidCategory)
	}
	if len(memo) > maxMemoLength {
		return WrapError(KindValidation, "memo too long", ErrMemoTooLong)
	}
	return date.ValidateWithin(today)
}

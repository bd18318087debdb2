package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestValidateAmount(t *testing.T) {
	cases := []struct {
		in   float64
		ok   bool
		want error
	}{
		{0.01, true, nil},
		{5000, true, nil},
		{MaxAmount, true, nil},
		{0, false, ErrAmountNotPositive},
		{-5, false, ErrAmountNotPositive},
		{math.NaN(), false, ErrAmountNotFinite},
		{math.Inf(1), false, ErrAmountNotFinite},
		{math.Inf(-1), false, ErrAmountNotFinite},
		{MaxAmount + 0.01, false, ErrAmountTooLarge},
	}
	for _, tc := range cases {
		err := ValidateAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("%v expected ok, got %v", tc.in, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%v expected error", tc.in)
		}
		if !errors.Is(err, tc.want) {
			t.Fatalf("%v expected %v, got %v", tc.in, tc.want, err)
		}
		if KindOf(err) != KindValidation {
			t.Fatalf("%v expected validation kind, got %s", tc.in, KindOf(err))
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1000", 1000, true},
		{"1000.50", 1000.5, true},
		{" 2.5 ", 2.5, true},
		{"0.01", 0.01, true},
		{"100000000", 1e8, true},
		{"100000000.01", 0, false},
		{"1.005", 0, false},
		{"１０００", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"-1", 0, false},
		{"0", 0, false},
		{".", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %v", tc.in, got)
		}
	}
}

func TestParseCurrency(t *testing.T) {
	if c, err := ParseCurrency(" usd "); err != nil || c != "USD" {
		t.Fatalf("expected USD, got %q (err=%v)", c, err)
	}
	for _, in := range []string{"", "  ", "US", "US1", "DOLLAR"} {
		_, err := ParseCurrency(in)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%q expected invalid input, got %v", in, err)
		}
	}
}

func TestSupportedCurrencies(t *testing.T) {
	list := SupportedCurrencies()
	if len(list) != 16 {
		t.Fatalf("expected 16 currencies, got %d", len(list))
	}
	if list[0] != HomeCurrency {
		t.Fatalf("expected home currency first, got %s", list[0])
	}
	list[0] = "XXX"
	if SupportedCurrencies()[0] != HomeCurrency {
		t.Fatalf("SupportedCurrencies must return a copy")
	}
	if Currency("XXX").IsSupported() {
		t.Fatalf("XXX must not be supported")
	}
}

func TestDateValidateWithin(t *testing.T) {
	today := NewDate(2025, 6, 15)
	cases := []struct {
		d  Date
		ok bool
	}{
		{today, true},
		{NewDate(2024, 6, 15), true},
		{NewDate(2026, 6, 15), true},
		{NewDate(2024, 6, 14), false},
		{NewDate(2026, 6, 16), false},
		{Date{}, false},
	}
	for i, tc := range cases {
		err := tc.d.ValidateWithin(today)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseJSONFieldNames(t *testing.T) {
	e := Expense{
		ID:              "1",
		Amount:          10,
		Currency:        "USD",
		ConvertedAmount: 1492.54,
		Category:        Food,
		Memo:            "lunch",
		Date:            NewDate(2025, 1, 2),
		ExchangeRate:    149.254,
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"id", "amount", "currency", "convertedAmount", "category", "memo", "date", "exchangeRate"} {
		if _, ok := fields[k]; !ok {
			t.Fatalf("missing field %q in %s", k, b)
		}
	}
	if _, ok := fields["createdAt"]; ok {
		t.Fatalf("zero createdAt must be omitted: %s", b)
	}
	if fields["date"] != "2025-01-02" {
		t.Fatalf("expected date 2025-01-02, got %v", fields["date"])
	}

	var back Expense
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal expense: %v", err)
	}
	if back != e {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, e)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		ID: "a", Amount: 10, Currency: "USD", ConvertedAmount: 1500,
		Category: Food, Date: NewDate(2025, 1, 1), ExchangeRate: 150,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []func(e *Expense){
		func(e *Expense) { e.ID = "" },
		func(e *Expense) { e.Amount = 0 },
		func(e *Expense) { e.Currency = "XXX" },
		func(e *Expense) { e.ConvertedAmount = math.NaN() },
		func(e *Expense) { e.ExchangeRate = 0 },
		func(e *Expense) { e.Category = "rent" },
		func(e *Expense) { e.Date = Date{} },
	}
	for i, mutate := range bads {
		e := good
		mutate(&e)
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMergeSettings(t *testing.T) {
	s, err := MergeSettings(json.RawMessage(`{"theme":"dark","privacy":{"dataRetentionDays":30}}`))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if s.Theme != ThemeDark || s.Language != LanguageJA || s.DefaultCurrency != HomeCurrency {
		t.Fatalf("unexpected merge result: %+v", s)
	}
	if s.Privacy.DataRetentionDays != 30 {
		t.Fatalf("expected retention 30, got %d", s.Privacy.DataRetentionDays)
	}

	if _, err := MergeSettings(json.RawMessage(`[1,2]`)); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := MergeSettings(json.RawMessage(`{"defaultCurrency":"XXX"}`)); KindOf(err) != KindCurrencyNotSupported {
		t.Fatalf("expected currency not supported, got %v", err)
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := WrapError(KindNetwork, "rates unavailable", cause)
	wrapped := errors.Join(errors.New("context"), err)

	if KindOf(wrapped) != KindNetwork {
		t.Fatalf("expected network kind, got %s", KindOf(wrapped))
	}
	if !errors.Is(wrapped, ErrNetwork) || !errors.Is(wrapped, cause) {
		t.Fatalf("expected sentinel and cause to match")
	}
	if errors.Is(err, ErrValidation) {
		t.Fatalf("network error must not match validation sentinel")
	}
	if KindOf(errors.New("plain")) != KindServer {
		t.Fatalf("plain errors map to server kind")
	}
	if err.Timestamp.After(time.Now().Add(time.Second)) {
		t.Fatalf("timestamp in the future")
	}
}

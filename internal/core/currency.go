package core

import "strings"

// Currency is an ISO 4217 code.
type Currency string

// HomeCurrency is the reference currency for totals and life-state thresholds.
const HomeCurrency Currency = "JPY"

var supportedCurrencies = []Currency{
	"JPY", "USD", "EUR", "GBP", "CAD", "AUD", "CHF", "CNY",
	"KRW", "SGD", "HKD", "MYR", "THB", "IDR", "PHP", "VND",
}

var supportedSet = func() map[Currency]struct{} {
	m := make(map[Currency]struct{}, len(supportedCurrencies))
	for _, c := range supportedCurrencies {
		m[c] = struct{}{}
	}
	return m
}()

// SupportedCurrencies returns the fixed list of selectable currencies,
// home currency first.
func SupportedCurrencies() []Currency {
	out := make([]Currency, len(supportedCurrencies))
	copy(out, supportedCurrencies)
	return out
}

// IsSupported reports whether c is in the supported set.
func (c Currency) IsSupported() bool {
	_, ok := supportedSet[c]
	return ok
}

// IsHome reports whether c is the home currency.
func (c Currency) IsHome() bool {
	return c == HomeCurrency
}

// ParseCurrency normalizes s and checks that it looks like a currency code.
// It does not check membership in the supported set.
func ParseCurrency(s string) (Currency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", NewError(KindInvalidInput, "currency is required")
	}
	if len(s) != 3 {
		return "", NewError(KindInvalidInput, "currency must be a 3-letter code")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return "", NewError(KindInvalidInput, "currency must be a 3-letter code")
		}
	}
	return Currency(s), nil
}

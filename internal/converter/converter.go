// Package converter turns an amount in any supported currency into its
// home-currency value.
package converter

import (
	"context"
	"fmt"

	"moneymood/internal/core"
	"moneymood/internal/log"
	"moneymood/internal/rates"
)

// RateSource supplies the current rate table. *rates.Provider implements it.
type RateSource interface {
	Rates(ctx context.Context) ([]rates.Entry, error)
}

// Conversion is the outcome of a successful conversion.
type Conversion struct {
	HomeAmount float64
	// Rate is the effective home-per-foreign rate, HomeAmount / amount.
	Rate   float64
	Source rates.Source
}

// Converter is stateless apart from its rate source.
type Converter struct {
	rates  RateSource
	logger *log.Logger
}

func New(source RateSource, logger *log.Logger) *Converter {
	if logger == nil {
		logger = log.Discard()
	}
	return &Converter{rates: source, logger: logger}
}

// ToHome validates the input, then converts amount from the given currency
// into the home currency.
//
// Validation happens before any rate lookup. The home currency converts at
// rate 1 without touching the rate source.
func (c *Converter) ToHome(ctx context.Context, amount float64, from string) (Conversion, error) {
	if err := core.ValidateAmount(amount); err != nil {
		return Conversion{}, err
	}
	currency, err := core.ParseCurrency(from)
	if err != nil {
		return Conversion{}, err
	}
	if !currency.IsSupported() {
		return Conversion{}, core.NewError(core.KindCurrencyNotSupported,
			fmt.Sprintf("currency %s is not supported", currency))
	}

	if currency.IsHome() {
		return Conversion{HomeAmount: amount, Rate: 1}, nil
	}

	rate, source, err := c.lookup(ctx, currency)
	if err != nil {
		return Conversion{}, err
	}

	home := amount / rate
	c.logger.DebugContext(ctx, "Converted amount to home currency",
		log.FieldOperation, log.OpConvert,
		log.FieldAmount, amount,
		log.FieldCurrency, currency,
		log.FieldConvertedAmount, home,
		log.FieldRateSource, source)

	return Conversion{HomeAmount: home, Rate: home / amount, Source: source}, nil
}

// ConvertToHome is ToHome without the rate details.
func (c *Converter) ConvertToHome(ctx context.Context, amount float64, from string) (float64, error) {
	conv, err := c.ToHome(ctx, amount, from)
	if err != nil {
		return 0, err
	}
	return conv.HomeAmount, nil
}

func (c *Converter) lookup(ctx context.Context, currency core.Currency) (float64, rates.Source, error) {
	entries, err := c.rates.Rates(ctx)
	if err != nil {
		// The provider itself failed; the static table is the last resort.
		if r, ok := rates.FallbackRate(currency); ok {
			c.logger.WarnContext(ctx, "Rate source failed, using fallback rate",
				log.FieldCurrency, currency, log.FieldError, err)
			return r, rates.SourceFallback, nil
		}
		return 0, "", core.WrapError(core.KindNetwork,
			fmt.Sprintf("no rate available for %s", currency), err)
	}

	e, ok := rates.Find(entries, currency)
	if !ok || e.Rate <= 0 {
		return 0, "", core.NewError(core.KindCurrencyNotSupported,
			fmt.Sprintf("no rate found for currency %s", currency))
	}
	return e.Rate, e.Source, nil
}

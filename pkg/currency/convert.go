package currency

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// RateSource returns how many units of a currency one US dollar buys.
type RateSource interface {
	Rate(ctx context.Context, to Currency) (decimal.Decimal, error)
}

// Quote is a display currency and its rate from USD.
type Quote struct {
	Currency Currency
	Rate     decimal.Decimal
}

// USDQuote formats feed prices unchanged.
func USDQuote() Quote {
	return Quote{Currency: USD, Rate: decimal.NewFromInt(1)}
}

// Convert turns a USD amount into the quote currency.
func (q Quote) Convert(usd decimal.Decimal) decimal.Decimal {
	if q.Rate.IsZero() {
		return usd
	}
	return usd.Mul(q.Rate)
}

// Format converts a USD amount and renders it in the quote currency.
func (q Quote) Format(usd decimal.Decimal) string {
	if q.Currency == "" || q.Rate.IsZero() {
		return Format(usd, USD)
	}
	return Format(q.Convert(usd), q.Currency)
}

// Quoter resolves the quote for one configured display currency.
type Quoter struct {
	currency Currency
	rates    RateSource
}

// NewQuoter creates a Quoter. rates is only consulted for non-USD currencies.
func NewQuoter(curr Currency, rates RateSource) *Quoter {
	if curr == "" {
		curr = DefaultCurrency
	}
	return &Quoter{currency: curr, rates: rates}
}

// Currency returns the display currency.
func (q *Quoter) Currency() Currency {
	if q == nil {
		return USD
	}
	return q.currency
}

// Quote returns the current quote. On error it also returns USDQuote so the
// caller can still render prices.
func (q *Quoter) Quote(ctx context.Context) (Quote, error) {
	if q == nil || q.currency == USD {
		return USDQuote(), nil
	}
	if q.rates == nil {
		return USDQuote(), fmt.Errorf("no exchange rate source for %s", q.currency)
	}

	rate, err := q.rates.Rate(ctx, q.currency)
	if err != nil {
		return USDQuote(), fmt.Errorf("exchange rate for %s: %w", q.currency, err)
	}
	if !rate.IsPositive() {
		return USDQuote(), fmt.Errorf("exchange rate for %s: non-positive rate %s", q.currency, rate)
	}
	return Quote{Currency: q.currency, Rate: rate}, nil
}

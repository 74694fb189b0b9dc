// Package currency formats and parses store prices.
// All prices are held as decimal.Decimal to avoid floating-point errors.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents an ISO 4217 currency code.
type Currency string

// Currencies storefronts list prices in.
const (
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	CAD Currency = "CAD" // Canadian Dollar
	AUD Currency = "AUD" // Australian Dollar
	JPY Currency = "JPY" // Japanese Yen
)

// DefaultCurrency is the feed's currency.
const DefaultCurrency = USD

// Info contains display metadata about a currency.
type Info struct {
	Code          Currency
	Symbol        string
	DecimalPlaces int  // Number of decimal places (e.g., 2 for USD, 0 for JPY)
	SymbolBefore  bool // Whether symbol appears before amount
}

var currencies = map[Currency]Info{
	USD: {Code: USD, Symbol: "$", DecimalPlaces: 2, SymbolBefore: true},
	EUR: {Code: EUR, Symbol: "€", DecimalPlaces: 2, SymbolBefore: false},
	GBP: {Code: GBP, Symbol: "£", DecimalPlaces: 2, SymbolBefore: true},
	CAD: {Code: CAD, Symbol: "CA$", DecimalPlaces: 2, SymbolBefore: true},
	AUD: {Code: AUD, Symbol: "A$", DecimalPlaces: 2, SymbolBefore: true},
	JPY: {Code: JPY, Symbol: "¥", DecimalPlaces: 0, SymbolBefore: true},
}

// IsValid checks if a currency code is supported.
func IsValid(code string) bool {
	_, ok := currencies[Currency(code)]
	return ok
}

// GetInfo returns metadata for a currency code.
func GetInfo(code Currency) (Info, bool) {
	info, ok := currencies[code]
	return info, ok
}

// Format renders amount the way the currency is usually written, e.g. "$29.99".
func Format(amount decimal.Decimal, curr Currency) string {
	if curr == "" {
		curr = DefaultCurrency
	}
	info, ok := GetInfo(curr)
	if !ok {
		return fmt.Sprintf("%s %s", amount.StringFixed(2), curr)
	}

	places := int32(info.DecimalPlaces)
	value := amount.Round(places).StringFixed(places)
	if info.SymbolBefore {
		return info.Symbol + value
	}
	return value + info.Symbol
}

// ParsePrice parses a feed price such as "29.99". Empty input is zero.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid price %q: negative", s)
	}
	return d, nil
}

// ParsePercent parses a feed savings value such as "62.512563" and truncates it
// to a whole percent clamped to 0..100.
func ParsePercent(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid percent %q: %w", s, err)
	}
	p := int(d.Truncate(0).IntPart())
	switch {
	case p < 0:
		return 0, nil
	case p > 100:
		return 100, nil
	}
	return p, nil
}

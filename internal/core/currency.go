// Package core holds the financial domain types shared by every layer:
// transactions, recurring rules, goals, budgets, reserves and the currency
// table. Derived computations over these types never raise; invalid input is
// clamped to a safe default at the edge.
package core

import "math"

// Currency is one of the three supported currencies. BRL is the reference
// currency every aggregate is expressed in.
type Currency string

const (
	BRL Currency = "BRL"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// ParseCurrency maps an arbitrary string onto the closed currency set.
// Unknown codes fall back to BRL rather than failing.
func ParseCurrency(s string) Currency {
	switch Currency(s) {
	case BRL, USD, EUR:
		return Currency(s)
	default:
		return BRL
	}
}

// Rates is the mutable rate table: units of BRL per one unit of foreign
// currency. BRL is fixed at 1 and Normalize re-pins it after any update.
type Rates struct {
	BRL float64 `json:"BRL"`
	USD float64 `json:"USD"`
	EUR float64 `json:"EUR"`
}

// DefaultRates returns the built-in seed table used before the first
// explicit rate update.
func DefaultRates() Rates {
	return Rates{BRL: 1, USD: 5.0, EUR: 5.5}
}

// Rate returns the BRL conversion rate for c. The zero or unknown currency
// is treated as BRL.
func (r Rates) Rate(c Currency) float64 {
	switch c {
	case USD:
		return r.USD
	case EUR:
		return r.EUR
	default:
		return 1
	}
}

// Normalize pins BRL back to 1 and replaces non-finite or non-positive
// foreign rates with the defaults.
func (r Rates) Normalize() Rates {
	def := DefaultRates()
	r.BRL = 1
	if !isPositiveFinite(r.USD) {
		r.USD = def.USD
	}
	if !isPositiveFinite(r.EUR) {
		r.EUR = def.EUR
	}
	return r
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

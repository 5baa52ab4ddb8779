package core

import (
	"math"
	"time"
)

// ClampAmount turns any non-finite or negative amount into 0 so that every
// derived computation stays total. Amounts are magnitudes; the transaction
// type carries the sign.
func ClampAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// ClampDate replaces the zero time with now.
func ClampDate(t time.Time, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MonthStart returns midnight UTC on the first day of t's month, offset by
// delta months.
func MonthStart(t time.Time, delta int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
}

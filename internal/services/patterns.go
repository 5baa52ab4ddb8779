package services

import (
	"financas/internal/core"
)

// DayPattern is the spending profile of one calendar weekday.
type DayPattern struct {
	Weekday         int     `json:"weekday"` // 0=Sunday .. 6=Saturday
	Label           string  `json:"label"`
	Count           int     `json:"count"`
	AverageSpending float64 `json:"averageSpending"`
	Percentage      float64 `json:"percentage"`
	Trend           string  `json:"trend"`
}

const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

var weekdayLabels = [7]string{
	"Domingo", "Segunda", "Terça", "Quarta", "Quinta", "Sexta", "Sábado",
}

// WeekdayPatterns computes average expense spending per calendar weekday in
// fixed Sunday-to-Saturday order. Days without expenses report a zero
// average rather than being skipped. Each day's trend compares its average
// against 120% / 80% of the mean of the seven per-day averages.
func (a *Analytics) WeekdayPatterns() []DayPattern {
	var totals [7]float64
	var counts [7]int
	for _, tx := range a.store.Transactions() {
		if tx.Type != core.Expense {
			continue
		}
		day := int(tx.Date.Weekday())
		totals[day] += a.ToReferenceCurrency(tx)
		counts[day]++
	}

	out := make([]DayPattern, 7)
	var sumAverages float64
	for d := 0; d < 7; d++ {
		avg := 0.0
		if counts[d] > 0 {
			avg = totals[d] / float64(counts[d])
		}
		out[d] = DayPattern{
			Weekday:         d,
			Label:           weekdayLabels[d],
			Count:           counts[d],
			AverageSpending: avg,
		}
		sumAverages += avg
	}

	overall := sumAverages / 7
	for d := range out {
		if sumAverages > 0 {
			out[d].Percentage = out[d].AverageSpending / sumAverages * 100
		}
		switch {
		case out[d].AverageSpending > overall*1.2:
			out[d].Trend = TrendIncreasing
		case out[d].AverageSpending < overall*0.8:
			out[d].Trend = TrendDecreasing
		default:
			out[d].Trend = TrendStable
		}
	}
	return out
}

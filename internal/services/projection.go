package services

import (
	"math"

	"financas/internal/core"
)

// Scenario selects the scaling applied to a base projection.
type Scenario string

const (
	Pessimistic Scenario = "pessimistic"
	Realistic   Scenario = "realistic"
	Optimistic  Scenario = "optimistic"
)

// ParseScenario defaults unknown input to the realistic scenario.
func ParseScenario(s string) Scenario {
	switch Scenario(s) {
	case Pessimistic, Optimistic:
		return Scenario(s)
	default:
		return Realistic
	}
}

// ProjectedMonth is one future month of a projection.
type ProjectedMonth struct {
	Label      string  `json:"label"`
	Income     float64 `json:"income"`
	Expenses   float64 `json:"expenses"`
	Balance    float64 `json:"balance"`
	Confidence int     `json:"confidence"`
}

// fallbackConfidence applies when there is not enough history for a trend.
const fallbackConfidence = 30

// Project extrapolates the balance over the next months under the given
// scenario. With fewer than two months of recorded activity it falls back
// to a salary-based heuristic; otherwise it projects the historical trend
// adjusted for volatility and scheduled recurring impact. The running
// balance is seeded from the current available balance.
func (a *Analytics) Project(months int, scenario Scenario) []ProjectedMonth {
	if months <= 0 {
		return nil
	}

	history := activeMonths(a.MonthlyData())
	salary := a.store.Salary()
	balance := a.AvailableBalance()
	now := a.now()

	out := make([]ProjectedMonth, 0, months)

	if len(history) < 2 {
		// Salary heuristic: assume expenses run at 70% of salary.
		for i := 1; i <= months; i++ {
			income, expenses := applyScenario(salary, salary*0.7, scenario)
			balance += income - expenses
			out = append(out, ProjectedMonth{
				Label:      core.MonthStart(now, i).Format("Jan/06"),
				Income:     income,
				Expenses:   expenses,
				Balance:    balance,
				Confidence: fallbackConfidence,
			})
		}
		return out
	}

	var sumIncome, sumExpenses float64
	for _, m := range history {
		sumIncome += m.Income
		sumExpenses += m.Expenses
	}
	n := float64(len(history))
	avgIncome := sumIncome / n
	avgExpenses := sumExpenses / n
	expenseTrend := (history[len(history)-1].Expenses - history[0].Expenses) / n

	var variance float64
	for _, m := range history {
		d := m.Expenses - avgExpenses
		variance += d * d
	}
	stdDev := math.Sqrt(variance / n)
	volatility := 0.0
	if avgExpenses > 0 {
		volatility = stdDev / avgExpenses
	}

	rules := a.store.Recurring()
	rates := a.store.Rates()

	for i := 1; i <= months; i++ {
		expenses := math.Max(0, avgExpenses+expenseTrend*float64(i))
		income := salary + (avgIncome - salary)

		for _, r := range rules {
			if !r.Active {
				continue
			}
			count := occurrenceCount(r.Frequency, i)
			if count == 0 {
				continue
			}
			impact := r.Amount * float64(count)
			if r.Currency != "" && r.Currency != core.BRL {
				impact *= rates.Rate(r.Currency)
			}
			if r.Type == core.Income {
				income += impact
			} else {
				expenses += impact
			}
		}

		income, expenses = applyScenario(income, expenses, scenario)
		balance += income - expenses

		out = append(out, ProjectedMonth{
			Label:      core.MonthStart(now, i).Format("Jan/06"),
			Income:     income,
			Expenses:   expenses,
			Balance:    balance,
			Confidence: confidence(i, volatility),
		})
	}
	return out
}

// activeMonths trims the monthly series to buckets with recorded activity;
// the trend needs real observations, not zero-filled padding.
func activeMonths(all []MonthSummary) []MonthSummary {
	out := make([]MonthSummary, 0, len(all))
	for _, m := range all {
		if m.Income != 0 || m.Expenses != 0 {
			out = append(out, m)
		}
	}
	return out
}

// occurrenceCount projects how often a rule fires across a horizon of i
// months. A yearly rule contributes once only when the horizon reaches a
// full year.
func occurrenceCount(f core.Frequency, i int) int {
	switch f {
	case core.Daily:
		return i * 30
	case core.Weekly:
		return i * 4
	case core.Yearly:
		if i >= 12 {
			return 1
		}
		return 0
	default:
		return i
	}
}

// applyScenario scales a month's figures: the pessimistic view inflates
// expenses by 15% and trims income by 5%, the optimistic one does the
// reverse. The realistic view is the base projection unchanged.
func applyScenario(income, expenses float64, s Scenario) (float64, float64) {
	switch s {
	case Pessimistic:
		return income * 0.95, expenses * 1.15
	case Optimistic:
		return income * 1.05, expenses * 0.90
	default:
		return income, expenses
	}
}

// confidence decays with horizon distance and with expense volatility,
// bounded to [.., 95].
func confidence(i int, volatility float64) int {
	base := math.Max(float64(100-i*8), 40)
	penalty := math.Max(0, 20-volatility*100)
	return int(math.Round(math.Min(base-penalty, 95)))
}

package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodWeekly  BudgetPeriod = "weekly"
)

// CategoryOther is the catch-all category empty input collapses into.
const CategoryOther = "Outros"

type (
	TransactionType string
	Frequency       string
	BudgetPeriod    string

	// Split carries informational cost-splitting metadata. The transaction
	// amount is already the per-payer share; Split never affects totals.
	Split struct {
		TotalAmount  float64 `json:"totalAmount"`
		Participants int     `json:"participants"`
	}

	// Transaction is a single financial event. Amount is a non-negative
	// magnitude in the transaction's own currency; the sign is implied by
	// Type. ExchangeRate is locked at creation and never follows later
	// rate-table changes.
	Transaction struct {
		ID           string          `json:"id"`
		Description  string          `json:"description"`
		Amount       float64         `json:"amount"`
		Category     string          `json:"category"`
		Type         TransactionType `json:"type"`
		Date         time.Time       `json:"date"`
		Currency     Currency        `json:"currency"`
		ExchangeRate float64         `json:"exchangeRate"`
		Tags         []string        `json:"tags,omitempty"`
		Recurring    bool            `json:"recurring,omitempty"`
		RecurringID  string          `json:"recurringId,omitempty"`
		Split        *Split          `json:"split,omitempty"`
	}

	// RecurringRule is a template the scheduler expands into transactions.
	// LastExecuted is mutated only by the scheduler and, once set, is
	// monotonically non-decreasing.
	RecurringRule struct {
		ID           string          `json:"id"`
		Description  string          `json:"description"`
		Amount       float64         `json:"amount"`
		Category     string          `json:"category"`
		Type         TransactionType `json:"type"`
		Frequency    Frequency       `json:"frequency"`
		StartDate    time.Time       `json:"startDate"`
		EndDate      *time.Time      `json:"endDate,omitempty"`
		LastExecuted *time.Time      `json:"lastExecuted,omitempty"`
		Active       bool            `json:"active"`
		Currency     Currency        `json:"currency,omitempty"`
		Tags         []string        `json:"tags,omitempty"`
	}

	// Goal is a savings target. CurrentAmount moves only through explicit
	// contributions, never automatically from transactions.
	Goal struct {
		ID            string    `json:"id"`
		Name          string    `json:"name"`
		TargetAmount  float64   `json:"targetAmount"`
		CurrentAmount float64   `json:"currentAmount"`
		Deadline      time.Time `json:"deadline"`
		Category      string    `json:"category"`
		Color         string    `json:"color"`
	}

	// Budget is a per-category spending ceiling. Spent is informational
	// only; live consumption is always recomputed from the ledger.
	Budget struct {
		Category string       `json:"category"`
		Limit    float64      `json:"limit"`
		Period   BudgetPeriod `json:"period"`
		Spent    float64      `json:"spent,omitempty"`
	}

	// SavedMoney is a reserve entry: money moved out of the available
	// balance without being an expense. GoalID is a weak reference to a
	// Goal; the referenced goal may no longer exist.
	SavedMoney struct {
		ID          string    `json:"id"`
		Amount      float64   `json:"amount"`
		Description string    `json:"description"`
		Date        time.Time `json:"date"`
		GoalID      string    `json:"goal,omitempty"`
	}
)

// Categories is the fixed category set offered by the application.
var Categories = []string{
	"Alimentação",
	"Transporte",
	"Moradia",
	"Saúde",
	"Educação",
	"Lazer",
	"Compras",
	"Contas",
	"Salário",
	"Investimentos",
	CategoryOther,
}

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyDescription = errors.New("empty description")
)

// NormalizeCategory maps empty input to the catch-all category. Unknown
// names are kept as-is so user-defined categories survive import.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return CategoryOther
	}
	return s
}

// NormalizeType defaults anything that is not income to expense.
func NormalizeType(t TransactionType) TransactionType {
	if t == Income {
		return Income
	}
	return Expense
}

// ParseFrequency validates a frequency string.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case Daily, Weekly, Monthly, Yearly:
		return Frequency(s), nil
	default:
		return "", ErrInvalidFrequency
	}
}

// NormalizePeriod defaults anything that is not weekly to monthly.
func NormalizePeriod(p BudgetPeriod) BudgetPeriod {
	if p == PeriodWeekly {
		return PeriodWeekly
	}
	return PeriodMonthly
}

func (r RecurringRule) Validate() error {
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if _, err := ParseFrequency(string(r.Frequency)); err != nil {
		return err
	}
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return errors.New("end date must not precede start date")
	}
	return nil
}

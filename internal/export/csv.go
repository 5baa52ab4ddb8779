// Package export renders ledger data for external consumption: CSV and
// JSON files, and an optional Google Sheets target.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// csvHeader is the flattened transaction column set.
var csvHeader = []string{"Date", "Description", "Category", "Type", "Amount"}

// WriteTransactionsCSV writes the transaction log as CSV. Cell values are
// neutralized against spreadsheet formula injection before the usual CSV
// quoting is applied.
func WriteTransactionsCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, tx := range txs {
		row := []string{
			tx.Date.Format("2006-01-02"),
			SanitizeCell(tx.Description),
			SanitizeCell(tx.Category),
			string(tx.Type),
			decimal.NewFromFloat(tx.Amount).StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SanitizeCell defuses values a spreadsheet would interpret as a formula.
// A leading =, +, - or @ gets a quote prefix, and control characters are
// stripped entirely.
func SanitizeCell(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}

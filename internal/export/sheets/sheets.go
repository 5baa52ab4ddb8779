// Package sheets appends exported transactions to a Google spreadsheet.
// It is an optional export target; the core never depends on it.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"financas/internal/core"
	"financas/internal/export"
)

// Appender writes transaction rows to one sheet of one spreadsheet.
type Appender struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Config carries the spreadsheet target and service-account credentials.
// Exactly one of CredentialsJSON or CredentialsFile must be set.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

func New(ctx context.Context, cfg Config) (*Appender, error) {
	if cfg.SpreadsheetID == "" || cfg.SheetName == "" {
		return nil, errors.New("spreadsheet id and sheet name are required")
	}

	var credentials []byte
	switch {
	case cfg.CredentialsJSON != "":
		credentials = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		raw, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentials = raw
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Appender{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
	}, nil
}

// AppendTransactions appends one row per transaction using the same column
// set and cell sanitization as the CSV export.
func (a *Appender) AppendTransactions(ctx context.Context, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []any{
			tx.Date.Format("2006-01-02"),
			export.SanitizeCell(tx.Description),
			export.SanitizeCell(tx.Category),
			string(tx.Type),
			tx.Amount,
		})
	}

	rng := fmt.Sprintf("%s!A:E", a.sheetName)
	vr := &gsheet.ValueRange{Values: rows}
	_, err := a.svc.Spreadsheets.Values.Append(a.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", a.sheetName, err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"financas/internal/backend"
	"financas/internal/config"
	"financas/internal/export"
	"financas/internal/export/sheets"
	"financas/internal/ledger"
	"financas/internal/services"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "financas-cli",
		Short:         "Offline tooling for the financas ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newExportCmd(), newImportCmd(), newCategorizeCmd())
	return root
}

// loadSnapshot opens the configured backend and reads the given user's
// snapshot. Shared by every read-side command.
func loadSnapshot(ctx context.Context, cfg *config.Config, userID string) (ledger.Snapshot, error) {
	snapshots, err := backend.Open(ctx, backend.Config{
		Type:         backend.BackendType(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
		PostgresURL:  cfg.PostgresURL,
	}, slog.Default())
	if err != nil {
		return ledger.Snapshot{}, err
	}
	defer snapshots.Close()

	snap, found, err := snapshots.Load(ctx, userID)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	if !found {
		return ledger.Snapshot{}, fmt.Errorf("no snapshot for user %q", userID)
	}
	return snap, nil
}

func newExportCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's ledger",
	}
	cmd.PersistentFlags().StringVar(&userID, "user", "", "user identity (defaults to LOCAL_USER_ID)")

	resolveUser := func(cfg *config.Config) string {
		if userID != "" {
			return userID
		}
		return cfg.LocalUserID
	}

	csvCmd := &cobra.Command{
		Use:   "csv",
		Short: "Write transactions as CSV to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			snap, err := loadSnapshot(cmd.Context(), cfg, resolveUser(cfg))
			if err != nil {
				return err
			}
			return export.WriteTransactionsCSV(os.Stdout, snap.Transactions)
		},
	}

	jsonCmd := &cobra.Command{
		Use:   "json",
		Short: "Write the full snapshot as JSON to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			snap, err := loadSnapshot(cmd.Context(), cfg, resolveUser(cfg))
			if err != nil {
				return err
			}
			return export.WriteSnapshotJSON(os.Stdout, snap)
		},
	}

	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "Append transactions to the configured Google Sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.SheetsSpreadsheetID == "" {
				return fmt.Errorf("SHEETS_SPREADSHEET_ID is not set")
			}
			snap, err := loadSnapshot(cmd.Context(), cfg, resolveUser(cfg))
			if err != nil {
				return err
			}
			appender, err := sheets.New(cmd.Context(), sheets.Config{
				SpreadsheetID:   cfg.SheetsSpreadsheetID,
				SheetName:       cfg.SheetsSheetName,
				CredentialsJSON: cfg.SheetsCredentialsJSON,
				CredentialsFile: cfg.SheetsCredentialsFile,
			})
			if err != nil {
				return err
			}
			if err := appender.AppendTransactions(cmd.Context(), snap.Transactions); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Appended %d transactions\n", len(snap.Transactions))
			return nil
		},
	}

	cmd.AddCommand(csvCmd, jsonCmd, sheetsCmd)
	return cmd
}

func newImportCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace a user's snapshot with the given JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			if userID == "" {
				userID = cfg.LocalUserID
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			snap, err := ledger.DecodePersisted(raw)
			if err != nil {
				return err
			}

			snapshots, err := backend.Open(cmd.Context(), backend.Config{
				Type:         backend.BackendType(cfg.DataBackend),
				SQLiteDBPath: cfg.SQLiteDBPath,
				PostgresURL:  cfg.PostgresURL,
			}, slog.Default())
			if err != nil {
				return err
			}
			defer snapshots.Close()

			if err := snapshots.Save(cmd.Context(), userID, snap); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Imported %d transactions for %s\n", len(snap.Transactions), userID)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user identity (defaults to LOCAL_USER_ID)")
	return cmd
}

func newCategorizeCmd() *cobra.Command {
	var rulesFile string

	cmd := &cobra.Command{
		Use:   "categorize <description>...",
		Short: "Show which category each description resolves to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			categorizer := services.NewCategorizer()
			if rulesFile != "" {
				var err error
				categorizer, err = services.LoadCategorizer(rulesFile)
				if err != nil {
					return err
				}
			}
			for _, desc := range args {
				fmt.Printf("%s\t%s\n", desc, categorizer.Categorize(desc))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rulesFile, "rules", "", "TOML rules file (defaults to built-in rules)")
	return cmd
}

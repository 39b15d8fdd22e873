package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/amendment-desk/internal/cli"
	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/config"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newExporter builds the spreadsheet writer. Tests replace it.
var newExporter = func(ctx context.Context, cfg sheets.Config, logger *slog.Logger) (sheets.Exporter, error) {
	return sheets.NewWriter(ctx, cfg, logger)
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <contract-id>",
		Short: "Export a contract's history to Google Sheets",
		Long: `Export a contract's key terms, version history, amendments, and their
status changes to a Google Sheets spreadsheet.

Authenticate first with 'amend auth sheets', or configure a service account
with sheets.service_account_path.`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().String("spreadsheet-id", "", "Write into this spreadsheet instead of creating one")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sheetsCfg, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to load sheets configuration: %w", err)
	}
	if id, _ := cmd.Flags().GetString("spreadsheet-id"); id != "" {
		sheetsCfg.SpreadsheetID = id
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	contract, err := store.GetContract(ctx, args[0])
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("contract %s not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to load contract: %w", err)
	}

	statusHistory := make(map[string][]model.StatusChange, len(contract.Amendments))
	for _, a := range contract.Amendments {
		changes, err := store.GetStatusHistory(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("failed to load status history for %s: %w", a.ID, err)
		}
		statusHistory[a.ID] = changes
	}

	data := sheets.BuildTabData(contract, statusHistory, time.Now())

	exporter, err := newExporter(ctx, *sheetsCfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}

	slog.Info("Exporting contract history",
		"contract_id", contract.ID,
		"versions", len(data.History),
		"amendments", len(data.Amendments))

	url, err := exporter.Write(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Exported %s", contract.KeyTerms.PropertyAddress)))
	fmt.Fprintln(out, cli.InfoStyle.Render("  "+url))
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/amendment-desk/internal/amendment"
	"github.com/Veraticus/amendment-desk/internal/cli"
	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/tui"
	"github.com/Veraticus/amendment-desk/internal/tui/themes"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <contract-id>",
		Short: "Show a contract's version history and pending amendments",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistory,
	}

	cmd.Flags().Bool("tui", false, "Browse the history full screen")
	cmd.Flags().String("theme", "default", "Color theme (default, catppuccin-mocha)")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	interactive, _ := cmd.Flags().GetBool("tui")
	themeName, _ := cmd.Flags().GetString("theme")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	load := func(ctx context.Context) (*model.Contract, error) {
		return store.GetContract(ctx, args[0])
	}

	contract, err := load(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("contract %s not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to load contract: %w", err)
	}

	theme := themes.GetTheme(themeName)

	if interactive {
		restore, err := redirectLogs()
		if err != nil {
			return err
		}
		defer restore()
		return tui.RunHistory(ctx, contract, load, tui.WithTheme(theme))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle("Contract history: "+contract.KeyTerms.PropertyAddress))
	fmt.Fprintln(out, tui.RenderVersions(theme, amendment.GetVersionHistory(contract)))
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.SubtitleStyle.Render("Pending amendments"))
	fmt.Fprintln(out, tui.RenderPending(theme, amendment.GetPendingAmendments(contract)))
	return nil
}

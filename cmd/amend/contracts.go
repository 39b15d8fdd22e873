package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Veraticus/amendment-desk/internal/amendment"
	"github.com/Veraticus/amendment-desk/internal/cli"
	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/service"
	"github.com/spf13/cobra"
)

func contractsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contracts",
		Aliases: []string{"contract"},
		Short:   "Manage purchase contracts",
	}

	cmd.AddCommand(contractsCreateCmd())
	cmd.AddCommand(contractsListCmd())
	cmd.AddCommand(contractsShowCmd())

	return cmd
}

func contractsCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a contract at version 1",
		Example: `  amend contracts create --address "12 Elm St" --buyer "Dana Reyes" \
    --seller "Sam Okafor" --price '$425,000' --earnest '$10,000' --closing 2026-04-15`,
		RunE: runContractsCreate,
	}

	cmd.Flags().String("address", "", "Property address (required)")
	cmd.Flags().String("buyer", "", "Buyer name")
	cmd.Flags().String("seller", "", "Seller name")
	cmd.Flags().String("price", "", "Purchase price")
	cmd.Flags().String("earnest", "", "Earnest money deposit")
	cmd.Flags().String("closing", "", "Closing date")
	cmd.Flags().String("content", "", "Contract text")
	cmd.Flags().String("content-file", "", "Read the contract text from a file")
	cmd.Flags().String("by", "", "Who is opening the contract")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}

func runContractsCreate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	address, _ := cmd.Flags().GetString("address")
	buyer, _ := cmd.Flags().GetString("buyer")
	seller, _ := cmd.Flags().GetString("seller")
	price, _ := cmd.Flags().GetString("price")
	earnest, _ := cmd.Flags().GetString("earnest")
	closing, _ := cmd.Flags().GetString("closing")
	content, _ := cmd.Flags().GetString("content")
	contentFile, _ := cmd.Flags().GetString("content-file")
	by, _ := cmd.Flags().GetString("by")

	terms := model.KeyTerms{
		PropertyAddress: address,
		BuyerName:       buyer,
		SellerName:      seller,
	}

	var err error
	if price != "" {
		if terms.PurchasePrice, err = parseMoney(price); err != nil {
			return fmt.Errorf("--price: %w", err)
		}
	}
	if earnest != "" {
		if terms.EarnestMoney, err = parseMoney(earnest); err != nil {
			return fmt.Errorf("--earnest: %w", err)
		}
	}
	if closing != "" {
		if terms.ClosingDate, err = parseDay(closing); err != nil {
			return fmt.Errorf("--closing: %w", err)
		}
	}

	if contentFile != "" {
		data, err := os.ReadFile(filepath.Clean(contentFile))
		if err != nil {
			return fmt.Errorf("failed to read contract text: %w", err)
		}
		content = string(data)
	}
	if content == "" {
		content = fmt.Sprintf("Purchase contract for %s.", address)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	contract, err := store.CreateContract(ctx, service.NewContract{
		KeyTerms:      terms,
		Content:       content,
		CreatedByName: actorName(by),
	})
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Contract created for %s", contract.KeyTerms.PropertyAddress)))
	fmt.Fprintln(out, cli.InfoStyle.Render(fmt.Sprintf("  ID: %s", contract.ID)))
	return nil
}

func contractsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contracts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			search, _ := cmd.Flags().GetString("search")
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			contracts, err := store.ListContracts(ctx, service.ContractFilter{Search: search, Limit: limit})
			if err != nil {
				return fmt.Errorf("failed to list contracts: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(contracts) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No contracts found. Create one with: amend contracts create --address ..."))
				return nil
			}

			rows := make([][]string, 0, len(contracts))
			for _, c := range contracts {
				rows = append(rows, []string{
					c.ID,
					c.KeyTerms.PropertyAddress,
					model.FormatCurrency(c.KeyTerms.PurchasePrice),
					formatDay(c.KeyTerms.ClosingDate),
					c.KeyTerms.BuyerName,
					"v" + strconv.Itoa(c.CurrentVersion.Version),
				})
			}

			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Contracts (%d)", len(contracts))))
			fmt.Fprintln(out, cli.RenderTable([]string{"ID", "PROPERTY", "PRICE", "CLOSING", "BUYER", "VERSION"}, rows))
			return nil
		},
	}

	cmd.Flags().String("search", "", "Filter by address, buyer, or seller")
	cmd.Flags().Int("limit", 50, "Maximum number of contracts to show")
	return cmd
}

func contractsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <contract-id>",
		Short: "Show a contract's key terms and current text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			c, err := store.GetContract(ctx, args[0])
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("contract %s not found", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to load contract: %w", err)
			}

			terms := fmt.Sprintf("Buyer:     %s\nSeller:    %s\nPrice:     %s\nEarnest:   %s\nClosing:   %s\nVersion:   v%d",
				c.KeyTerms.BuyerName,
				c.KeyTerms.SellerName,
				model.FormatCurrency(c.KeyTerms.PurchasePrice),
				model.FormatCurrency(c.KeyTerms.EarnestMoney),
				formatDay(c.KeyTerms.ClosingDate),
				c.CurrentVersion.Version,
			)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.RenderBox(c.KeyTerms.PropertyAddress, terms))
			fmt.Fprintln(out)
			fmt.Fprintln(out, c.CurrentVersion.Content)

			if pending := amendment.GetPendingAmendments(c); len(pending) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d amendment(s) pending. See: amend history %s", len(pending), c.ID)))
			}
			return nil
		},
	}
}

package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Veraticus/amendment-desk/internal/catalog"
	"github.com/Veraticus/amendment-desk/internal/cli"
	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/spf13/cobra"
)

func amendmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "amendments",
		Aliases: []string{"amendment"},
		Short:   "Review and approve amendments",
		Long: `Move amendments through review:

  pending_review -> pending_signature -> approved
                 \-> rejected         \-> rejected

Approving an amendment applies it as the contract's next version.`,
	}

	cmd.PersistentFlags().String("actor", "", "Who is making the change (default: wizard.actor)")

	cmd.AddCommand(amendmentsListCmd())
	cmd.AddCommand(amendmentsShowCmd())
	cmd.AddCommand(amendmentsTransitionCmd("sign", "Send an amendment out for signatures", model.AmendmentPendingSignature))
	cmd.AddCommand(amendmentsTransitionCmd("approve", "Approve a signed amendment", model.AmendmentApproved))
	cmd.AddCommand(amendmentsTransitionCmd("reject", "Reject an amendment", model.AmendmentRejected))

	return cmd
}

func amendmentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <contract-id>",
		Short: "List a contract's amendments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			amendments, err := store.ListAmendments(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to list amendments: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(amendments) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No amendments yet. Draft one with: amend addendum "+args[0]))
				return nil
			}

			rows := make([][]string, 0, len(amendments))
			for _, a := range amendments {
				rows = append(rows, []string{
					a.ID,
					a.Title,
					statusLabel(a.Status),
					a.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}

			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Amendments (%d)", len(amendments))))
			fmt.Fprintln(out, cli.RenderTable([]string{"ID", "TITLE", "STATUS", "CREATED"}, rows))
			return nil
		},
	}
}

func amendmentsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <amendment-id>",
		Short: "Show an amendment, its details, and its status history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			a, err := store.GetAmendment(ctx, args[0])
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("amendment %s not found", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to load amendment: %w", err)
			}

			changes, err := store.GetStatusHistory(ctx, a.ID)
			if err != nil {
				return fmt.Errorf("failed to load status history: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.RenderBox(a.Title, fmt.Sprintf("Status:    %s\nContract:  %s\n\n%s",
				statusLabel(a.Status), a.ContractID, detailLines(a))))
			fmt.Fprintln(out)
			fmt.Fprintln(out, a.Content)
			fmt.Fprintln(out)

			rows := make([][]string, 0, len(changes))
			for _, c := range changes {
				from := "-"
				if c.From != "" {
					from = statusLabel(c.From)
				}
				rows = append(rows, []string{
					c.ChangedAt.Local().Format("2006-01-02 15:04"),
					from,
					statusLabel(c.To),
					c.Actor,
				})
			}
			fmt.Fprintln(out, cli.SubtitleStyle.Render("Status history"))
			fmt.Fprintln(out, cli.RenderTable([]string{"WHEN", "FROM", "TO", "BY"}, rows))
			return nil
		},
	}
}

// detailLines lists captured values in catalog field order.
func detailLines(a *model.ContractAmendment) string {
	info, err := catalog.Default().GetInfo(a.AddendumType)
	if err != nil {
		keys := make([]string, 0, len(a.Details))
		for k := range a.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var s string
		for _, k := range keys {
			s += fmt.Sprintf("%s: %s\n", k, a.Details[k].String())
		}
		return s
	}

	var s string
	for _, f := range info.RequiredFields {
		if v, ok := a.Details[f.Key]; ok {
			s += fmt.Sprintf("%s: %s\n", f.Label, v.String())
		}
	}
	return s
}

func amendmentsTransitionCmd(use, short string, to model.AmendmentStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <amendment-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, _ := cmd.Flags().GetString("actor")

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			current, err := store.GetAmendment(ctx, args[0])
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("amendment %s not found", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to load amendment: %w", err)
			}
			if !current.Status.CanTransitionTo(to) {
				return fmt.Errorf("amendment %s is %s and cannot move to %s", current.ID, statusLabel(current.Status), statusLabel(to))
			}

			// Approval rewrites the contract, so keep a restore point.
			if to == model.AmendmentApproved {
				cm, err := store.NewCheckpointManager()
				if err != nil {
					return fmt.Errorf("failed to create checkpoint manager: %w", err)
				}
				if _, err := cm.AutoCheckpoint(ctx, "approve"); err != nil {
					return fmt.Errorf("failed to create checkpoint before approval: %w", err)
				}
			}

			updated, err := store.UpdateAmendmentStatus(ctx, current.ID, to, actorName(actor))
			if err != nil {
				return fmt.Errorf("failed to update amendment: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s is now %s", updated.Title, statusLabel(updated.Status))))

			if to == model.AmendmentApproved {
				contract, err := store.GetContract(ctx, updated.ContractID)
				if err != nil {
					return fmt.Errorf("failed to reload contract: %w", err)
				}
				fmt.Fprintln(out, cli.InfoStyle.Render(fmt.Sprintf("  Contract is now at v%d", contract.CurrentVersion.Version)))
			}
			return nil
		},
	}
}

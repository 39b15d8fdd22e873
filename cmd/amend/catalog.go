package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/amendment-desk/internal/catalog"
	"github.com/Veraticus/amendment-desk/internal/cli"
	"github.com/spf13/cobra"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the addendum types the wizard can draft",
		RunE: func(cmd *cobra.Command, _ []string) error {
			common, _ := cmd.Flags().GetBool("common")

			c := catalog.Default()
			types := c.ListAll()
			if common {
				types = c.ListCommon()
			}

			rows := make([][]string, 0, len(types))
			for _, info := range types {
				fields := make([]string, 0, len(info.RequiredFields))
				for _, f := range info.RequiredFields {
					fields = append(fields, fmt.Sprintf("%s (%s)", f.Label, f.Type))
				}
				star := ""
				if info.CommonlyUsed {
					star = "★"
				}
				rows = append(rows, []string{star, info.Label, string(info.Type), strings.Join(fields, ", ")})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Addendum types (%d)", len(types))))
			fmt.Fprintln(out, cli.RenderTable([]string{"", "TYPE", "TAG", "FIELDS"}, rows))
			return nil
		},
	}

	cmd.Flags().Bool("common", false, "Only show commonly used types")
	return cmd
}

package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"wishlist-tracker/catalog"
)

func newListsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Manages the catalog of wish lists to scrape.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME URL",
		Short: "Adds a wish list to the catalog.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, flags)
			if err != nil {
				return err
			}

			added, err := catalog.Add(a.cfg.CatalogPath, args[0], args[1])
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already in the catalog\n", args[1])
				return nil
			}
			a.logger.Info("[catalog] Added %q to %s", args[0], a.cfg.CatalogPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Lists the wish lists in the catalog.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, flags)
			if err != nil {
				return err
			}

			entries, err := catalog.Load(a.cfg.CatalogPath)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Name", "URL"})
			for _, e := range entries {
				t.AppendRow(table.Row{e.Name, e.URL})
			}
			t.Render()
			return nil
		},
	})

	return cmd
}

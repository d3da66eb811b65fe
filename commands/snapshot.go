package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"wishlist-tracker/models"
	"wishlist-tracker/services"
	"wishlist-tracker/storage"
)

func newSnapshotCmd(flags *globalFlags) *cobra.Command {
	var sortBy string

	cmd := &cobra.Command{
		Use:   "snapshot [--sort name|price|list]",
		Short: "Shows the latest known state of every tracked item.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			return printSnapshot(cmd.Context(), a.store(), sortBy, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "name", "Sort by name, price or list.")
	return cmd
}

func printSnapshot(ctx context.Context, snap storage.SnapshotReader, sortBy string, w io.Writer) error {
	rows, err := snap.CurrentSnapshot(ctx)
	if err != nil {
		return err
	}
	if err := sortSnapshot(rows, sortBy); err != nil {
		return err
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Item", "Name", "By", "List", "Price", "Used & New", "Rating", "Reviews", "Captured"})
	for _, r := range rows {
		captured := models.NotAvailable
		if r.HasObservation() {
			captured = r.CapturedAt.Local().Format(time.DateTime)
		}
		t.AppendRow(table.Row{
			r.ItemID, r.Name, r.ByLine, r.ListName,
			r.Price, r.UsedNewPrice, r.Rating, r.ReviewCount, captured,
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d items", len(rows))})
	t.Render()
	return nil
}

// sortSnapshot orders rows in place. Items without a usable price sort
// after priced ones.
func sortSnapshot(rows []models.SnapshotRow, by string) error {
	var less func(a, b models.SnapshotRow) bool
	switch by {
	case "name":
		less = func(a, b models.SnapshotRow) bool { return a.Name < b.Name }
	case "list":
		less = func(a, b models.SnapshotRow) bool {
			if a.ListName != b.ListName {
				return a.ListName < b.ListName
			}
			return a.Name < b.Name
		}
	case "price":
		less = func(a, b models.SnapshotRow) bool {
			pa, okA := services.ParsePrice(a.Price.OrElse(""))
			pb, okB := services.ParsePrice(b.Price.OrElse(""))
			if okA != okB {
				return okA
			}
			if pa != pb {
				return pa < pb
			}
			return a.Name < b.Name
		}
	default:
		return fmt.Errorf("unknown sort %q (want name, price or list)", by)
	}

	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	return nil
}

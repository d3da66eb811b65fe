package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"wishlist-tracker/storage"
)

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history ITEM_ID",
		Short: "Shows every captured observation of one item.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			return printHistory(cmd.Context(), a.store(), args[0], cmd.OutOrStdout())
		},
	}
}

func printHistory(ctx context.Context, r storage.HistoryReader, itemID string, w io.Writer) error {
	history, err := r.History(ctx, itemID)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("no observations for item %q", itemID)
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Captured", "List", "Price", "Used & New", "Rating", "Reviews"})
	for _, o := range history {
		t.AppendRow(table.Row{
			o.CapturedAt.Local().Format(time.DateTime),
			o.ListName, o.Price, o.UsedNewPrice, o.Rating, o.ReviewCount,
		})
	}
	t.Render()
	return nil
}

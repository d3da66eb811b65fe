package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"wishlist-tracker/services"
	"wishlist-tracker/storage"
)

func newReportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Prints price and rating insights over the tracked items.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			store := a.store()
			svc := services.NewInsightService(a.logger)
			return writeReport(cmd.Context(), store, store, svc, cmd.OutOrStdout())
		},
	}
}

func writeReport(ctx context.Context, snap storage.SnapshotReader, hist storage.HistoryReader, svc *services.InsightService, w io.Writer) error {
	snapshot, err := snap.CurrentSnapshot(ctx)
	if err != nil {
		return err
	}
	prices, err := hist.PriceSeries(ctx, storage.ListPrice)
	if err != nil {
		return err
	}

	svc.Print(svc.Generate(snapshot, prices), w)
	return nil
}

package commands

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"wishlist-tracker/storage"
)

func newExportCmd(flags *globalFlags) *cobra.Command {
	var snapshotPath, historyPath string

	cmd := &cobra.Command{
		Use:   "export [--snapshot FILE] [--history FILE]",
		Short: "Exports the current snapshot and/or the full history as CSV. Use - for stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if snapshotPath == "" && historyPath == "" {
				return errors.New("nothing to export: pass --snapshot and/or --history")
			}

			a, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			store := a.store()

			if snapshotPath != "" {
				n, err := exportSnapshot(cmd.Context(), store, snapshotPath, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				a.logger.Info("[export] %d snapshot rows → %s", n, snapshotPath)
			}

			if historyPath != "" {
				n, err := exportHistory(cmd.Context(), store, historyPath, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				a.logger.Info("[export] %d observations → %s", n, historyPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Write the current snapshot to this CSV file.")
	cmd.Flags().StringVar(&historyPath, "history", "", "Write every observation to this CSV file.")
	return cmd
}

func exportSnapshot(ctx context.Context, r storage.SnapshotReader, path string, stdout io.Writer) (int, error) {
	rows, err := r.CurrentSnapshot(ctx)
	if err != nil {
		return 0, err
	}
	return len(rows), writeCSV(path, stdout, func(w *storage.CSVWriter) error {
		return w.WriteSnapshot(rows)
	})
}

func exportHistory(ctx context.Context, r storage.HistoryReader, path string, stdout io.Writer) (int, error) {
	history, err := r.History(ctx, "")
	if err != nil {
		return 0, err
	}
	return len(history), writeCSV(path, stdout, func(w *storage.CSVWriter) error {
		return w.WriteHistory(history)
	})
}

func writeCSV(path string, stdout io.Writer, write func(*storage.CSVWriter) error) error {
	var w *storage.CSVWriter
	if path == "-" {
		w = storage.NewCSVWriterTo(stdout)
	} else {
		var err error
		if w, err = storage.NewCSVWriter(path); err != nil {
			return err
		}
	}

	if err := write(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

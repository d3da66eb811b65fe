package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"wishlist-tracker/config"
	"wishlist-tracker/storage"
	"wishlist-tracker/utils"
)

type globalFlags struct {
	db      string
	driver  string
	catalog string
	verbose bool
}

// Execute runs the CLI and exits non-zero on error. An interrupt cancels
// the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "wishlist-tracker",
		Short:         "wishlist-tracker scrapes wish lists and tracks item prices over time.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.db, "db", "", "SQLite database file (overrides STORAGE_PATH).")
	pf.StringVar(&flags.driver, "driver", "", "Storage driver: sqlite or postgres (overrides STORAGE_DRIVER).")
	pf.StringVar(&flags.catalog, "catalog", "", "List catalog file (overrides CATALOG_PATH).")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging.")

	root.AddCommand(
		newScrapeCmd(flags),
		newListsCmd(flags),
		newSnapshotCmd(flags),
		newHistoryCmd(flags),
		newReportCmd(flags),
		newExportCmd(flags),
	)
	return root
}

// app carries what every subcommand needs once flags are applied.
type app struct {
	cfg    *config.Config
	logger *utils.Logger
}

func setup(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	cfg := config.Load()
	if flags.db != "" {
		cfg.StoragePath = flags.db
	}
	if flags.driver != "" {
		cfg.StorageDriver = flags.driver
	}
	if flags.catalog != "" {
		cfg.CatalogPath = flags.catalog
	}
	if flags.verbose {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := utils.NewLoggerTo(cmd.ErrOrStderr())
	logger.SetDebug(cfg.Debug)
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) store() *storage.TemporalStore {
	s := storage.NewTemporalStore(a.cfg.StorageDriver, a.cfg.DSN(), a.logger)
	if a.cfg.StorageDriver == config.DriverPostgres {
		// give a freshly started container time to accept connections
		s.WithPingRetry(5, 2*time.Second)
	}
	return s
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

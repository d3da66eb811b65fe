package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"wishlist-tracker/catalog"
	"wishlist-tracker/config"
	"wishlist-tracker/scraper/wishlist"
	"wishlist-tracker/services"
	"wishlist-tracker/utils"
)

// newLoader builds the page loader for a scrape run. Tests replace it.
var newLoader = func(cfg *config.Config, cookie string, logger *utils.Logger) services.ListLoader {
	return wishlist.NewLoader(cfg, wishlist.NewChromeSessionFactory(cfg, cookie), logger)
}

func newScrapeCmd(flags *globalFlags) *cobra.Command {
	var listName string

	cmd := &cobra.Command{
		Use:   "scrape [--list NAME]",
		Short: "Scrapes every list in the catalog and appends the results to the store.",
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
			if listName != "" {
				entry, ok := catalog.Find(entries, listName)
				if !ok {
					return fmt.Errorf("no list named %q in %s", listName, a.cfg.CatalogPath)
				}
				entries = []catalog.Entry{entry}
			}
			if len(entries) == 0 {
				a.logger.Warn("[scrape] Catalog %s is empty, add a list with `lists add`", a.cfg.CatalogPath)
				return nil
			}

			cookie, err := config.LoadCookie(a.cfg.CookieFile)
			if err != nil {
				a.logger.Warn("[scrape] No session cookie (%v), private lists will not load", err)
			}

			a.logger.Info("=== Scraping %d lists | settle: %v | scroll attempts: %d | rate: %dms ===",
				len(entries), a.cfg.Wait.SettleTime, a.cfg.Wait.MaxScrollAttempts, a.cfg.RateLimitMs)

			pipeline := services.NewPipeline(a.cfg, newLoader(a.cfg, cookie, a.logger), a.store(), a.logger)
			summary, err := pipeline.Run(cmd.Context(), entries)
			printSummary(cmd, summary)
			return err
		},
	}

	cmd.Flags().StringVar(&listName, "list", "", "Only scrape the catalog entry with this name.")
	return cmd
}

func printSummary(cmd *cobra.Command, summary services.RunSummary) {
	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"List", "Items", "Appended", "Skipped", "Failed rows", "Error"})
	for _, l := range summary.Lists {
		errText := ""
		if l.Err != nil {
			errText = l.Err.Error()
		}
		t.AppendRow(table.Row{l.Name, l.Fragments, l.Appended, l.Skipped, l.RowFailures, errText})
	}
	t.Render()
}

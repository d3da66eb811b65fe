package services

import (
	"context"
	"errors"
	"time"

	"wishlist-tracker/catalog"
	"wishlist-tracker/config"
	"wishlist-tracker/scraper/wishlist"
	"wishlist-tracker/storage"
	"wishlist-tracker/utils"
)

// ListLoader materialises one list page into item fragments.
type ListLoader interface {
	Load(ctx context.Context, url string, policy config.WaitPolicy) ([]wishlist.Fragment, error)
}

// ListResult is the outcome of scraping one catalog entry.
type ListResult struct {
	Name        string
	URL         string
	Fragments   int
	Appended    int
	Skipped     int
	RowFailures int
	Err         error
}

// RunSummary collects the per-list results of one pipeline run.
type RunSummary struct {
	Lists     []ListResult
	Duplicate int
}

// Failed returns the number of lists that could not be loaded.
func (s RunSummary) Failed() int {
	n := 0
	for _, l := range s.Lists {
		if l.Err != nil {
			n++
		}
	}
	return n
}

// Pipeline runs catalog → loader → normalizer → store, one list at a time.
type Pipeline struct {
	loader     ListLoader
	normalizer *Normalizer
	store      storage.BatchAppender
	throttle   *utils.Throttle
	policy     config.WaitPolicy
	logger     *utils.Logger
	now        func() time.Time
}

// NewPipeline wires a pipeline from its collaborators.
func NewPipeline(cfg *config.Config, loader ListLoader, store storage.BatchAppender, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		loader:     loader,
		normalizer: NewNormalizer(logger),
		store:      store,
		throttle:   utils.NewThrottle(cfg.RateLimitMs),
		policy:     cfg.Wait,
		logger:     logger,
		now:        time.Now,
	}
}

// WithThrottle replaces the pause between consecutive lists.
func (p *Pipeline) WithThrottle(t *utils.Throttle) *Pipeline {
	p.throttle = t
	return p
}

// WithClock replaces the capture-time source.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Run scrapes every entry in order. A list that fails to load is recorded
// and skipped. Unavailable storage stops the run and is returned, even when
// no list loads.
func (p *Pipeline) Run(ctx context.Context, entries []catalog.Entry) (RunSummary, error) {
	var summary RunSummary
	visited := utils.NewURLSet()

	if err := p.store.Ping(ctx); err != nil {
		p.logger.Error("[pipeline] Store is not reachable: %v", err)
		return summary, err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if !visited.Add(entry.URL) {
			p.logger.Debug("[pipeline] %q: %s already scraped in this run", entry.Name, entry.URL)
			summary.Duplicate++
			continue
		}

		p.throttle.Wait()

		result, err := p.runList(ctx, entry)
		summary.Lists = append(summary.Lists, result)
		if err != nil {
			p.logger.Error("[pipeline] %q: aborting run: %v", entry.Name, err)
			return summary, err
		}
	}

	p.logger.Info("[pipeline] Done: %d lists scraped, %d failed, %d duplicate URLs",
		len(summary.Lists), summary.Failed(), summary.Duplicate)
	return summary, nil
}

func (p *Pipeline) runList(ctx context.Context, entry catalog.Entry) (ListResult, error) {
	result := ListResult{Name: entry.Name, URL: entry.URL}
	p.logger.Info("[pipeline] Loading list %q", entry.Name)

	fragments, err := p.loader.Load(ctx, entry.URL, p.policy)
	if err != nil {
		var loadErr *wishlist.LoadError
		if errors.As(err, &loadErr) {
			p.logger.Warn("[pipeline] %q: %v", entry.Name, err)
			result.Err = err
			return result, nil
		}
		result.Err = err
		return result, err
	}
	result.Fragments = len(fragments)

	batch := p.normalizer.Normalize(fragments, entry.Name, p.now().UTC())
	result.Skipped = len(batch.Skipped)

	res, err := p.store.Append(ctx, batch.Identities, batch.Observations)
	if err != nil {
		result.Err = err
		return result, err
	}
	result.Appended = res.Observations
	result.RowFailures = len(res.Failures)

	p.logger.Info("[pipeline] %q: %d fragments, %d appended, %d skipped, %d failed rows",
		entry.Name, result.Fragments, result.Appended, result.Skipped, result.RowFailures)
	return result, nil
}

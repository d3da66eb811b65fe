package wishlist

import (
	"context"
	"fmt"
	"time"

	"wishlist-tracker/config"
	"wishlist-tracker/utils"
)

// Loader drives one browser session per call to fully expand a lazily
// paginated wish-list page and split it into item fragments.
type Loader struct {
	selector   string
	newSession SessionFactory
	logger     *utils.Logger
	sleep      func(time.Duration)
}

// NewLoader creates a Loader that finds items with cfg.ItemSelector.
func NewLoader(cfg *config.Config, newSession SessionFactory, logger *utils.Logger) *Loader {
	return &Loader{
		selector:   cfg.ItemSelector,
		newSession: newSession,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// WithSleep swaps the blocking sleep used for scroll steps and settling.
func (l *Loader) WithSleep(fn func(time.Duration)) *Loader {
	l.sleep = fn
	return l
}

// Load opens a session, scrolls to the bottom once, waits a single settle
// interval and reads the document. The session is closed on every path.
//
// There is no check that the item count stopped growing: one settle
// interval is assumed to be enough, so very long lists may come back
// truncated.
func (l *Loader) Load(ctx context.Context, url string, policy config.WaitPolicy) ([]Fragment, error) {
	session, err := l.newSession(ctx)
	if err != nil {
		return nil, &LoadError{URL: url, Err: fmt.Errorf("%w: %w", ErrSessionStart, err)}
	}
	defer func() {
		if err := session.Close(); err != nil {
			l.logger.Warn("[loader] closing session for %s: %v", url, err)
		}
	}()

	if err := session.Navigate(url); err != nil {
		return nil, &LoadError{URL: url, Err: err}
	}

	// Scroll failures are transient: retry until one succeeds or the
	// budget runs out, then settle regardless.
	scroll := &utils.RetryConfig{
		MaxAttempts: policy.MaxScrollAttempts,
		BaseDelay:   policy.ScrollStepDelay,
		Backoff:     utils.ConstantBackoff,
		Sleep:       l.sleep,
		Logger:      l.logger,
	}
	if err := scroll.Do("scroll-to-bottom", session.ScrollToBottom); err != nil {
		l.logger.Warn("[loader] %s: scrolling never succeeded, reading page as-is: %v", url, err)
	}

	l.logger.Debug("[loader] %s: settling for %v", url, policy.SettleTime)
	if policy.SettleTime > 0 {
		l.sleep(policy.SettleTime)
	}

	document, err := session.HTML()
	if err != nil {
		return nil, &LoadError{URL: url, Err: err}
	}

	fragments, err := ParseFragments(document, l.selector)
	if err != nil {
		return nil, &LoadError{URL: url, Err: err}
	}
	if len(fragments) == 0 {
		return nil, &LoadError{URL: url, Err: ErrNoItems}
	}

	l.logger.Info("[loader] %s: %d item containers after a single %v settle", url, len(fragments), policy.SettleTime)
	return fragments, nil
}

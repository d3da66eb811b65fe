package wishlist

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"wishlist-tracker/config"
)

// Session is one rendering-engine session bound to a single page.
type Session interface {
	Navigate(url string) error
	ScrollToBottom() error
	HTML() (string, error)
	Close() error
}

// SessionFactory opens a new Session. The loader calls it once per list.
type SessionFactory func(ctx context.Context) (Session, error)

const scrollToBottomJS = `window.scrollTo(0, document.body.scrollHeight);`

type chromeSession struct {
	ctx     context.Context
	cancels []context.CancelFunc
}

// NewChromeSessionFactory returns a factory that starts a headless Chrome per
// session, presenting cookie (if any) on every request.
func NewChromeSessionFactory(cfg *config.Config, cookie string) SessionFactory {
	return func(ctx context.Context) (Session, error) {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
			chromedp.UserAgent(cfg.UserAgent),
		)
		if bin := findChromeBinary(cfg.ChromeBin); bin != "" {
			opts = append(opts, chromedp.ExecPath(bin))
		}

		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
		// Suppress chromedp log noise
		browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
		pageCtx, cancelTimeout := context.WithTimeout(browserCtx, cfg.PageTimeout)

		s := &chromeSession{
			ctx:     pageCtx,
			cancels: []context.CancelFunc{cancelTimeout, cancelBrowser, cancelAlloc},
		}

		actions := []chromedp.Action{network.Enable()}
		if cookie != "" {
			actions = append(actions, network.SetExtraHTTPHeaders(network.Headers{"Cookie": cookie}))
		}
		// The first Run launches the browser, so a missing binary fails here.
		if err := chromedp.Run(pageCtx, actions...); err != nil {
			s.Close()
			return nil, fmt.Errorf("chromedp start: %w", err)
		}
		return s, nil
	}
}

func (s *chromeSession) Navigate(url string) error {
	if err := chromedp.Run(s.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("chromedp navigate: %w", err)
	}
	return nil
}

func (s *chromeSession) ScrollToBottom() error {
	return chromedp.Run(s.ctx, chromedp.Evaluate(scrollToBottomJS, nil))
}

func (s *chromeSession) HTML() (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("chromedp read document: %w", err)
	}
	return html, nil
}

// Close tears down the tab, the browser and the allocator, in that order.
func (s *chromeSession) Close() error {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	return nil
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

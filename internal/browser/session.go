// Package browser drives a headless Chrome instance for collectors whose
// sources render listings client-side. A Session is scoped to the lifetime
// of one CollectRaw call: acquire it at the start, defer Close, and every
// exit path releases the browser.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// Options configures a browser session.
type Options struct {
	Headless  bool
	UserAgent string
	PageWait  time.Duration // max wait for the page's ready selector
}

// Session wraps one Chrome browser context.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	pageWait    time.Duration
}

// NewSession starts a Chrome instance and warms it on a blank page. Callers
// must Close the session; Close is safe on every exit path.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.PageWait <= 0 {
		opts.PageWait = 15 * time.Second
	}

	chromePath := FindChrome()

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("window-size", "1400,900"),
		chromedp.Flag("lang", "en-US"),
	}
	if chromePath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(chromePath)}, allocOpts...)
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Warm up and pin English content negotiation before the first navigation
	if err := chromedp.Run(browserCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "en-US,en;q=0.9"}),
		chromedp.Navigate("about:blank"),
	); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Debug().Bool("headless", opts.Headless).Msg("Browser session started")

	return &Session{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		pageWait:    opts.PageWait,
	}, nil
}

// HTML navigates to url, waits (best-effort) for waitSelector, lets dynamic
// content settle, and returns the rendered page HTML.
func (s *Session) HTML(ctx context.Context, url, waitSelector string, settle time.Duration) (string, error) {
	navCtx, cancel := context.WithTimeout(s.ctx, s.pageWait+settle+10*time.Second)
	defer cancel()

	// Honor cancellation of the caller's context too
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-navCtx.Done():
		}
	}()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}

	if waitSelector != "" {
		waitCtx, waitCancel := context.WithTimeout(navCtx, s.pageWait)
		// Best-effort: a missing selector is handled by the parser, not here
		if err := chromedp.Run(waitCtx, chromedp.WaitReady(waitSelector, chromedp.ByQuery)); err != nil {
			log.Debug().Str("url", url).Str("selector", waitSelector).Err(err).Msg("Wait for selector gave up")
		}
		waitCancel()
	}

	if settle > 0 {
		select {
		case <-time.After(settle):
		case <-navCtx.Done():
			return "", navCtx.Err()
		}
	}

	var html string
	if err := chromedp.Run(navCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page HTML %s: %w", url, err)
	}
	return html, nil
}

// Close releases the browser and its allocator.
func (s *Session) Close() {
	if s == nil {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	log.Debug().Msg("Browser session closed")
}

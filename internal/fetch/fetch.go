// Package fetch provides the shared HTTP fetcher for collectors that scrape
// server-rendered pages. JS-heavy sources go through internal/browser instead.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/swissjobmarket/jobscan/internal/collector"
	"github.com/swissjobmarket/jobscan/internal/ratelimit"
)

// Client wraps an HTTP client with rate limiting and default headers.
type Client struct {
	http      *http.Client
	limiter   ratelimit.RateLimiter
	userAgent string
}

// New creates a fetch client. A nil limiter disables rate limiting.
func New(httpClient *http.Client, limiter ratelimit.RateLimiter, userAgent string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{
		http:      httpClient,
		limiter:   limiter,
		userAgent: userAgent,
	}
}

// Document fetches the URL and parses the response body with goquery.
// Network failures and non-2xx responses are reported as source-unavailable
// errors; callers decide whether that is fatal for the whole collector.
func (c *Client) Document(ctx context.Context, source, url string) (*goquery.Document, error) {
	start := time.Now()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, url); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, collector.NewError(collector.ErrCodeSourceUnavailable, source, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, collector.NewError(
			collector.ErrCodeSourceUnavailable, source,
			fmt.Sprintf("unexpected status %d for %s", resp.StatusCode, url), nil,
		)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, collector.NewError(collector.ErrCodeSourceUnavailable, source, "failed to parse HTML", err)
	}

	log.Debug().
		Str("source", source).
		Str("url", url).
		Int("status", resp.StatusCode).
		Int64("response_time_ms", time.Since(start).Milliseconds()).
		Msg("Page fetched")

	return doc, nil
}

// Package jobup collects job listings from jobup.ch. The SERP is rendered
// client-side, so collection drives a headless Chrome session; the session
// is scoped to a single CollectRaw call and released on every exit path.
package jobup

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/swissjobmarket/jobscan/internal/browser"
	"github.com/swissjobmarket/jobscan/internal/collector"
	"github.com/swissjobmarket/jobscan/internal/config"
	"github.com/swissjobmarket/jobscan/internal/schema"
)

const (
	// Source is the identifier written into the source column.
	Source = "jobup"

	baseURL   = "https://www.jobup.ch"
	searchURL = baseURL + "/en/jobs/"

	serpReadySelector   = "div[data-cy='vacancy-serp-item'], #react-root, main, body"
	detailReadySelector = "h1[data-cy='vacancy-title'], div.grid-area_vacancy-info ul, div[data-cy='vacancy-description']"

	// Pagination stop rules: a role is exhausted after this many consecutive
	// pages yielding no cards, or no new URLs.
	maxEmptyPages = 2
	maxNoNewPages = 5
)

func init() {
	collector.Register(Source, func(cfg *config.Config) collector.Collector {
		return New(cfg.UserAgent, cfg.PageWait, cfg.PoliteDelay)
	})
}

// pageLoader is the subset of browser.Session the collector needs; tests
// substitute a canned-HTML implementation.
type pageLoader interface {
	HTML(ctx context.Context, url, waitSelector string, settle time.Duration) (string, error)
	Close()
}

// Collector scrapes jobup.ch through a browser session.
type Collector struct {
	userAgent   string
	pageWait    time.Duration
	politeDelay time.Duration

	// newSession is swapped out in tests to avoid launching Chrome.
	newSession func(ctx context.Context, headless bool) (pageLoader, error)
}

// New creates a jobup collector.
func New(userAgent string, pageWait, politeDelay time.Duration) *Collector {
	c := &Collector{
		userAgent:   userAgent,
		pageWait:    pageWait,
		politeDelay: politeDelay,
	}
	c.newSession = func(ctx context.Context, headless bool) (pageLoader, error) {
		return browser.NewSession(ctx, browser.Options{
			Headless:  headless,
			UserAgent: c.userAgent,
			PageWait:  c.pageWait,
		})
	}
	return c
}

// Name returns the source identifier.
func (c *Collector) Name() string {
	return Source
}

// CollectRaw queries each role term page by page, parses SERP cards, and
// optionally follows each listing's detail page. When opts.StartURL is set
// it replaces the built search query entirely and role terms are ignored.
func (c *Collector) CollectRaw(ctx context.Context, opts collector.Options) (*schema.Table, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 1000
	}
	maxPages := opts.MaxPagesPerRole
	if maxPages <= 0 {
		maxPages = 20
	}
	roles := opts.Roles
	if opts.StartURL != "" {
		roles = []string{""}
	} else if len(roles) == 0 {
		roles = config.DefaultRoles()
	}

	sess, err := c.newSession(ctx, opts.Headless)
	if err != nil {
		return nil, collector.NewError(collector.ErrCodeSourceUnavailable, Source, "failed to start browser session", err)
	}
	defer sess.Close()

	table := collector.NewRawTable()
	seen := make(map[string]bool)

roleLoop:
	for _, term := range roles {
		noNewPages := 0
		emptyPages := 0

		for page := 1; page <= maxPages; page++ {
			if table.Len() >= limit {
				break roleLoop
			}

			html, err := sess.HTML(ctx, c.pageURL(opts.StartURL, term, page), serpReadySelector, c.politeDelay)
			if err != nil {
				return nil, collector.NewError(collector.ErrCodeSourceUnavailable, Source,
					fmt.Sprintf("failed to load SERP term=%q page=%d", term, page), err)
			}
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
			if err != nil {
				return nil, collector.NewError(collector.ErrCodeSourceUnavailable, Source, "failed to parse SERP HTML", err)
			}

			rows := parseSERP(doc)
			if len(rows) == 0 {
				emptyPages++
				log.Debug().Str("source", Source).Str("term", term).Int("page", page).Msg("No cards on page")
				if emptyPages >= maxEmptyPages {
					break
				}
				continue
			}
			emptyPages = 0

			added := 0
			for _, row := range rows {
				if row.URL == "" || seen[row.URL] {
					continue
				}
				seen[row.URL] = true

				var facts detailFacts
				if opts.FetchDetails {
					facts = c.fetchDetail(ctx, sess, row.URL)
				}

				table.Append(mergeFacts(term, row, facts).Record())
				added++

				if table.Len() >= limit {
					break
				}
			}

			log.Debug().
				Str("source", Source).
				Str("term", term).
				Int("page", page).
				Int("cards", len(rows)).
				Int("new", added).
				Int("total", table.Len()).
				Msg("Page collected")

			if added == 0 {
				noNewPages++
				if noNewPages >= maxNoNewPages {
					log.Debug().Str("source", Source).Str("term", term).
						Int("streak", noNewPages).Msg("Stopping pagination, no new jobs")
					break
				}
			} else {
				noNewPages = 0
			}
		}

		if table.Len() >= limit {
			break
		}
	}

	return table, nil
}

// pageURL builds the SERP URL for a term and page.
func (c *Collector) pageURL(startURL, term string, page int) string {
	if startURL != "" {
		sep := "?"
		if strings.Contains(startURL, "?") {
			sep = "&"
		}
		return fmt.Sprintf("%s%spage=%d", startURL, sep, page)
	}
	return fmt.Sprintf("%s?term=%s&page=%d", searchURL, url.QueryEscape(term), page)
}

// fetchDetail loads one detail page. Failures here are item-level: the
// listing keeps its SERP fields and the page is skipped with a log line.
func (c *Collector) fetchDetail(ctx context.Context, sess pageLoader, detailURL string) detailFacts {
	html, err := sess.HTML(ctx, detailURL, detailReadySelector, c.politeDelay)
	if err != nil {
		log.Warn().Str("source", Source).Str("url", detailURL).Err(err).Msg("Detail page fetch failed, keeping SERP fields")
		return detailFacts{}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Warn().Str("source", Source).Str("url", detailURL).Err(err).Msg("Detail page parse failed, keeping SERP fields")
		return detailFacts{}
	}
	return parseDetail(doc)
}

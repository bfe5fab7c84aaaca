// Package datacareer collects job listings from datacareer.ch. The site
// paginates its "Load more" button through a plain page query parameter, so
// static HTTP fetching is enough; no browser is needed.
package datacareer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/swissjobmarket/jobscan/internal/collector"
	"github.com/swissjobmarket/jobscan/internal/config"
	"github.com/swissjobmarket/jobscan/internal/fetch"
	"github.com/swissjobmarket/jobscan/internal/ratelimit"
	"github.com/swissjobmarket/jobscan/internal/schema"
)

const (
	// Source is the identifier written into the source column.
	Source = "datacareer"

	baseURL = "https://www.datacareer.ch"

	// defaultStartURL is the Data Science category feed, the same query the
	// site's own "Load more" JS issues.
	defaultStartURL = baseURL + "/jobs/?categories%5B%5D=Data%20Science"
)

func init() {
	collector.Register(Source, func(cfg *config.Config) collector.Collector {
		client := &http.Client{Timeout: cfg.HTTPTimeout}
		limiter := ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		return New(fetch.New(client, limiter, cfg.UserAgent))
	})
}

// Collector scrapes datacareer.ch listing pages.
type Collector struct {
	client *fetch.Client
}

// New creates a datacareer collector on top of the given fetch client.
func New(client *fetch.Client) *Collector {
	return &Collector{client: client}
}

// Name returns the source identifier.
func (c *Collector) Name() string {
	return Source
}

// CollectRaw walks the paginated category feed and returns one row per
// listing card, capped at opts.Limit. Listing pages carry a short
// description snippet, so no detail-page fetch is required for this source.
func (c *Collector) CollectRaw(ctx context.Context, opts collector.Options) (*schema.Table, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 60
	}
	maxPages := opts.MaxPagesPerRole
	if maxPages <= 0 {
		maxPages = 10
	}
	startURL := opts.StartURL
	if startURL == "" {
		startURL = defaultStartURL
	}

	table := collector.NewRawTable()
	seen := make(map[string]bool)

	for page := 1; page <= maxPages; page++ {
		if table.Len() >= limit {
			break
		}

		doc, err := c.client.Document(ctx, Source, pageURL(startURL, page))
		if err != nil {
			// A dead first page means the source is gone; a later failure
			// still fails loudly rather than returning a silently short table.
			return nil, err
		}

		cards := doc.Find("article.listing-item.listing-item__jobs")
		if cards.Length() == 0 {
			// No more listings
			break
		}

		added := 0
		cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
			if table.Len() >= limit {
				return false
			}
			listing, err := parseCard(card)
			if err != nil {
				log.Warn().Str("source", Source).Int("page", page).Err(err).Msg("Skipping unparseable card")
				return true
			}
			if seen[listing.URL] {
				return true
			}
			seen[listing.URL] = true
			table.Append(listing.Record())
			added++
			return true
		})

		log.Debug().
			Str("source", Source).
			Int("page", page).
			Int("cards", cards.Length()).
			Int("new", added).
			Int("total", table.Len()).
			Msg("Page collected")
	}

	return table, nil
}

// pageURL appends the page parameter for pages past the first, matching the
// site's own pagination requests.
func pageURL(startURL string, page int) string {
	if page == 1 {
		return startURL
	}
	sep := "?"
	if strings.Contains(startURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", startURL, sep, page)
}

// parseCard extracts one listing from a card node. A card without a detail
// link is unusable and reported as an item parse error.
func parseCard(card *goquery.Selection) (collector.Listing, error) {
	a := card.Find(".listing-item__title a.link").First()
	href, ok := a.Attr("href")
	if !ok || href == "" {
		return collector.Listing{}, collector.NewError(collector.ErrCodeItemParse, Source, "card has no detail link", nil)
	}

	detailURL := resolveURL(baseURL, href)
	if detailURL == "" {
		return collector.Listing{}, collector.NewError(collector.ErrCodeItemParse, Source, "card link is not a valid URL", nil)
	}

	return collector.Listing{
		Source:         Source,
		URL:            detailURL,
		JobID:          collector.JobID(Source, detailURL),
		Title:          text(a),
		Company:        text(card.Find(".listing-item__info--item-company").First()),
		LocationRaw:    text(card.Find(".listing-item__info--item-location").First()),
		PostedDate:     text(card.Find(".listing-item__date").First()),
		EmploymentType: text(card.Find(".listing-item__employment-type").First()),
		DescriptionRaw: text(card.Find(".listing-item__desc").First()),
	}, nil
}

func text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// resolveURL joins a possibly relative href against the site base.
func resolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := b.ResolveReference(h)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

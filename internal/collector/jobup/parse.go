// internal/collector/jobup/parse.go
package jobup

import (
	"net/url"
	"sort"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/swissjobmarket/jobscan/internal/collector"
)

// serpRow is a partially filled listing scraped from one SERP card. Detail
// pages supply the remaining fields when detail fetching is on.
type serpRow struct {
	URL            string
	Title          string
	Company        string
	LocationRaw    string
	PostedDate     string
	EmploymentType string
}

// detailFacts are the stable facts extracted from a vacancy detail page.
type detailFacts struct {
	Title          string
	Company        string
	LocationRaw    string
	PostedDate     string
	WorkloadRaw    string
	EmploymentType string
	DescriptionRaw string
}

// isJobDetailURL keeps only likely vacancy detail URLs, rejecting the search
// index and result pages.
func isJobDetailURL(fullURL string) bool {
	cleaned := stripQuery(fullURL)
	if !strings.HasPrefix(cleaned, baseURL) {
		return false
	}
	if cleaned == baseURL+"/en/jobs" {
		return false
	}

	u, err := url.Parse(cleaned)
	if err != nil {
		return false
	}
	parts := []string{}
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	// Detail-style URLs look like /en/jobs/<something>[/...]
	if len(parts) < 3 {
		return false
	}
	if parts[0] != "en" || parts[1] != "jobs" {
		return false
	}
	switch parts[2] {
	case "", "search", "results":
		return false
	}
	return true
}

// stripQuery drops query string and fragment and any trailing slash.
func stripQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimRight(raw, "/")
}

// detailURLFromCard picks the best vacancy link for a card: the card's own
// anchor ancestors and nested anchors are candidates, URLs containing
// /detail/ are preferred, then longer paths. Already seen URLs are avoided
// when an alternative exists.
func detailURLFromCard(card *goquery.Selection, avoid map[string]bool) string {
	var candidates []string

	card.ParentsFiltered("a[href]").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			candidates = append(candidates, resolveURL(href))
		}
	})
	card.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			candidates = append(candidates, resolveURL(href))
		}
	})

	validSet := make(map[string]bool)
	for _, c := range candidates {
		if c == "" {
			continue
		}
		cleaned := stripQuery(c)
		if !isJobDetailURL(cleaned) {
			continue
		}
		validSet[cleaned] = true
	}
	if len(validSet) == 0 {
		return ""
	}

	ranked := make([]string, 0, len(validSet))
	for u := range validSet {
		ranked = append(ranked, u)
	}
	sort.Slice(ranked, func(i, j int) bool {
		di, dj := strings.Contains(ranked[i], "/detail/"), strings.Contains(ranked[j], "/detail/")
		if di != dj {
			return di
		}
		pi, pj := pathLen(ranked[i]), pathLen(ranked[j])
		if pi != pj {
			return pi > pj
		}
		return ranked[i] < ranked[j]
	})

	for _, u := range ranked {
		if !avoid[u] {
			return u
		}
	}
	return ranked[0]
}

func pathLen(raw string) int {
	u, err := url.Parse(raw)
	if err != nil {
		return 0
	}
	return len(u.Path)
}

// resolveURL joins a possibly relative href against the site base.
func resolveURL(href string) string {
	b, _ := url.Parse(baseURL)
	h, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(h).String()
}

// firstText tries selectors in priority order and returns the first
// non-empty text. A combined comma selector would match in document order
// instead and pick the wrong element on most cards.
func firstText(card *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if text := cleanText(card.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// labeledValue finds the <p> sibling value for a span label starting with
// prefix ("Place of work", "Contract type").
func labeledValue(card *goquery.Selection, labelPrefix string) string {
	prefix := strings.ToLower(labelPrefix)
	var out string
	card.Find("span").EachWithBreak(func(_ int, label *goquery.Selection) bool {
		if !strings.HasPrefix(strings.ToLower(cleanText(label.Text())), prefix) {
			return true
		}
		val := label.Parent().Find("p").First()
		if val.Length() > 0 {
			out = cleanText(val.Text())
			return false
		}
		return true
	})
	return out
}

// parseSERP extracts listing rows from a search result page.
func parseSERP(doc *goquery.Document) []serpRow {
	cards := doc.Find("div[data-cy='vacancy-serp-item']")
	if cards.Length() == 0 {
		cards = doc.Find("[data-cy*='vacancy-serp']")
	}
	if cards.Length() == 0 {
		cards = doc.Find("[data-cy*='serp-item']")
	}

	var rows []serpRow
	seen := make(map[string]bool)

	cards.Each(func(_ int, card *goquery.Selection) {
		u := detailURLFromCard(card, seen)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true

		rows = append(rows, serpRow{
			URL:            u,
			Title:          firstText(card, "span[class*='fw_bold']", "h2", "h3"),
			Company:        firstText(card, "p strong", "strong"),
			PostedDate:     firstText(card, "div[data-cy^='serp-item-'] p", "p[class*='caption']"),
			LocationRaw:    labeledValue(card, "Place of work"),
			EmploymentType: labeledValue(card, "Contract type"),
		})
	})

	return rows
}

// parseDetail extracts the header facts and description from a vacancy page.
func parseDetail(doc *goquery.Document) detailFacts {
	var f detailFacts

	f.Title = cleanText(doc.Find("h1[data-cy='vacancy-title']").First().Text())
	f.Company = cleanText(doc.Find("a[data-cy='company-link'] span").First().Text())
	f.PostedDate = cleanText(doc.Find("li[data-cy='info-publication'] span.white-space_nowrap").First().Text())
	f.WorkloadRaw = cleanText(doc.Find("li[data-cy='info-workload'] span.white-space_nowrap").First().Text())
	f.EmploymentType = cleanText(doc.Find("li[data-cy='info-contract'] span").First().Text())
	f.LocationRaw = cleanText(doc.Find("div.grid-area_vacancy-info ul > li:not([data-cy]) span").First().Text())

	if f.PostedDate == "" {
		f.PostedDate = cleanText(doc.Find("li[data-cy='info-publication']").First().Text())
	}
	if f.WorkloadRaw == "" {
		f.WorkloadRaw = cleanText(doc.Find("li[data-cy='info-workload']").First().Text())
	}
	if f.EmploymentType == "" {
		f.EmploymentType = cleanText(doc.Find("li[data-cy='info-contract']").First().Text())
	}
	if f.LocationRaw == "" {
		f.LocationRaw = cleanText(doc.Find("div[data-cy='vacancy-logo'] p").First().Text())
	}

	f.DescriptionRaw = extractDescription(doc)
	return f
}

// minDescriptionLen rejects chrome/teaser fragments that are not the actual
// vacancy text.
const minDescriptionLen = 120

// extractDescription pulls the vacancy text, preferring the dedicated
// description container and converting its HTML to markdown so list and
// paragraph structure survives. Falls back to broader containers and finally
// the og:description meta tag.
func extractDescription(doc *goquery.Document) string {
	root := doc.Find("div[data-cy='vacancy-description']").First()
	if root.Length() > 0 {
		root.Find("section[aria-label='JobFit teaser']").Remove()
		if text := selectionMarkdown(root); len(text) >= minDescriptionLen {
			return text
		}
	}

	for _, sel := range []string{
		"[data-cy*='description']",
		"[class*='description']",
		"[class*='job-description']",
		"article",
		"main",
	} {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if text := selectionMarkdown(el); len(text) >= minDescriptionLen {
			return text
		}
	}

	if content, ok := doc.Find("meta[property='og:description']").First().Attr("content"); ok {
		return cleanText(content)
	}
	return ""
}

// selectionMarkdown converts a selection's inner HTML to markdown text;
// on conversion failure it degrades to the plain text content.
func selectionMarkdown(sel *goquery.Selection) string {
	html, err := sel.Html()
	if err != nil {
		return cleanText(sel.Text())
	}
	converter := md.NewConverter(baseURL, true, nil)
	text, err := converter.ConvertString(html)
	if err != nil {
		return cleanText(sel.Text())
	}
	return strings.TrimSpace(text)
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// mergeFacts overlays detail-page facts onto a SERP row, detail winning
// where it is non-empty.
func mergeFacts(term string, row serpRow, facts detailFacts) collector.Listing {
	pick := func(detail, serp string) string {
		if detail != "" {
			return detail
		}
		return serp
	}
	return collector.Listing{
		Source:         Source,
		URL:            row.URL,
		JobID:          collector.JobID(Source, row.URL),
		SearchTerm:     term,
		Title:          pick(facts.Title, row.Title),
		Company:        pick(facts.Company, row.Company),
		LocationRaw:    pick(facts.LocationRaw, row.LocationRaw),
		PostedDate:     pick(facts.PostedDate, row.PostedDate),
		EmploymentType: pick(facts.EmploymentType, row.EmploymentType),
		WorkloadRaw:    facts.WorkloadRaw,
		DescriptionRaw: facts.DescriptionRaw,
	}
}

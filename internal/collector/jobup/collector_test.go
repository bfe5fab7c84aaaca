package jobup

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swissjobmarket/jobscan/internal/collector"
)

// fakeLoader serves canned HTML keyed by URL. Unknown URLs get an empty
// results page.
type fakeLoader struct {
	pages    map[string]string
	requests []string
	closed   bool
}

func (f *fakeLoader) HTML(_ context.Context, url, _ string, _ time.Duration) (string, error) {
	f.requests = append(f.requests, url)
	if html, ok := f.pages[url]; ok {
		return html, nil
	}
	return `<html><body><main>No results</main></body></html>`, nil
}

func (f *fakeLoader) Close() { f.closed = true }

func serpPage(cards ...string) string {
	body := ""
	for _, id := range cards {
		body += fmt.Sprintf(`<a href="/en/jobs/detail/%s/">
			<div data-cy="vacancy-serp-item">
				<span class="fw_bold">Job %s</span>
				<p><strong>Company %s</strong></p>
				<div data-cy="serp-item-date"><p>Published: 12 August 2026</p></div>
				<div><span>Place of work:</span><p>Bern</p></div>
			</div>
		</a>`, id, id, id)
	}
	return "<html><body>" + body + "</body></html>"
}

func detailPage(id string) string {
	return fmt.Sprintf(`<html><body>
		<h1 data-cy="vacancy-title">Job %s (detail)</h1>
		<div class="grid-area_vacancy-info"><ul>
			<li data-cy="info-workload"><span>Workload:</span> <span class="white-space_nowrap">100%%</span></li>
		</ul></div>
		<div data-cy="vacancy-description"><p>Detail description for job %s, long enough to pass
		the minimum length check because real vacancy texts are never a single short sentence.</p></div>
	</body></html>`, id, id)
}

func newTestCollector(loader *fakeLoader) *Collector {
	c := New("jobscan-test/1.0", time.Second, 0)
	c.newSession = func(ctx context.Context, headless bool) (pageLoader, error) {
		return loader, nil
	}
	return c
}

func serpURL(term string, page int) string {
	return fmt.Sprintf("%s?term=%s&page=%d", searchURL, term, page)
}

func TestCollectRawWithoutDetails(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{
		serpURL("analyst", 1): serpPage("aaa", "bbb"),
	}}
	c := newTestCollector(loader)

	table, err := c.CollectRaw(context.Background(), collector.Options{
		Roles:           []string{"analyst"},
		MaxPagesPerRole: 5,
		FetchDetails:    false,
	})
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	rec := table.Records()[0]
	assert.Equal(t, Source, rec["source"])
	assert.Equal(t, baseURL+"/en/jobs/detail/aaa", rec["url"])
	assert.Equal(t, "analyst", rec["search_term"])
	assert.Equal(t, "Job aaa", rec["title"])
	assert.Equal(t, "Company aaa", rec["company"])
	assert.Equal(t, "Bern", rec["location_raw"])
	assert.Empty(t, rec["description_raw"], "no detail fetch, no description")
	assert.Empty(t, rec["workload_raw"])

	assert.True(t, loader.closed, "session must be released")
	for _, u := range loader.requests {
		assert.NotContains(t, u, "/detail/", "detail pages must not be fetched")
	}
}

func TestCollectRawWithDetails(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{
		serpURL("analyst", 1):           serpPage("aaa"),
		baseURL + "/en/jobs/detail/aaa": detailPage("aaa"),
	}}
	c := newTestCollector(loader)

	table, err := c.CollectRaw(context.Background(), collector.Options{
		Roles:           []string{"analyst"},
		MaxPagesPerRole: 3,
		FetchDetails:    true,
	})
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	rec := table.Records()[0]
	assert.Equal(t, "Job aaa (detail)", rec["title"], "detail title overrides card title")
	assert.Equal(t, "100%", rec["workload_raw"])
	assert.Contains(t, rec["description_raw"], "Detail description for job aaa")
}

func TestCollectRawRespectsLimit(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{
		serpURL("analyst", 1): serpPage("a1", "a2", "a3", "a4", "a5"),
	}}
	c := newTestCollector(loader)

	table, err := c.CollectRaw(context.Background(), collector.Options{
		Roles: []string{"analyst"},
		Limit: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}

func TestCollectRawDeduplicatesAcrossPagesAndRoles(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{
		serpURL("analyst", 1):  serpPage("aaa", "bbb"),
		serpURL("analyst", 2):  serpPage("bbb", "ccc"),
		serpURL("engineer", 1): serpPage("aaa"),
	}}
	c := newTestCollector(loader)

	table, err := c.CollectRaw(context.Background(), collector.Options{
		Roles:           []string{"analyst", "engineer"},
		MaxPagesPerRole: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	urls := make(map[string]bool)
	for _, rec := range table.Records() {
		assert.False(t, urls[rec["url"]], "duplicate url %s", rec["url"])
		urls[rec["url"]] = true
	}
}

func TestCollectRawStopsAfterEmptyPages(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{
		serpURL("analyst", 1): serpPage("aaa"),
		// pages 2+ are empty
	}}
	c := newTestCollector(loader)

	_, err := c.CollectRaw(context.Background(), collector.Options{
		Roles:           []string{"analyst"},
		MaxPagesPerRole: 50,
	})
	require.NoError(t, err)

	// page 1 with cards, then maxEmptyPages empty pages before giving up.
	assert.Len(t, loader.requests, 1+maxEmptyPages)
}

func TestCollectRawStopsAfterNoNewPages(t *testing.T) {
	pages := map[string]string{}
	for p := 1; p <= 50; p++ {
		pages[serpURL("analyst", p)] = serpPage("same")
	}
	loader := &fakeLoader{pages: pages}
	c := newTestCollector(loader)

	table, err := c.CollectRaw(context.Background(), collector.Options{
		Roles:           []string{"analyst"},
		MaxPagesPerRole: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	// page 1 adds the job, then maxNoNewPages repeats before stopping.
	assert.Len(t, loader.requests, 1+maxNoNewPages)
}

func TestCollectRawStartURLOverridesRoles(t *testing.T) {
	start := baseURL + "/en/jobs/?term=custom"
	loader := &fakeLoader{pages: map[string]string{
		start + "&page=1": serpPage("aaa"),
	}}
	c := newTestCollector(loader)

	table, err := c.CollectRaw(context.Background(), collector.Options{
		Roles:           []string{"ignored", "also ignored"},
		StartURL:        start,
		MaxPagesPerRole: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "", table.Records()[0]["search_term"])
}

func TestCollectRawSessionFailure(t *testing.T) {
	c := New("jobscan-test/1.0", time.Second, 0)
	c.newSession = func(ctx context.Context, headless bool) (pageLoader, error) {
		return nil, errors.New("chrome not found")
	}

	_, err := c.CollectRaw(context.Background(), collector.Options{Roles: []string{"analyst"}})
	require.Error(t, err)

	var cerr *collector.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, collector.ErrCodeSourceUnavailable, cerr.Code)
	assert.Equal(t, Source, cerr.Source)
}

func TestCollectRawDetailFailureKeepsCardFields(t *testing.T) {
	loader := &failingDetailLoader{serp: serpPage("aaa")}
	c := New("jobscan-test/1.0", time.Second, 0)
	c.newSession = func(ctx context.Context, headless bool) (pageLoader, error) {
		return loader, nil
	}

	table, err := c.CollectRaw(context.Background(), collector.Options{
		Roles:           []string{"analyst"},
		MaxPagesPerRole: 1,
		FetchDetails:    true,
	})
	require.NoError(t, err, "detail failures are item-level, not fatal")
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "Job aaa", table.Records()[0]["title"])
}

type failingDetailLoader struct {
	serp   string
	served bool
}

func (f *failingDetailLoader) HTML(_ context.Context, url, _ string, _ time.Duration) (string, error) {
	if !f.served {
		f.served = true
		return f.serp, nil
	}
	return "", errors.New("navigation timeout")
}

func (f *failingDetailLoader) Close() {}

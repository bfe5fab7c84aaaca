package datacareer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/swissjobmarket/jobscan/internal/collector"
	"github.com/swissjobmarket/jobscan/internal/fetch"
	"github.com/swissjobmarket/jobscan/internal/schema"
)

func card(slug, title, company, location, date, empType, desc string) string {
	return fmt.Sprintf(`
<article class="listing-item listing-item__jobs">
  <div class="listing-item__title"><a class="link" href="/job/%s">%s</a></div>
  <div class="listing-item__date">%s</div>
  <div class="listing-item__employment-type">%s</div>
  <div class="listing-item__info--item-company">%s</div>
  <div class="listing-item__info--item-location">%s</div>
  <div class="listing-item__desc">%s</div>
</article>`, slug, title, date, empType, company, location, desc)
}

// listingServer serves two pages of cards and an empty third page.
func listingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body strings.Builder
		body.WriteString("<html><body>")
		switch r.URL.Query().Get("page") {
		case "", "1":
			for i := 1; i <= 4; i++ {
				body.WriteString(card(
					fmt.Sprintf("job-%d", i),
					fmt.Sprintf("Data Scientist %d", i),
					"Acme AG", "Zürich", "12 March 2025", "Full-time",
					"Build models with Python and SQL.",
				))
			}
			// A broken card without a detail link must be skipped, not fatal
			body.WriteString(`<article class="listing-item listing-item__jobs"><div class="listing-item__title">no link</div></article>`)
		case "2":
			for i := 5; i <= 7; i++ {
				body.WriteString(card(
					fmt.Sprintf("job-%d", i),
					fmt.Sprintf("Data Engineer %d", i),
					"Beta GmbH", "Basel BS", "10 March 2025", "Part-time",
					"Pipelines with Spark.",
				))
			}
		default:
			// exhausted
		}
		body.WriteString("</body></html>")
		w.Write([]byte(body.String()))
	}))
}

func newTestCollector(server *httptest.Server) *Collector {
	return New(fetch.New(server.Client(), nil, "jobscan-test/1.0"))
}

func TestCollectRawRespectsLimit(t *testing.T) {
	server := listingServer(t)
	defer server.Close()

	c := newTestCollector(server)
	table, err := c.CollectRaw(context.Background(), collector.Options{
		Limit:    5,
		StartURL: server.URL + "/jobs/",
	})
	if err != nil {
		t.Fatalf("CollectRaw failed: %v", err)
	}

	if table.Len() != 5 {
		t.Errorf("limit=5 with 7 available listings: want exactly 5 rows, got %d", table.Len())
	}
}

func TestCollectRawExhaustsSource(t *testing.T) {
	server := listingServer(t)
	defer server.Close()

	c := newTestCollector(server)
	table, err := c.CollectRaw(context.Background(), collector.Options{
		Limit:    50,
		StartURL: server.URL + "/jobs/",
	})
	if err != nil {
		t.Fatalf("CollectRaw failed: %v", err)
	}

	// 7 parseable cards across two pages; the linkless card is dropped
	if table.Len() != 7 {
		t.Errorf("expected 7 rows, got %d", table.Len())
	}
}

func TestCollectRawBaseColumns(t *testing.T) {
	server := listingServer(t)
	defer server.Close()

	c := newTestCollector(server)
	table, err := c.CollectRaw(context.Background(), collector.Options{
		Limit:    3,
		StartURL: server.URL + "/jobs/",
	})
	if err != nil {
		t.Fatalf("CollectRaw failed: %v", err)
	}

	if got, want := table.Columns(), schema.BaseColumnNames(); len(got) != len(want) {
		t.Fatalf("column set mismatch: got %v, want %v", got, want)
	}

	if err := table.Validate("source", "url", "job_id"); err != nil {
		t.Errorf("raw table invariant violated: %v", err)
	}

	rec := table.Records()[0]
	if rec["source"] != Source {
		t.Errorf("source column: got %q, want %q", rec["source"], Source)
	}
	if rec["title"] != "Data Scientist 1" {
		t.Errorf("title: got %q", rec["title"])
	}
	if rec["company"] != "Acme AG" {
		t.Errorf("company: got %q", rec["company"])
	}
	if rec["job_id"] != collector.JobID(Source, rec["url"]) {
		t.Errorf("job_id must be derived from source and url")
	}
}

func TestCollectRawSourceDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestCollector(server)
	_, err := c.CollectRaw(context.Background(), collector.Options{
		Limit:    5,
		StartURL: server.URL + "/jobs/",
	})
	if err == nil {
		t.Fatal("expected error for unavailable source")
	}

	var cerr *collector.Error
	if !errors.As(err, &cerr) || cerr.Code != collector.ErrCodeSourceUnavailable {
		t.Errorf("expected SOURCE_UNAVAILABLE, got %v", err)
	}
}

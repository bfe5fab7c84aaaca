// Package collector defines the contract every job-board collector
// implements and the registry the pipeline selects collectors from.
package collector

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/swissjobmarket/jobscan/internal/schema"
)

// Options parameterizes a single CollectRaw invocation.
type Options struct {
	// Limit is a soft cap on the number of listings returned. A collector
	// may return fewer when the source is exhausted; it must never exceed it.
	Limit int

	// Headless controls whether browser automation, when a collector uses
	// any, runs without a visible UI. It must not affect output content.
	Headless bool

	// StartURL overrides the source's default listing URL when non-empty.
	StartURL string

	// Roles are the search terms to query, for sources that search by role.
	Roles []string

	// MaxPagesPerRole bounds pagination per role (or overall for sources
	// without role search).
	MaxPagesPerRole int

	// FetchDetails enables following each listing's detail page. When
	// false, detail-only fields (description_raw, workload_raw) stay empty.
	FetchDetails bool
}

// Collector fetches raw listings from one job board. Implementations are
// independent per site; any new source only needs to satisfy this
// interface and register itself.
type Collector interface {
	// Name returns the source identifier written into the "source" column.
	Name() string

	// CollectRaw fetches listings and returns them as a table with the
	// schema base columns. Unobtainable fields are left empty, never
	// fabricated. A collector that cannot reach its source or no longer
	// recognizes its page structure returns an error; per-item parse
	// failures are skipped with a log line instead.
	CollectRaw(ctx context.Context, opts Options) (*schema.Table, error)
}

// Listing holds one raw job listing with the schema base columns. It is a
// convenience for collectors; Record converts it for table accumulation.
type Listing struct {
	Source         string
	URL            string
	JobID          string
	SearchTerm     string
	Title          string
	Company        string
	LocationRaw    string
	PostedDate     string
	EmploymentType string
	WorkloadRaw    string
	SalaryRaw      string
	DescriptionRaw string
}

// Record converts the listing into a schema record keyed by base column names.
func (l Listing) Record() schema.Record {
	return schema.Record{
		"source":          l.Source,
		"url":             l.URL,
		"job_id":          l.JobID,
		"search_term":     l.SearchTerm,
		"title":           l.Title,
		"company":         l.Company,
		"location_raw":    l.LocationRaw,
		"posted_date":     l.PostedDate,
		"employment_type": l.EmploymentType,
		"workload_raw":    l.WorkloadRaw,
		"salary_raw":      l.SalaryRaw,
		"description_raw": l.DescriptionRaw,
	}
}

// NewRawTable creates an empty table with the schema base columns, the
// shape every CollectRaw result uses.
func NewRawTable() *schema.Table {
	return schema.NewTable(schema.BaseColumnNames())
}

// JobID synthesizes a stable source-native identifier from the listing URL
// for sources that expose none.
func JobID(source, url string) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%s", source, url)))
	return hex.EncodeToString(sum[:])
}

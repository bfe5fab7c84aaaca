// Package pipeline orchestrates collectors into one combined export: it
// invokes each configured collector in order, maps raw tables onto the
// canonical schema, concatenates, deduplicates by exact URL, and writes a
// timestamped CSV. Execution is strictly sequential; the combined table is
// owned exclusively by the pipeline.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/swissjobmarket/jobscan/internal/cleaning"
	"github.com/swissjobmarket/jobscan/internal/collector"
	"github.com/swissjobmarket/jobscan/internal/config"
	"github.com/swissjobmarket/jobscan/internal/export"
	"github.com/swissjobmarket/jobscan/internal/schema"
)

// timestampLayout is filename-safe on every platform, unlike ISO-8601 with
// colons. Repeated runs never overwrite each other.
const timestampLayout = "20060102-150405"

// Options parameterizes one pipeline run.
type Options struct {
	Sources      []string // collector names; empty means the configured default
	Roles        []string
	Limit        int
	MaxPages     int
	FetchDetails bool
	Headless     bool
	OutDir       string
	Progress     bool // render a progress bar across collectors

	// SaveRaw also writes each collector's pre-cleaning table to RawDir,
	// one timestamped CSV per source. Snapshot failures are logged, not
	// fatal; the combined export is the deliverable.
	SaveRaw bool
	RawDir  string

	// Now is the clock used for scraped_at and the export filename.
	// Zero means time.Now; tests pin it.
	Now time.Time
}

// SourceResult records one collector's outcome within a run.
type SourceResult struct {
	Source string
	Rows   int
	Err    error
}

// Result summarizes a completed run.
type Result struct {
	Path    string
	Rows    int
	Dropped int // duplicate URLs removed
	Sources []SourceResult
}

// Pipeline wires collectors, cleaning, and export together.
type Pipeline struct {
	cfg    *config.Config
	lookup func(name string, cfg *config.Config) (collector.Collector, error)
}

// New creates a pipeline on the global collector registry.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg, lookup: collector.Lookup}
}

// Run executes the pipeline and returns the export path and per-source
// outcomes. A collector failure is logged and skipped when other collectors
// remain; with a single configured collector it aborts the run. An export
// write failure is always fatal.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	sources := opts.Sources
	if len(sources) == 0 {
		sources = p.cfg.Sources
	}
	outDir := opts.OutDir
	if outDir == "" {
		outDir = p.cfg.OutputDir
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	scrapedAt := now.Format(time.RFC3339)

	rawDir := opts.RawDir
	if rawDir == "" {
		rawDir = p.cfg.RawDir
	}

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.NewOptions(len(sources),
			progressbar.OptionSetDescription("collecting"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
	}

	combined := schema.NewTable(schema.ColumnNames())
	result := &Result{}
	failed := 0

	for _, name := range sources {
		res := SourceResult{Source: name}

		rawPath := ""
		if opts.SaveRaw {
			rawPath = filepath.Join(rawDir, fmt.Sprintf("%s_%s.csv", name, now.Format(timestampLayout)))
		}

		mapped, err := p.collectOne(ctx, name, opts, scrapedAt, rawPath)
		if err != nil {
			res.Err = err
			failed++
			log.Error().Str("source", name).Err(err).Msg("Collector failed")
			if len(sources) == 1 {
				result.Sources = append(result.Sources, res)
				return result, fmt.Errorf("only configured collector %q failed: %w", name, err)
			}
		} else {
			res.Rows = mapped.Len()
			for _, r := range mapped.Records() {
				combined.Append(r)
			}
			log.Info().Str("source", name).Int("rows", mapped.Len()).Msg("Collector finished")
		}

		result.Sources = append(result.Sources, res)
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if failed == len(sources) {
		return result, fmt.Errorf("all %d collectors failed", failed)
	}

	deduped, dropped := dedupByURL(combined)
	result.Dropped = dropped
	result.Rows = deduped.Len()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return result, collector.NewError(collector.ErrCodeExportWrite, "", "failed to create output dir "+outDir, err)
	}

	path := filepath.Join(outDir, fmt.Sprintf("jobs_combined_%s.csv", now.Format(timestampLayout)))
	if err := export.WriteCSV(deduped, path); err != nil {
		return result, err
	}
	result.Path = path

	log.Info().
		Str("path", path).
		Int("rows", result.Rows).
		Int("duplicates_dropped", dropped).
		Msg("Combined export written")

	return result, nil
}

// collectOne runs a single collector and maps its raw table onto the schema.
// When rawPath is non-empty the pre-cleaning table is also snapshotted there.
func (p *Pipeline) collectOne(ctx context.Context, name string, opts Options, scrapedAt, rawPath string) (*schema.Table, error) {
	col, err := p.lookup(name, p.cfg)
	if err != nil {
		return nil, err
	}

	log.Info().Str("source", name).Msg("Collector starting")
	raw, err := col.CollectRaw(ctx, collector.Options{
		Limit:           opts.Limit,
		Headless:        opts.Headless,
		Roles:           opts.Roles,
		MaxPagesPerRole: opts.MaxPages,
		FetchDetails:    opts.FetchDetails,
	})
	if err != nil {
		return nil, err
	}

	if err := raw.Validate("source", "url"); err != nil {
		return nil, collector.NewError(collector.ErrCodeSchemaViolation, name, "raw table failed validation", err)
	}

	if rawPath != "" {
		if err := os.MkdirAll(filepath.Dir(rawPath), 0o755); err != nil {
			log.Warn().Str("source", name).Str("path", rawPath).Err(err).Msg("Raw snapshot dir creation failed")
		} else if err := export.WriteCSV(raw, rawPath); err != nil {
			log.Warn().Str("source", name).Str("path", rawPath).Err(err).Msg("Raw snapshot write failed")
		}
	}

	return cleaning.ToSchema(raw, name, scrapedAt)
}

// dedupByURL drops rows whose exact url was already emitted, keeping the
// first occurrence in collector invocation order. Cross-source duplicates
// with different URLs are intentionally kept.
func dedupByURL(t *schema.Table) (*schema.Table, int) {
	out := schema.NewTable(t.Columns())
	seen := make(map[string]bool)
	dropped := 0

	for _, r := range t.Records() {
		u := r["url"]
		if seen[u] {
			dropped++
			continue
		}
		seen[u] = true
		out.Append(r)
	}
	return out, dropped
}

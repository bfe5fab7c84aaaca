// internal/cli/run.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swissjobmarket/jobscan/internal/pipeline"
	"github.com/swissjobmarket/jobscan/internal/ui"
)

var (
	runRoles     []string
	runSources   []string
	runLimit     int
	runMaxPages  int
	runNoDetails bool
	runHeaded    bool
	runOutDir    string
	runSaveRaw   bool
)

// runCmd executes the full collection pipeline
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all configured collectors and write the combined CSV",
	Long: `Invokes the configured collectors one at a time, maps each raw table
onto the canonical schema, drops exact duplicate URLs within the run, and
writes data/processed/jobs_combined_<timestamp>.csv.

A failing collector is logged and skipped as long as other collectors
remain; when only one collector is selected its failure aborts the run.`,
	Example: `  # Default run over the configured sources and roles
  jobscan run

  # Five listings per source, skip detail pages for speed
  jobscan run --limit 5 --no-details

  # Restrict roles and sources
  jobscan run --roles "data engineer,data scientist" --sources jobup`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&runRoles, "roles", nil, "Comma-separated role search terms (default from config)")
	runCmd.Flags().StringSliceVar(&runSources, "sources", nil, "Comma-separated collector names (default from config)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "Soft cap on listings per collector (default from config)")
	runCmd.Flags().IntVar(&runMaxPages, "max-pages-per-role", 0, "Pagination budget per role (default from config)")
	runCmd.Flags().BoolVar(&runNoDetails, "no-details", false, "Skip detail pages; leaves description_raw empty")
	runCmd.Flags().BoolVar(&runHeaded, "headed", false, "Run browser automation with a visible window")
	runCmd.Flags().StringVar(&runOutDir, "out-dir", "", "Directory for the combined export (default from config)")
	runCmd.Flags().BoolVar(&runSaveRaw, "save-raw", false, "Also snapshot each source's pre-cleaning table under the raw dir")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	limit := runLimit
	if limit <= 0 {
		limit = cfg.Limit
	}
	maxPages := runMaxPages
	if maxPages <= 0 {
		maxPages = cfg.MaxPages
	}
	roles := runRoles
	if len(roles) == 0 {
		roles = cfg.Roles
	}

	result, err := pipeline.New(cfg).Run(cmd.Context(), pipeline.Options{
		Sources:      runSources,
		Roles:        roles,
		Limit:        limit,
		MaxPages:     maxPages,
		FetchDetails: !runNoDetails,
		Headless:     cfg.Headless && !runHeaded,
		OutDir:       runOutDir,
		Progress:     true,
		SaveRaw:      runSaveRaw,
	})
	printRunSummary(result)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", ui.Success("✓"), result.Path)
	return nil
}

func printRunSummary(result *pipeline.Result) {
	if result == nil {
		return
	}
	for _, s := range result.Sources {
		if s.Err != nil {
			fmt.Printf("  %s %-12s %v\n", ui.Error("✗"), s.Source, s.Err)
		} else {
			fmt.Printf("  %s %-12s %d rows\n", ui.Success("✓"), s.Source, s.Rows)
		}
	}
	if result.Path != "" || result.Rows > 0 {
		fmt.Printf("  %s %d combined rows, %d duplicate urls dropped\n", ui.Bold("→"), result.Rows, result.Dropped)
	}
}

// internal/cli/collect.go
package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/swissjobmarket/jobscan/internal/collector"
	"github.com/swissjobmarket/jobscan/internal/export"
	"github.com/swissjobmarket/jobscan/internal/schema"
)

var (
	collectLimit    int
	collectPages    int
	collectStartURL string
	collectHeaded   bool
	collectDetails  bool
	collectOutput   string
)

// collectCmd smoke-tests a single collector without running the pipeline
var collectCmd = &cobra.Command{
	Use:   "collect <source>",
	Short: "Run one collector and print its raw table",
	Long: `Runs a single collector in isolation and prints the raw (pre-cleaning)
table, for smoke-testing a source or developing a new one. Use --output to
write the raw table to a CSV file instead.`,
	Example: `  # First five datacareer listings to stdout
  jobscan collect datacareer --limit 5

  # Raw jobup table to a file, visible browser window
  jobscan collect jobup --limit 20 --headed --output data/raw/jobup.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().IntVar(&collectLimit, "limit", 10, "Soft cap on listings to retrieve")
	collectCmd.Flags().IntVar(&collectPages, "max-pages-per-role", 0, "Pagination budget (default from config)")
	collectCmd.Flags().StringVar(&collectStartURL, "start-url", "", "Override the source's default listing URL")
	collectCmd.Flags().BoolVar(&collectHeaded, "headed", false, "Run browser automation with a visible window")
	collectCmd.Flags().BoolVar(&collectDetails, "details", false, "Follow detail pages")
	collectCmd.Flags().StringVarP(&collectOutput, "output", "o", "", "Write the raw table to this CSV file")
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name := args[0]
	col, err := collector.Lookup(name, cfg)
	if err != nil {
		return err
	}

	maxPages := collectPages
	if maxPages <= 0 {
		maxPages = cfg.MaxPages
	}

	table, err := col.CollectRaw(cmd.Context(), collector.Options{
		Limit:           collectLimit,
		Headless:        cfg.Headless && !collectHeaded,
		StartURL:        collectStartURL,
		Roles:           cfg.Roles,
		MaxPagesPerRole: maxPages,
		FetchDetails:    collectDetails,
	})
	if err != nil {
		return err
	}

	if collectOutput != "" {
		if err := export.WriteCSV(table, collectOutput); err != nil {
			return err
		}
		fmt.Printf("✓ %d raw rows written to %s\n", table.Len(), collectOutput)
		return nil
	}

	printRawTable(table)
	fmt.Printf("rows: %d\n", table.Len())
	return nil
}

// printRawTable writes an aligned preview of the key raw columns to stdout.
func printRawTable(t *schema.Table) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tCOMPANY\tLOCATION\tPOSTED\tTYPE\tURL")
	for _, r := range t.Records() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(r["title"], 40),
			truncate(r["company"], 24),
			truncate(r["location_raw"], 20),
			truncate(r["posted_date"], 12),
			truncate(r["employment_type"], 14),
			truncate(r["url"], 60),
		)
	}
	w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// internal/cli/sources.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swissjobmarket/jobscan/internal/collector"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the registered collectors",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range collector.Names() {
			fmt.Println(name)
		}
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

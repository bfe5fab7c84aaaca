// Package cli provides the command-line interface for jobscan.
package cli

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/swissjobmarket/jobscan/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jobscan",
	Short: "Collect Swiss job-board listings into one combined CSV",
	Long: `jobscan runs per-site collectors against Swiss job boards, maps every
raw listing onto one canonical schema, and writes a deduplicated,
timestamped combined CSV for downstream analysis.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	config.RegisterFlags(rootCmd)
	cobra.OnInitialize(initConfig)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// initConfig configures global logging from flags before any command runs.
func initConfig() {
	cfg, err := config.Load(rootCmd)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load configuration, using defaults")
		cfg = &config.Config{LogLevel: config.DefaultLogLevel}
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		// Keep the console quiet unless -v is given
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfg.JSONLog {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// loadConfig builds the effective configuration for a command invocation.
func loadConfig() (*config.Config, error) {
	return config.Load(rootCmd)
}

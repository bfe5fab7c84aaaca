package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// HTTP/Scraping
	HTTPTimeout time.Duration
	UserAgent   string

	// Rate Limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Browser
	Headless    bool
	PageWait    time.Duration
	PoliteDelay time.Duration

	// Pipeline
	Sources   []string
	Roles     []string
	Limit     int
	MaxPages  int
	OutputDir string
	RawDir    string
}

// Load builds a Config by combining defaults, an optional YAML config file,
// environment variables, and CLI flags, in that order of precedence.
// Caller should pass the root *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel:       DefaultLogLevel,
		JSONLog:        DefaultJSONLog,
		HTTPTimeout:    DefaultHTTPTimeout,
		UserAgent:      DefaultUserAgent,
		RateLimitRPS:   DefaultRateLimitRPS,
		RateLimitBurst: DefaultRateLimitBurst,
		Headless:       DefaultHeadless,
		PageWait:       DefaultPageWait,
		PoliteDelay:    DefaultPoliteDelay,
		Sources:        DefaultSources(),
		Roles:          DefaultRoles(),
		Limit:          DefaultLimit,
		MaxPages:       DefaultMaxPages,
		OutputDir:      DefaultOutputDir,
		RawDir:         DefaultRawDir,
	}

	// Overlay from the config file, when present
	path := DefaultConfigFile
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			path = f.Value.String()
		}
	}
	if err := applyFile(cfg, path); err != nil {
		return nil, err
	}

	// Override from environment variables
	if v := os.Getenv("JOBSCAN_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("JOBSCAN_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("JOBSCAN_RATE_LIMIT_RPS"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = rps
		}
	}

	// Read CLI flags if provided
	if cmd != nil {
		if f := cmd.Flags().Lookup("user-agent"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.UserAgent = s
			}
		}
		if f := cmd.Flags().Lookup("timeout"); f != nil {
			if s := f.Value.String(); s != "" {
				if d, err := time.ParseDuration(s); err == nil {
					cfg.HTTPTimeout = d
				}
			}
		}
		if f := cmd.Flags().Lookup("json"); f != nil {
			if f.Value.String() == "true" {
				cfg.JSONLog = true
			}
		}
		if f := cmd.Flags().Lookup("verbose"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "debug"
			}
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel       = "info"
	DefaultJSONLog        = false
	DefaultUserAgent      = "jobscan/1.0 (student project; +https://github.com/swissjobmarket/jobscan)"
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultRateLimitRPS   = 1.0
	DefaultRateLimitBurst = 2
	DefaultPageWait       = 15 * time.Second
	DefaultPoliteDelay    = 1 * time.Second
	DefaultHeadless       = true
	DefaultOutputDir      = "data/processed"
	DefaultRawDir         = "data/raw"
	DefaultLimit          = 100
	DefaultMaxPages       = 20
	DefaultConfigFile     = "jobscan.yaml"
)

// DefaultSources are the collectors a pipeline run invokes when none are
// selected explicitly.
func DefaultSources() []string {
	return []string{"datacareer", "jobup"}
}

// DefaultRoles are the search terms queried on role-searchable boards.
func DefaultRoles() []string {
	return []string{
		"data scientist",
		"data analyst",
		"machine learning engineer",
		"data engineer",
		"ai engineer",
	}
}

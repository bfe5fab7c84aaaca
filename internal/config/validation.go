package config

import "fmt"

func validate(c *Config) error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit rps must be > 0")
	}
	if c.Limit <= 0 {
		return fmt.Errorf("limit must be > 0")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages per role must be > 0")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir must not be empty")
	}
	return nil
}

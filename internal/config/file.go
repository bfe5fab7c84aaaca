package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML config file shape. Every field is optional;
// zero values leave the corresponding Config field untouched.
type fileConfig struct {
	LogLevel       string   `yaml:"log_level"`
	UserAgent      string   `yaml:"user_agent"`
	HTTPTimeout    string   `yaml:"http_timeout"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
	PoliteDelay    string   `yaml:"polite_delay"`
	Sources        []string `yaml:"sources"`
	Roles          []string `yaml:"roles"`
	Limit          int      `yaml:"limit"`
	MaxPages       int      `yaml:"max_pages_per_role"`
	OutputDir      string   `yaml:"output_dir"`
	RawDir         string   `yaml:"raw_dir"`
}

// applyFile overlays settings from the YAML file at path onto cfg. A missing
// default file is fine; an explicitly requested but unreadable or malformed
// file is an error.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultConfigFile {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.UserAgent != "" {
		cfg.UserAgent = fc.UserAgent
	}
	if fc.HTTPTimeout != "" {
		d, err := time.ParseDuration(fc.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("config file %s: invalid http_timeout: %w", path, err)
		}
		cfg.HTTPTimeout = d
	}
	if fc.RateLimitRPS > 0 {
		cfg.RateLimitRPS = fc.RateLimitRPS
	}
	if fc.RateLimitBurst > 0 {
		cfg.RateLimitBurst = fc.RateLimitBurst
	}
	if fc.PoliteDelay != "" {
		d, err := time.ParseDuration(fc.PoliteDelay)
		if err != nil {
			return fmt.Errorf("config file %s: invalid polite_delay: %w", path, err)
		}
		cfg.PoliteDelay = d
	}
	if len(fc.Sources) > 0 {
		cfg.Sources = fc.Sources
	}
	if len(fc.Roles) > 0 {
		cfg.Roles = fc.Roles
	}
	if fc.Limit > 0 {
		cfg.Limit = fc.Limit
	}
	if fc.MaxPages > 0 {
		cfg.MaxPages = fc.MaxPages
	}
	if fc.OutputDir != "" {
		cfg.OutputDir = fc.OutputDir
	}
	if fc.RawDir != "" {
		cfg.RawDir = fc.RawDir
	}

	return nil
}

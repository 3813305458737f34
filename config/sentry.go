package config

import "fmt"

// SentryConfig enables error reporting for persistence and crawl failures.
// An empty DSN disables it.
type SentryConfig struct {
	DSN         string `json:"dsn"`
	Environment string `json:"environment"`
	// ServerName tags events with the reporting instance. Defaults to the host name.
	ServerName       string  `json:"server_name"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

// Enabled reports whether a DSN is configured.
func (c SentryConfig) Enabled() bool { return c.DSN != "" }

// SetDefaults names the environment when reporting is enabled.
func (c *SentryConfig) SetDefaults() {
	if c.Enabled() && c.Environment == "" {
		c.Environment = "production"
	}
}

// Validate checks the sample rate.
func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("traces_sample_rate must be within [0, 1], got %g", c.TracesSampleRate)
	}
	return nil
}

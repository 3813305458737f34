package config

import (
	"fmt"
	"strings"

	"github.com/kilianp07/berthplan/infra/logger"
)

// LoggingConfig defines the log level, format and optional rotating file.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level"`
	// Format is json or console. Empty follows APP_ENV.
	Format string            `json:"format"`
	File   logger.FileConfig `json:"file"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %s", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown format %s", c.Format)
	}
	return nil
}

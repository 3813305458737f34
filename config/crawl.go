package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/berthplan/core/factory"
)

// CrawlConfig configures the schedule poller. An empty source type disables
// it.
type CrawlConfig struct {
	Source        factory.ModuleConfig `json:"source"`
	Interval      time.Duration        `json:"interval"`
	SkipUnchanged bool                 `json:"skip_unchanged"`
}

func (c *CrawlConfig) SetDefaults() {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Minute
	}
}

func (c CrawlConfig) Validate() error {
	if c.Enabled() && c.Interval < time.Minute {
		return fmt.Errorf("interval %s is below one minute", c.Interval)
	}
	return nil
}

// Enabled reports whether a source is configured.
func (c CrawlConfig) Enabled() bool { return c.Source.Type != "" }

package config

import "fmt"

// StoreConfig selects where versions are persisted.
type StoreConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string `json:"driver"`
	// Path is the SQLite database file.
	Path string `json:"path"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.Driver == "sqlite" && c.Path == "" {
		c.Path = "berthplan.db"
	}
}

func (c StoreConfig) Validate() error {
	switch c.Driver {
	case "memory":
		return nil
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("path is required")
		}
		return nil
	}
	return fmt.Errorf("unknown driver %q", c.Driver)
}

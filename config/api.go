package config

import "time"

// APIConfig configures the HTTP server.
type APIConfig struct {
	Addr string `json:"addr"`
	// SessionTTL evicts edit sessions idle for longer. Zero keeps them.
	SessionTTL time.Duration `json:"session_ttl"`
}

func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 12 * time.Hour
	}
}

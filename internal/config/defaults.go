package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultPort           = 4000
	DefaultStreamInterval = 5 * time.Second
	DefaultExchange       = "NASDAQ"
	DefaultOutboxSize     = 64
)

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}

	if c.Stream.DefaultInterval == 0 {
		c.Stream.DefaultInterval = DefaultStreamInterval
	}
	if c.Stream.Exchange == "" {
		c.Stream.Exchange = DefaultExchange
	}
	if c.Stream.OutboxSize == 0 {
		c.Stream.OutboxSize = DefaultOutboxSize
	}
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

package config

import (
	"errors"
	"fmt"
)

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Stream.DefaultInterval <= 0 {
		return errors.New("stream.default_interval must be positive")
	}
	if c.Stream.OutboxSize < 1 {
		return errors.New("stream.outbox_size must be >= 1")
	}

	seen := make(map[int]bool, len(c.Catalog.Instruments))
	for i, in := range c.Catalog.Instruments {
		if in.ID <= 0 {
			return fmt.Errorf("catalog.instruments[%d].id must be positive, got %d", i, in.ID)
		}
		if in.Symbol == "" {
			return fmt.Errorf("catalog.instruments[%d].symbol is required", i)
		}
		if seen[in.ID] {
			return fmt.Errorf("catalog.instruments[%d].id %d is duplicated", i, in.ID)
		}
		seen[in.ID] = true
	}

	return nil
}

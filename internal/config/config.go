package config

import "time"

// Config is the root configuration for a streamd instance.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Stream  StreamConfig  `yaml:"stream"`
	Catalog CatalogConfig `yaml:"catalog"`
}

// ServerConfig holds the HTTP/WebSocket listener settings.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

// StreamConfig holds quote delivery settings.
type StreamConfig struct {
	DefaultInterval time.Duration `yaml:"default_interval"`
	Exchange        string        `yaml:"exchange"`
	OutboxSize      int           `yaml:"outbox_size"`
}

// CatalogConfig lists the instruments served by this process.
// An empty list falls back to the built-in reference catalog.
type CatalogConfig struct {
	Instruments []InstrumentConfig `yaml:"instruments"`
}

// InstrumentConfig is one catalog entry.
type InstrumentConfig struct {
	ID     int    `yaml:"id"`
	Symbol string `yaml:"symbol"`
}

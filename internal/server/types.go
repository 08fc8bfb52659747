package server

import (
	"encoding/json"
	"errors"
	"time"
)

// Errors
var (
	// ErrClientClosed is returned by Emit once the client's outbox has
	// been closed by disconnect or shutdown.
	ErrClientClosed = errors.New("client closed")
)

// Envelope is the JSON frame exchanged with clients in both directions:
// a named event plus an event-specific payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Config configures the push server.
type Config struct {
	// DefaultInterval is the delivery period used by the start command.
	DefaultInterval time.Duration

	// StaticDir is served at "/". Empty means the built-in landing page.
	StaticDir string

	// OutboxSize is the initial per-client outbound queue capacity.
	OutboxSize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultInterval: 5 * time.Second,
		OutboxSize:      64,
	}
}

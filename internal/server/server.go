// Package server exposes the push service over WebSocket plus the static
// landing page and health endpoint.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tickstream/tickstream/internal/catalog"
	"github.com/tickstream/tickstream/internal/quote"
	"github.com/tickstream/tickstream/internal/session"
	"github.com/tickstream/tickstream/internal/watchlist"
)

// Server accepts client connections and runs one session per client.
type Server struct {
	cfg     Config
	store   *watchlist.Store
	catalog *catalog.Catalog
	quotes  *quote.Generator
	logger  *slog.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a push server.
func New(cfg Config, store *watchlist.Store, cat *catalog.Catalog, quotes *quote.Generator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultInterval <= 0 {
		cfg.DefaultInterval = DefaultConfig().DefaultInterval
	}
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = DefaultConfig().OutboxSize
	}

	return &Server{
		cfg:     cfg,
		store:   store,
		catalog: cat,
		quotes:  quotes,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Start prepares the server for accepting connections. Sessions created
// afterwards inherit the given context.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.logger.Info("push server started",
		"instruments", s.catalog.Len(),
		"default_interval", s.cfg.DefaultInterval,
	)
	return nil
}

// Shutdown disconnects every client and stops their sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down push server")

	if s.cancel != nil {
		s.cancel()
	}

	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}

	s.logger.Info("push server stopped", "disconnected", len(clients))
	return nil
}

// Handler returns the HTTP surface: "/" static landing page, "/health",
// and the "/ws" WebSocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	if s.cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.StaticDir)))
	} else {
		mux.HandleFunc("/", s.handleLanding)
	}
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)

	return mux
}

// handleWS upgrades the connection and wires a fresh session to it.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}

	c := &client{
		conn:    conn,
		outbox:  NewOutbox(s.cfg.OutboxSize),
		done:    make(chan struct{}),
		onClose: s.removeClient,
	}

	sess := session.New(
		session.Config{DefaultInterval: s.cfg.DefaultInterval},
		s.store, s.catalog, s.quotes, c, s.logger,
	)
	c.session = sess
	c.logger = s.logger.With("session", sess.ID(), "remote", conn.RemoteAddr().String())

	if err := sess.Start(s.ctx); err != nil {
		s.logger.Error("session start failed", "error", err)
		conn.Close()
		return
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	total := len(s.clients)
	s.mu.Unlock()

	c.logger.Info("client connected", "total_clients", total)

	go c.writePump()
	go c.heartbeatLoop()
	go c.readPump()
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	total := len(s.clients)
	s.mu.Unlock()

	s.logger.Info("client removed", "total_clients", total)
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}{
		Status: "healthy",
		Components: map[string]any{
			"clients":     s.ClientCount(),
			"watch_lists": s.store.Len(),
			"instruments": s.catalog.Len(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(landingPage))
}

const landingPage = `<!DOCTYPE html>
<html>
<head><title>tickstream</title></head>
<body>
<h1>tickstream</h1>
<p>Real-time quote push service. Connect a WebSocket client to <code>/ws</code>
and send <code>{"event":"start"}</code> to begin receiving quotes.</p>
</body>
</html>
`

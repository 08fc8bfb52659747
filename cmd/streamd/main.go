// streamd is the real-time quote push service: clients connect over
// WebSocket, subscribe to watch lists, and receive periodically refreshed
// quote snapshots.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tickstream/tickstream/internal/catalog"
	"github.com/tickstream/tickstream/internal/config"
	"github.com/tickstream/tickstream/internal/quote"
	"github.com/tickstream/tickstream/internal/server"
	"github.com/tickstream/tickstream/internal/version"
	"github.com/tickstream/tickstream/internal/watchlist"
)

func main() {
	configPath := flag.String("config", "configs/streamd.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting streamd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"default_interval", cfg.Stream.DefaultInterval,
		"instruments", len(cfg.Catalog.Instruments),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat := buildCatalog(cfg)
	store := watchlist.NewStore()
	quotes := quote.NewGenerator(quote.WithExchange(cfg.Stream.Exchange))

	push := server.New(server.Config{
		DefaultInterval: cfg.Stream.DefaultInterval,
		StaticDir:       cfg.Server.StaticDir,
		OutboxSize:      cfg.Stream.OutboxSize,
	}, store, cat, quotes, logger)

	if err := push.Start(ctx); err != nil {
		logger.Error("failed to start push server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: push.Handler(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("streaming service running",
			"addr", fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
		)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		push.Shutdown(shutdownCtx)
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("streamd exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("streamd stopped")
}

// loadConfig reads the config file, falling back to built-in defaults
// when the default path does not exist.
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("config file not found, using defaults", "path", path)
		return config.DefaultWithEnv()
	}
	return config.LoadAndValidate(path)
}

// buildCatalog converts configured instruments, or falls back to the
// built-in reference catalog.
func buildCatalog(cfg *config.Config) *catalog.Catalog {
	if len(cfg.Catalog.Instruments) == 0 {
		return catalog.Default()
	}

	instruments := make([]catalog.Instrument, 0, len(cfg.Catalog.Instruments))
	for _, in := range cfg.Catalog.Instruments {
		instruments = append(instruments, catalog.Instrument{ID: in.ID, Symbol: in.Symbol})
	}
	return catalog.New(instruments)
}

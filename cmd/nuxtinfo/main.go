package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/use-agent/nuxtinfo/api"
	"github.com/use-agent/nuxtinfo/config"
	"github.com/use-agent/nuxtinfo/engine"
	"github.com/use-agent/nuxtinfo/evaluator"
	"github.com/use-agent/nuxtinfo/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	// A .env file is optional; real environment variables win.
	envErr := godotenv.Load()
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("nuxtinfo starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"evaluator", cfg.Evaluator.Backend,
		"allowedPrefix", cfg.Fetch.AllowedPrefix,
	)
	if envErr != nil && !os.IsNotExist(envErr) {
		slog.Warn("failed to load .env file", "error", envErr)
	}

	// ── 3. Initialise JS evaluator ──────────────────────────────────
	ev, err := evaluator.New(cfg.Evaluator)
	if err != nil {
		slog.Error("failed to initialise evaluator", "error", err)
		os.Exit(1)
	}
	if closer, ok := ev.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				slog.Warn("evaluator close failed", "error", err)
			}
		}()
	}

	// ── 4. Initialise scraper ───────────────────────────────────────
	sc := scraper.NewScraper(engine.NewHTTPEngine(), ev, cfg.Fetch)

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(sc, cfg, time.Now())

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-serveErr:
		slog.Error("HTTP server error", "error", err)
	}

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("nuxtinfo stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/harvest/api"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/discovery"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/executor"
	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/scrapers"
	"github.com/use-agent/harvest/sink"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("harvest starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Initialise browser (rendered mode) ───────────────────────
	browser, err := scraper.NewBrowser(cfg.Browser)
	if err != nil {
		slog.Error("failed to initialise browser", "error", err)
		os.Exit(1)
	}
	defer browser.Close()

	// ── 3b. Initialise raw HTTP engine ──────────────────────────────
	limiter := engine.NewHostLimiter(cfg.Fetch.HostRPS, cfg.Fetch.HostBurst)
	defer limiter.Stop()
	httpEngine := engine.NewHTTPEngine(limiter)

	// ── 4. Initialise executor and scraper registry ─────────────────
	x := executor.New(httpEngine, browser)

	reg := scraper.NewRegistry()
	for _, spec := range []scraper.Spec{
		scrapers.Links(""),
		scrapers.Article(),
	} {
		if err := reg.Register(spec); err != nil {
			slog.Error("failed to register scraper", "scraper", spec.Name, "error", err)
			os.Exit(1)
		}
	}

	// ── 4b. Discovery strategies and sinks ──────────────────────────
	strategies := map[string]discovery.Strategy{
		"sitemap": discovery.NewSitemap(nil),
		"links":   discovery.NewLinks(""),
	}
	sinks := []sink.Sink{sink.Log{}}
	if cfg.Sink.CSVDir != "" {
		sinks = append(sinks, sink.NewCSV(cfg.Sink.CSVDir))
		slog.Info("CSV sink enabled", "dir", cfg.Sink.CSVDir)
	}

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(reg, x, browser, strategies, sinks, cfg, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight runs 10 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// browser.Close() runs via defer — drains page pool and kills Chrome.
	slog.Info("harvest stopped")
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

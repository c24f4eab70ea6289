package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/api/handler"
	"github.com/use-agent/harvest/api/middleware"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/discovery"
	"github.com/use-agent/harvest/executor"
	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/sink"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(reg *scraper.Registry, x *executor.Executor, browser *scraper.Browser, strategies map[string]discovery.Strategy, sinks []sink.Sink, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(browser, reg, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Runs — one request is one synchronous scraper run.
	protected.POST("/runs", handler.Run(reg, x, strategies, sinks, cfg))

	// Scraper catalogue.
	protected.GET("/scrapers", handler.Scrapers(reg))

	return r
}

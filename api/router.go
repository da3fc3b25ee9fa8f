// Package api wires the HTTP routes and middleware.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/tradewithedge/tickersnap/api/handler"
	"github.com/tradewithedge/tickersnap/api/middleware"
	"github.com/tradewithedge/tickersnap/cache"
	"github.com/tradewithedge/tickersnap/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(cfg *config.Config, market handler.MarketFetcher, moversCache *cache.MoversCache, version string) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	// Health — no auth required.
	r.GET("/health", handler.NewHealth(version).Get)

	// Protected group — auth + rate limit.
	protected := r.Group("/api")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))

	// Snapshot
	snapshot := handler.NewSnapshot(handler.NewPipeline(cfg), market, cfg.Webhook)
	protected.GET("/snapshot", snapshot.Capture)
	protected.GET("/snapshot/stream", snapshot.Stream)

	// Market data
	protected.GET("/ticker/search", handler.NewTicker(market).Search)
	protected.GET("/gainers-losers", handler.NewMovers(market, moversCache).Get)

	return r
}

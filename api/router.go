package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/nuxtinfo/api/handler"
	"github.com/use-agent/nuxtinfo/api/middleware"
	"github.com/use-agent/nuxtinfo/config"
	"github.com/use-agent/nuxtinfo/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	API:     RateLimit (if enabled)
//
// Health and the static fallback sit outside the rate limiter.
func NewRouter(sc *scraper.Scraper, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())

	r.GET("/health", handler.Health(sc, startTime))

	api := r.Group("")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit))
	}
	api.POST("/mcpedl/info", handler.Info(sc))

	mountStatic(r, cfg.Server.StaticDir)

	return r
}

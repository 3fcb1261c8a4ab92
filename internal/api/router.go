package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"rfboard/config"
	"rfboard/internal/mw"
	"rfboard/internal/reconcile"
	"rfboard/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s *store.Store, session *reconcile.Session, hub *Hub, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, session, cfg.Demo.Enabled)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	// The TTL is around one poll tick; a longer cache would show stale
	// telemetry on the dashboard.
	cacheStore := cache.New(cfg.Server.CacheTTL, 10*time.Minute)
	caching := mw.Cache(cacheStore, cfg.Server.CacheTTL)

	// Full snapshot in the backend's own wire shape.
	r.GET("/data.json", caching, handler.GetSnapshot)

	// Relay push channel.
	r.GET("/ws", hub.Handle)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// GET /api/display/{group}
		api.GET("/display/:group", handler.GetDisplayList)

		// GET /api/charts/{slot}
		api.GET("/charts/:slot", caching, handler.GetChartHistory)

		// GET /api/discovered
		api.GET("/discovered", handler.GetDiscovered)

		// Editor lifecycle
		api.GET("/settings", handler.GetSettings)
		api.DELETE("/settings", handler.CancelSettings)
		api.POST("/config", handler.PostConfig)
		api.POST("/slot", handler.PostSlots)
		api.POST("/group", handler.PostGroup)
	}

	return r
}

// Package router builds the Gin engine from the assembled application.
package router

import (
	"net/http"
	"time"

	apphttp "lead_engine_backend/internal/http"
	"lead_engine_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// webhookRateLimit bounds unauthenticated provider callbacks per client IP.
const (
	webhookRateLimit = 20
	webhookRateBurst = 40
)

// New assembles the Gin engine: global middleware, health endpoints and the
// route groups each module mounts itself on.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(httpkit.RequestLogger(app.Logger))

	corsCfg := cors.DefaultConfig()
	if app.Config.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = app.Config.GetCORSOrigins()
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-Request-Id", "X-User-ID")
	corsCfg.MaxAge = 12 * time.Hour
	engine.Use(cors.New(corsCfg))

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/api/ready", func(c *gin.Context) {
		if err := app.Health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	v1 := engine.Group("/api/v1")

	webhookLimiter := httpkit.NewIPRateLimiter(webhookRateLimit, webhookRateBurst, app.Logger)
	webhooks := v1.Group("/webhooks")
	webhooks.Use(webhookLimiter.RateLimit())

	ctx := &apphttp.RouterContext{
		Engine:   engine,
		V1:       v1,
		Webhooks: webhooks,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Info("module routes registered", "module", module.Name())
	}

	return engine
}

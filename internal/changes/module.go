// Package changes provides the change tracking bounded context module.
package changes

import (
	apphttp "lead_engine_backend/internal/http"
	"lead_engine_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the changes bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	tracker *Tracker
}

// NewModule creates and initializes the changes module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	return &Module{
		handler: NewHandler(repo),
		tracker: NewTracker(repo, log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "changes"
}

// Tracker exposes the write-side facade for cross-module wiring.
func (m *Module) Tracker() *Tracker {
	return m.tracker
}

// RegisterRoutes mounts rollup notification routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/notifications/rollups")
	group.GET("", m.handler.HandleList)
	group.GET("/unread-count", m.handler.HandleUnreadCount)
	group.POST("/:id/read", m.handler.HandleMarkRead)
}

// Package queue provides the queue scheduling bounded context module.
package queue

import (
	apphttp "lead_engine_backend/internal/http"
	"lead_engine_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the queue bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the queue module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, log)
	handler := NewHandler(service, repo)

	return &Module{handler: handler, service: service}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "queue"
}

// Service exposes the scheduling service for the worker process.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts queue routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/queue/:tenantId")
	group.POST("/prepare/:date", m.handler.HandlePrepare)
	group.GET("/assignments/:date", m.handler.HandleListAssignments)
}

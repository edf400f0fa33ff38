// Package leads provides the lead lifecycle bounded context module: the
// composite status model, the meeting-driven state machine and the phone
// correlator behind it.
package leads

import (
	"lead_engine_backend/internal/events"
	apphttp "lead_engine_backend/internal/http"
	"lead_engine_backend/internal/leads/handler"
	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/internal/leads/service"
	"lead_engine_backend/platform/logger"
	"lead_engine_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, tracker service.ChangeTracker, eventBus events.Bus, val *validator.Validator, log *logger.Logger, cfg service.Config) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, tracker, eventBus, log, cfg)
	h := handler.New(svc, repo, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service exposes the lifecycle service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/leads")
	group.GET("/:id", m.handler.HandleGet)
	group.POST("/:id/promote", m.handler.HandlePromote)
}

// Package chat provides the inbound chat bounded context module.
// This file defines the module that encapsulates setup and route registration.
package chat

import (
	"time"

	"lead_engine_backend/internal/events"
	apphttp "lead_engine_backend/internal/http"
	"lead_engine_backend/internal/verify"
	"lead_engine_backend/platform/config"
	"lead_engine_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the chat bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the chat module with all its dependencies.
func NewModule(pool *pgxpool.Pool, leads LeadResolver, tracker ChangeTracker, sender ReplySender, eventBus events.Bus, cfg config.ChatWebhookConfig, log *logger.Logger, retryBudget int, retryDelay time.Duration) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, leads, tracker, sender, eventBus, log, retryBudget, retryDelay)
	verifier := verify.ForSecret(cfg.GetChatWebhookSecret(), cfg.SignatureEnforced())
	handler := NewHandler(service, verifier, cfg.GetChatVerifyToken())

	return &Module{handler: handler, service: service}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "chat"
}

// Service exposes the chat service for cross-module wiring.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts chat webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Webhooks.GET("/chat/:tenantId", m.handler.HandleVerification)
	ctx.Webhooks.POST("/chat/:tenantId", m.handler.HandleDelivery)
}

// Package meetings provides the calendar webhook bounded context module.
package meetings

import (
	apphttp "lead_engine_backend/internal/http"
	"lead_engine_backend/internal/verify"
	"lead_engine_backend/platform/config"
	"lead_engine_backend/platform/logger"
	"lead_engine_backend/platform/validator"
)

// Module is the meetings bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the meetings module.
func NewModule(leads LifecycleApplier, cfg config.MeetingWebhookConfig, val *validator.Validator, log *logger.Logger) *Module {
	service := NewService(leads, log)
	verifier := verify.ForSecret(cfg.GetMeetingWebhookSecret(), cfg.SignatureEnforced())
	handler := NewHandler(service, verifier, val)

	return &Module{handler: handler}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "meetings"
}

// RegisterRoutes mounts meeting webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Webhooks.POST("/meetings/:tenantId", m.handler.HandleDelivery)
}

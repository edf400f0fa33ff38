// Package handler serves the lead lifecycle HTTP surface.
package handler

import (
	"errors"
	"net/http"
	"time"

	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/internal/leads/service"
	"lead_engine_backend/platform/httpkit"
	"lead_engine_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles lead HTTP requests.
type Handler struct {
	service *service.Service
	repo    *repository.Repository
	val     *validator.Validator
}

// New creates a new leads handler.
func New(svc *service.Service, repo *repository.Repository, val *validator.Validator) *Handler {
	return &Handler{service: svc, repo: repo, val: val}
}

func (h *Handler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetHeader("X-Tenant-ID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "missing or invalid X-Tenant-ID header", nil)
		return uuid.UUID{}, false
	}
	return id, true
}

// LeadResponse is the read model returned over HTTP.
type LeadResponse struct {
	ID                  uuid.UUID      `json:"id"`
	Phone               string         `json:"phone"`
	Email               string         `json:"email,omitempty"`
	DisplayName         string         `json:"displayName"`
	PipelineStatus      string         `json:"pipelineStatus"`
	QualificationState  string         `json:"qualificationState"`
	Heat                string         `json:"bantHeat"`
	ProcessingState     string         `json:"processingState"`
	QueueStatus         string         `json:"queueStatus"`
	InteractionCount    int            `json:"interactionCount"`
	FollowUpCount       int            `json:"followUpCount"`
	LastInteraction     *time.Time     `json:"lastInteraction,omitempty"`
	NextFollowUp        *time.Time     `json:"nextFollowUp,omitempty"`
	RequiresHumanReview bool           `json:"requiresHumanReview"`
	Metadata            map[string]any `json:"metadata,omitempty"`
}

func toResponse(lead domain.Lead) LeadResponse {
	return LeadResponse{
		ID:                  lead.ID,
		Phone:               lead.Phone,
		Email:               lead.Email,
		DisplayName:         lead.DisplayName,
		PipelineStatus:      string(lead.PipelineStatus),
		QualificationState:  string(lead.QualificationState),
		Heat:                string(lead.Heat),
		ProcessingState:     string(lead.ProcessingState),
		QueueStatus:         string(lead.QueueStatus),
		InteractionCount:    lead.InteractionCount,
		FollowUpCount:       lead.FollowUpCount,
		LastInteraction:     lead.LastInteraction,
		NextFollowUp:        lead.NextFollowUp,
		RequiresHumanReview: lead.RequiresHumanReview,
		Metadata:            lead.Metadata,
	}
}

// HandleGet returns one lead.
// GET /api/v1/leads/:id
func (h *Handler) HandleGet(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	lead, err := h.repo.GetByID(c.Request.Context(), tenantID, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, "lead not found", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(lead))
}

// PromoteRequest is the body for an external qualification promotion.
type PromoteRequest struct {
	Target string `json:"target" validate:"required,oneof=warm hot"`
}

// HandlePromote applies a qualification promotion (cold -> warm -> hot).
// POST /api/v1/leads/:id/promote
func (h *Handler) HandlePromote(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	var req PromoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	lead, err := h.service.PromoteHeat(c.Request.Context(), tenantID, leadID, domain.BANTHeat(req.Target))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(lead))
}

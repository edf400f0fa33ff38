package queue

import (
	"errors"
	"net/http"
	"time"

	"lead_engine_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler serves queue assignments and the manual preparation trigger.
type Handler struct {
	service *Service
	repo    *Repository
}

// NewHandler creates a new queue handler.
func NewHandler(service *Service, repo *Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

func parseDate(c *gin.Context, param string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", nil)
		return time.Time{}, false
	}
	return date, true
}

// HandlePrepare triggers queue preparation for a (tenant, date).
// POST /api/v1/queue/:tenantId/prepare/:date
func (h *Handler) HandlePrepare(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid tenant id", nil)
		return
	}
	forDate, ok := parseDate(c, "date")
	if !ok {
		return
	}

	result, err := h.service.PrepareQueue(c.Request.Context(), tenantID, forDate)
	if errors.Is(err, ErrSettingsNotFound) {
		httpkit.Error(c, http.StatusNotFound, "queue settings not found", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// HandleListAssignments returns the queue for a (tenant, date).
// GET /api/v1/queue/:tenantId/assignments/:date
func (h *Handler) HandleListAssignments(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid tenant id", nil)
		return
	}
	forDate, ok := parseDate(c, "date")
	if !ok {
		return
	}

	assignments, err := h.repo.ListAssignments(c.Request.Context(), tenantID, forDate)
	if httpkit.HandleError(c, err) {
		return
	}
	if assignments == nil {
		assignments = []Assignment{}
	}
	httpkit.OK(c, gin.H{"assignments": assignments})
}

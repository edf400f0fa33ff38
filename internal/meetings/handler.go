package meetings

import (
	"encoding/json"
	"net/http"

	"lead_engine_backend/internal/verify"
	"lead_engine_backend/platform/httpkit"
	"lead_engine_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles meeting webhook HTTP requests.
type Handler struct {
	service  *Service
	verifier verify.Verifier
	val      *validator.Validator
}

// NewHandler creates a new meetings webhook handler.
func NewHandler(service *Service, verifier verify.Verifier, val *validator.Validator) *Handler {
	return &Handler{service: service, verifier: verifier, val: val}
}

// HandleDelivery processes one calendar webhook delivery.
// POST /api/v1/webhooks/meetings/:tenantId
//
// Unlike the chat channel, a malformed body gets a 400: calendar providers
// deliver single events and their retry on 4xx is bounded.
func (h *Handler) HandleDelivery(c *gin.Context) {
	requestID := httpkit.GetRequestID(c)

	body, err := c.GetRawData()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unreadable request body", nil)
		return
	}

	if err := h.verifier.Verify(body, c.GetHeader(verify.Header)); err != nil {
		httpkit.Error(c, http.StatusUnauthorized, err.Error(), nil)
		return
	}

	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid tenant id", nil)
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "malformed payload", err.Error())
		return
	}
	if err := h.val.Struct(payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	resp, err := h.service.Process(c.Request.Context(), tenantID, payload, requestID)
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusOK, resp)
}

package chat

import (
	"encoding/json"
	"net/http"

	"lead_engine_backend/internal/verify"
	"lead_engine_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles chat webhook HTTP requests.
type Handler struct {
	service     *Service
	verifier    verify.Verifier
	verifyToken string
}

// NewHandler creates a new chat webhook handler.
func NewHandler(service *Service, verifier verify.Verifier, verifyToken string) *Handler {
	return &Handler{service: service, verifier: verifier, verifyToken: verifyToken}
}

// HandleVerification answers the provider's subscription handshake.
// GET /api/v1/webhooks/chat/:tenantId
func (h *Handler) HandleVerification(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || token != h.verifyToken {
		httpkit.Error(c, http.StatusForbidden, "verification failed", nil)
		return
	}
	c.String(http.StatusOK, challenge)
}

// HandleDelivery processes an inbound chat webhook delivery.
// POST /api/v1/webhooks/chat/:tenantId
//
// The endpoint answers 200 for everything except a bad signature: a non-2xx
// makes the provider redeliver the whole batch, and redelivery cannot fix a
// malformed payload.
func (h *Handler) HandleDelivery(c *gin.Context) {
	requestID := httpkit.GetRequestID(c)

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusOK, ProcessingResult{
			RequestID: requestID,
			Errors:    []ItemError{{Reason: "unreadable request body"}},
		})
		return
	}

	if err := h.verifier.Verify(body, c.GetHeader(verify.Header)); err != nil {
		httpkit.Error(c, http.StatusUnauthorized, err.Error(), nil)
		return
	}

	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		c.JSON(http.StatusOK, ProcessingResult{
			RequestID: requestID,
			Errors:    []ItemError{{Reason: "invalid tenant id"}},
		})
		return
	}

	var payload InboundPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusOK, ProcessingResult{
			RequestID: requestID,
			Errors:    []ItemError{{Reason: "malformed payload: " + err.Error()}},
		})
		return
	}

	result := h.service.ProcessDelivery(c.Request.Context(), tenantID, payload, requestID)
	c.JSON(http.StatusOK, result)
}

package changes

import (
	"errors"
	"net/http"
	"strconv"

	"lead_engine_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultListLimit = 50

// Handler serves the aggregated notification rollups.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new changes handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) userID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetHeader("X-User-ID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "missing or invalid X-User-ID header", nil)
		return uuid.UUID{}, false
	}
	return id, true
}

// HandleList returns the user's rollups, unread first.
// GET /api/v1/notifications/rollups
func (h *Handler) HandleList(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	notifications, err := h.repo.ListNotifications(c.Request.Context(), userID, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	if notifications == nil {
		notifications = []AggregatedNotification{}
	}
	httpkit.OK(c, gin.H{"notifications": notifications})
}

// HandleUnreadCount returns the unread rollup count.
// GET /api/v1/notifications/rollups/unread-count
func (h *Handler) HandleUnreadCount(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	count, err := h.repo.CountUnread(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"unreadCount": count})
}

// HandleMarkRead closes one rollup.
// POST /api/v1/notifications/rollups/:id/read
func (h *Handler) HandleMarkRead(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notification id", nil)
		return
	}

	err = h.repo.MarkRead(c.Request.Context(), userID, notificationID)
	if errors.Is(err, ErrNotificationNotFound) {
		httpkit.Error(c, http.StatusNotFound, "notification not found", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

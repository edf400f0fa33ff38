// Package handler serves in-app notifications over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"lead_engine_backend/internal/notification/inapp"
	"lead_engine_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	repo *inapp.Repository
}

func New(repo *inapp.Repository) *Handler {
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

// HandleList returns recent notifications for the user.
// GET /api/v1/notifications
func (h *Handler) HandleList(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.repo.List(c.Request.Context(), userID, limit, unreadOnly)
	if httpkit.HandleError(c, err) {
		return
	}
	if notifications == nil {
		notifications = []inapp.Notification{}
	}
	httpkit.OK(c, gin.H{"notifications": notifications})
}

// HandleUnreadCount returns the unread notification count.
// GET /api/v1/notifications/unread-count
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

// HandleMarkRead marks one notification as read.
// POST /api/v1/notifications/:id/read
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

	updated, err := h.repo.MarkRead(c.Request.Context(), userID, notificationID)
	if httpkit.HandleError(c, err) {
		return
	}
	if !updated {
		httpkit.Error(c, http.StatusNotFound, "notification not found", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleMarkAllRead marks every unread notification as read.
// POST /api/v1/notifications/read-all
func (h *Handler) HandleMarkAllRead(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	updated, err := h.repo.MarkAllRead(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"updated": updated})
}

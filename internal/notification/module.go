// Package notification provides in-app notifications driven by domain
// events. Domain modules publish what happened; this module decides who is
// told and how urgently.
package notification

import (
	"context"
	"fmt"
	"time"

	"lead_engine_backend/internal/events"
	apphttp "lead_engine_backend/internal/http"
	notifhandler "lead_engine_backend/internal/notification/handler"
	"lead_engine_backend/internal/notification/inapp"
	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// severityByEventType maps meeting lifecycle outcomes onto notification
// categories: a booked meeting is good news, a cancellation is a warning and
// a no-show needs someone's attention now.
var severityByEventType = map[string]string{
	"scheduled":   "success",
	"canceled":    "warning",
	"no_show":     "error",
	"rescheduled": "info",
}

// Module is the notification bounded context module implementing http.Module.
type Module struct {
	handler *notifhandler.Handler
	inapp   *inapp.Service
	log     *logger.Logger
}

// NewModule creates the notification module and subscribes its event handlers.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, log *logger.Logger) *Module {
	repo := inapp.NewRepository(pool)
	svc := inapp.NewService(repo, log)

	m := &Module{
		handler: notifhandler.New(repo),
		inapp:   svc,
		log:     log,
	}

	eventBus.Subscribe(events.MeetingLifecycleApplied{}.EventName(), events.HandlerFunc(m.handleMeetingLifecycle))
	eventBus.Subscribe(events.ChatMessageReceived{}.EventName(), events.HandlerFunc(m.handleChatMessage))
	return m
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterRoutes mounts in-app notification routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/notifications")
	group.GET("", m.handler.HandleList)
	group.GET("/unread-count", m.handler.HandleUnreadCount)
	group.POST("/:id/read", m.handler.HandleMarkRead)
	group.POST("/read-all", m.handler.HandleMarkAllRead)
}

func (m *Module) handleMeetingLifecycle(ctx context.Context, event events.Event) error {
	applied, ok := event.(events.MeetingLifecycleApplied)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	title, content := meetingCopy(applied)
	leadID := applied.LeadID
	return m.inapp.Send(ctx, inapp.SendParams{
		TenantID:     applied.TenantID,
		UserID:       applied.OwnerUserID,
		Title:        title,
		Content:      content,
		ResourceID:   &leadID,
		ResourceType: "lead",
		Category:     severityByEventType[applied.EventType],
	})
}

func (m *Module) handleChatMessage(ctx context.Context, event events.Event) error {
	received, ok := event.(events.ChatMessageReceived)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if received.OwnerUserID == (uuid.UUID{}) {
		// Unowned leads have nobody to notify.
		return nil
	}

	title, content := chatCopy(received)
	leadID := received.LeadID
	return m.inapp.Send(ctx, inapp.SendParams{
		TenantID:     received.TenantID,
		UserID:       received.OwnerUserID,
		Title:        title,
		Content:      content,
		ResourceID:   &leadID,
		ResourceType: "lead",
		Category:     "info",
	})
}

func chatCopy(received events.ChatMessageReceived) (title, content string) {
	title = "New message"
	content = "New message from " + received.FromPhone
	if received.Preview != "" {
		content += ": " + received.Preview
	}
	return title, content
}

func meetingCopy(applied events.MeetingLifecycleApplied) (title, content string) {
	name := applied.LeadName
	if name == "" {
		name = "A lead"
	}

	switch applied.EventType {
	case "scheduled":
		title = "Meeting booked"
		content = name + " booked a meeting"
		if applied.ScheduledAt != nil {
			content += " for " + applied.ScheduledAt.Format(time.RFC1123)
		}
	case "canceled":
		title = "Meeting canceled"
		content = name + " canceled their meeting"
	case "no_show":
		title = "Meeting missed"
		content = name + " did not show up and needs review"
	case "rescheduled":
		title = "Meeting rescheduled"
		content = name + " moved their meeting"
		if applied.ScheduledAt != nil {
			content += " to " + applied.ScheduledAt.Format(time.RFC1123)
		}
	default:
		title = "Lead update"
		content = applied.Description
	}
	return title, content
}

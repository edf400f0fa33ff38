// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"lead_engine_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Meeting Domain Events
// =============================================================================

// MeetingLifecycleApplied is published after the state machine successfully
// applies a meeting event to a lead. The notification module subscribes to it
// and emits the severity-tiered user notification.
type MeetingLifecycleApplied struct {
	BaseEvent
	TenantID    uuid.UUID  `json:"tenantId"`
	LeadID      uuid.UUID  `json:"leadId"`
	OwnerUserID uuid.UUID  `json:"ownerUserId"`
	LeadName    string     `json:"leadName"`
	EventType   string     `json:"eventType"`
	ExternalID  string     `json:"externalId"`
	Description string     `json:"description"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

func (e MeetingLifecycleApplied) EventName() string { return "meetings.lifecycle.applied" }

// =============================================================================
// Chat Domain Events
// =============================================================================

// ChatMessageReceived is published when an inbound chat message is stored and
// correlated to a lead.
type ChatMessageReceived struct {
	BaseEvent
	TenantID       uuid.UUID `json:"tenantId"`
	LeadID         uuid.UUID `json:"leadId"`
	OwnerUserID    uuid.UUID `json:"ownerUserId"`
	ConversationID uuid.UUID `json:"conversationId"`
	MessageID      uuid.UUID `json:"messageId"`
	FromPhone      string    `json:"fromPhone"`
	Preview        string    `json:"preview"`
}

func (e ChatMessageReceived) EventName() string { return "chat.message.received" }

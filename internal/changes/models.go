// Package changes provides the change tracking bounded context: a durable
// log of automated lead mutations and the count-based notification rollups
// built from it.
package changes

import (
	"time"

	"github.com/google/uuid"
)

// ChangeType classifies what kind of mutation a change records.
type ChangeType string

const (
	ChangeCreated       ChangeType = "created"
	ChangeUpdated       ChangeType = "updated"
	ChangeDeleted       ChangeType = "deleted"
	ChangeStatusChanged ChangeType = "status_changed"
)

// Change is one recorded mutation performed by the automated pipeline.
// Detail names the specific event (chat_message, meeting_scheduled, ...)
// and keys the notification rollup; ChangeType is the coarse classifier.
// Before and After hold field snapshots for status changes.
type Change struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	UserID      uuid.UUID
	EntityType  string
	EntityID    uuid.UUID
	ChangeType  ChangeType
	Detail      string
	Description string
	Before      map[string]any
	After       map[string]any
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// AggregatedNotification is a per-user rollup of unread changes of one type.
// At most one unread row exists per (user, type); further changes bump the
// count instead of producing another row.
type AggregatedNotification struct {
	ID               uuid.UUID  `json:"id"`
	TenantID         uuid.UUID  `json:"tenantId"`
	UserID           uuid.UUID  `json:"userId"`
	NotificationType string     `json:"notificationType"`
	Count            int        `json:"count"`
	Title            string     `json:"title"`
	Body             string     `json:"body"`
	IsRead           bool       `json:"isRead"`
	FirstChangeAt    time.Time  `json:"firstChangeAt"`
	LastChangeAt     time.Time  `json:"lastChangeAt"`
	ReadAt           *time.Time `json:"readAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

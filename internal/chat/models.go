// Package chat provides the inbound chat bounded context: webhook ingestion,
// conversation threading, lead correlation and keyword auto-replies.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// ConversationStatus is the lifecycle state of a conversation thread.
type ConversationStatus string

const (
	ConversationActive ConversationStatus = "active"
	ConversationClosed ConversationStatus = "closed"
)

// MessageDirection distinguishes inbound customer messages from replies.
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// MessageStatus tracks provider delivery states for a message.
type MessageStatus string

const (
	StatusReceived  MessageStatus = "received"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
)

// knownStatuses maps provider status strings onto our states.
var knownStatuses = map[string]MessageStatus{
	"sent":      StatusSent,
	"delivered": StatusDelivered,
	"read":      StatusRead,
	"failed":    StatusFailed,
}

// Conversation is one thread per (tenant, phone). LeadID is attached lazily
// when correlation first succeeds.
type Conversation struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	LeadID        *uuid.UUID
	Phone         string
	ProfileName   string
	Status        ConversationStatus
	MessageCount  int
	LastMessageAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Message is a single chat message. ProviderMessageID is the external
// deduplication key.
type Message struct {
	ID                uuid.UUID
	ConversationID    uuid.UUID
	ProviderMessageID string
	Direction         MessageDirection
	Body              string
	Status            MessageStatus
	SentAt            time.Time
	CreatedAt         time.Time
}

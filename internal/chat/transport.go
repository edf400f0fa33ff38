package chat

import (
	"strconv"
	"time"
)

// InboundPayload is the provider webhook body. A single delivery can carry a
// batch of new messages and a batch of delivery status updates.
type InboundPayload struct {
	Messages []InboundMessage `json:"messages"`
	Statuses []StatusUpdate   `json:"statuses"`
}

// InboundMessage is one new customer message in a delivery.
type InboundMessage struct {
	ID        string       `json:"id"`
	From      string       `json:"from"`
	Timestamp string       `json:"timestamp"`
	Type      string       `json:"type"`
	Text      *TextContent `json:"text,omitempty"`
	Profile   *Profile     `json:"profile,omitempty"`
}

// TextContent is the body of a text message.
type TextContent struct {
	Body string `json:"body"`
}

// Profile carries the sender's display name when the provider shares it.
type Profile struct {
	Name string `json:"name"`
}

// StatusUpdate reports a delivery state change for a previously sent message.
type StatusUpdate struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// SentAt parses the provider's unix-seconds timestamp, falling back to now
// so a malformed timestamp never discards a message.
func (m InboundMessage) SentAt(now time.Time) time.Time {
	secs, err := strconv.ParseInt(m.Timestamp, 10, 64)
	if err != nil || secs <= 0 {
		return now
	}
	return time.Unix(secs, 0).UTC()
}

// Body returns the text body, empty for non-text message types.
func (m InboundMessage) Body() string {
	if m.Text == nil {
		return ""
	}
	return m.Text.Body
}

// ItemError is a soft per-item failure inside an otherwise accepted delivery.
type ItemError struct {
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

// ProcessingResult is the webhook response body. The endpoint always answers
// 200; item-level failures are reported here instead of via status codes so
// the provider does not redeliver the whole batch.
type ProcessingResult struct {
	RequestID         string      `json:"requestId"`
	Processed         int         `json:"processed"`
	LeadUpdates       int         `json:"leadUpdates"`
	NotificationsSent int         `json:"notificationsSent"`
	Errors            []ItemError `json:"errors"`
	ProcessingTimeMs  float64     `json:"processingTimeMs"`
}

package meetings

import (
	"strings"
	"time"

	"lead_engine_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// WebhookPayload is the calendar provider's webhook body. One delivery
// carries exactly one invitee lifecycle event.
type WebhookPayload struct {
	Event     string       `json:"event" validate:"required"`
	CreatedAt time.Time    `json:"created_at"`
	Payload   InviteeEvent `json:"payload" validate:"required"`
}

// InviteeEvent describes the invitee and the booking the event refers to.
type InviteeEvent struct {
	URI                string              `json:"uri" validate:"required"`
	Name               string              `json:"name"`
	Email              string              `json:"email"`
	TextReminderNumber string              `json:"text_reminder_number"`
	QuestionsAnswers   []QuestionAndAnswer `json:"questions_and_answers"`
	ScheduledEvent     ScheduledEvent      `json:"scheduled_event"`
	OldInviteeURI      string              `json:"old_invitee"`
}

// QuestionAndAnswer is one booking form answer.
type QuestionAndAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ScheduledEvent is the booked meeting slot.
type ScheduledEvent struct {
	URI       string     `json:"uri"`
	StartTime *time.Time `json:"start_time"`
	Status    string     `json:"status"`
}

// eventTypeMap translates provider event names onto lifecycle types.
var eventTypeMap = map[string]domain.MeetingEventType{
	"invitee.created":     domain.MeetingScheduled,
	"invitee.canceled":    domain.MeetingCanceled,
	"invitee.no_show":     domain.MeetingNoShow,
	"invitee.rescheduled": domain.MeetingRescheduled,
}

// Phone returns the best phone number in the payload: the SMS reminder
// number when present, otherwise a booking form answer to a phone question.
func (p InviteeEvent) Phone() string {
	if p.TextReminderNumber != "" {
		return p.TextReminderNumber
	}
	for _, qa := range p.QuestionsAnswers {
		q := strings.ToLower(qa.Question)
		if strings.Contains(q, "phone") || strings.Contains(q, "mobile") {
			return qa.Answer
		}
	}
	return ""
}

// ToMeetingEvent normalizes the payload into the domain event. The second
// return is false for event names without a transition rule.
func (p WebhookPayload) ToMeetingEvent() (domain.MeetingEvent, bool) {
	eventType, ok := eventTypeMap[p.Event]
	if !ok {
		return domain.MeetingEvent{}, false
	}
	return domain.MeetingEvent{
		Type:         eventType,
		ExternalID:   p.Payload.URI,
		InviteePhone: p.Payload.Phone(),
		InviteeEmail: p.Payload.Email,
		MeetingURI:   p.Payload.ScheduledEvent.URI,
		ScheduledAt:  p.Payload.ScheduledEvent.StartTime,
	}, true
}

// ProcessingResponse is the webhook response body.
type ProcessingResponse struct {
	RequestID         string     `json:"requestId"`
	Outcome           string     `json:"outcome"`
	LeadID            *uuid.UUID `json:"leadId,omitempty"`
	LeadUpdates       int        `json:"leadUpdates"`
	NotificationsSent int        `json:"notificationsSent"`
	ProcessingTimeMs  float64    `json:"processingTimeMs"`
}

package meetings

import (
	"testing"
	"time"

	"lead_engine_backend/internal/leads/domain"
)

func TestToMeetingEvent(t *testing.T) {
	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	payload := WebhookPayload{
		Event: "invitee.created",
		Payload: InviteeEvent{
			URI:                "https://api.calendar.example.com/invitees/inv-1",
			Email:              "jo@example.com",
			TextReminderNumber: "+31612345678",
			ScheduledEvent: ScheduledEvent{
				URI:       "https://api.calendar.example.com/events/evt-1",
				StartTime: &start,
			},
		},
	}

	ev, ok := payload.ToMeetingEvent()
	if !ok {
		t.Fatal("invitee.created must map")
	}
	if ev.Type != domain.MeetingScheduled {
		t.Errorf("Type = %s, want scheduled", ev.Type)
	}
	if ev.ExternalID != "https://api.calendar.example.com/invitees/inv-1" {
		t.Error("invitee uri must become the external id")
	}
	if ev.InviteePhone != "+31612345678" {
		t.Error("reminder number must become the invitee phone")
	}
	if ev.ScheduledAt == nil || !ev.ScheduledAt.Equal(start) {
		t.Error("start time must be carried over")
	}
}

func TestToMeetingEventTypeMapping(t *testing.T) {
	tests := []struct {
		event string
		want  domain.MeetingEventType
	}{
		{"invitee.created", domain.MeetingScheduled},
		{"invitee.canceled", domain.MeetingCanceled},
		{"invitee.no_show", domain.MeetingNoShow},
		{"invitee.rescheduled", domain.MeetingRescheduled},
	}

	for _, tt := range tests {
		ev, ok := WebhookPayload{Event: tt.event}.ToMeetingEvent()
		if !ok || ev.Type != tt.want {
			t.Errorf("%s: got (%s, %v), want (%s, true)", tt.event, ev.Type, ok, tt.want)
		}
	}

	if _, ok := (WebhookPayload{Event: "routing_form_submission.created"}).ToMeetingEvent(); ok {
		t.Error("unknown event names must not map")
	}
}

func TestInviteePhone(t *testing.T) {
	tests := []struct {
		name    string
		invitee InviteeEvent
		want    string
	}{
		{
			"reminder number wins",
			InviteeEvent{
				TextReminderNumber: "+31612345678",
				QuestionsAnswers:   []QuestionAndAnswer{{Question: "Phone number", Answer: "0687654321"}},
			},
			"+31612345678",
		},
		{
			"phone question answer",
			InviteeEvent{QuestionsAnswers: []QuestionAndAnswer{
				{Question: "Company size", Answer: "50"},
				{Question: "What is your phone number?", Answer: "0612345678"},
			}},
			"0612345678",
		},
		{
			"mobile question answer",
			InviteeEvent{QuestionsAnswers: []QuestionAndAnswer{{Question: "Mobile", Answer: "0612345678"}}},
			"0612345678",
		},
		{
			"no phone anywhere",
			InviteeEvent{QuestionsAnswers: []QuestionAndAnswer{{Question: "Budget", Answer: "10k"}}},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.invitee.Phone(); got != tt.want {
				t.Errorf("Phone() = %q, want %q", got, tt.want)
			}
		})
	}
}

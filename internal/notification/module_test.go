package notification

import (
	"testing"
	"time"

	"lead_engine_backend/internal/events"
)

func TestChatCopy(t *testing.T) {
	received := events.ChatMessageReceived{FromPhone: "+31612345678", Preview: "hi, still interested"}
	title, content := chatCopy(received)
	if title != "New message" {
		t.Errorf("title = %q", title)
	}
	if content != "New message from +31612345678: hi, still interested" {
		t.Errorf("content = %q", content)
	}

	_, bare := chatCopy(events.ChatMessageReceived{FromPhone: "+31612345678"})
	if bare != "New message from +31612345678" {
		t.Errorf("content without preview = %q", bare)
	}
}

func TestMeetingCopy(t *testing.T) {
	scheduledAt := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		eventType   string
		wantTitle   string
		wantContent string
	}{
		{"scheduled", "Meeting booked", "Jo de Vries booked a meeting for " + scheduledAt.Format(time.RFC1123)},
		{"canceled", "Meeting canceled", "Jo de Vries canceled their meeting"},
		{"no_show", "Meeting missed", "Jo de Vries did not show up and needs review"},
		{"rescheduled", "Meeting rescheduled", "Jo de Vries moved their meeting to " + scheduledAt.Format(time.RFC1123)},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			applied := events.MeetingLifecycleApplied{
				LeadName:    "Jo de Vries",
				EventType:   tt.eventType,
				ScheduledAt: &scheduledAt,
			}
			title, content := meetingCopy(applied)
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if content != tt.wantContent {
				t.Errorf("content = %q, want %q", content, tt.wantContent)
			}
		})
	}
}

func TestMeetingCopyUnnamedLead(t *testing.T) {
	_, content := meetingCopy(events.MeetingLifecycleApplied{EventType: "canceled"})
	if content != "A lead canceled their meeting" {
		t.Errorf("content = %q", content)
	}
}

func TestSeverityByEventType(t *testing.T) {
	if severityByEventType["no_show"] != "error" {
		t.Error("a no-show needs immediate attention")
	}
	if severityByEventType["scheduled"] != "success" {
		t.Error("a booked meeting is good news")
	}
}

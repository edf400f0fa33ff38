package changes

import "testing"

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		detail   string
		count    int
		wantBody string
	}{
		{"chat singular", "chat_message", 1, "You have 1 new chat message from a lead"},
		{"chat plural", "chat_message", 3, "You have 3 new chat messages from your leads"},
		{"meeting singular", "meeting_scheduled", 1, "A lead booked a meeting"},
		{"meeting plural", "meeting_scheduled", 2, "2 leads booked meetings"},
		{"unknown type falls back singular", "lead_archived", 1, "1 update to your leads"},
		{"unknown type falls back plural", "lead_archived", 7, "7 updates to your leads"},
		{"zero treated as singular", "chat_message", 0, "You have 1 new chat message from a lead"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := render(tt.detail, tt.count)
			if title == "" {
				t.Error("title must not be empty")
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

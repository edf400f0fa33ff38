package chat

import (
	"testing"
	"time"
)

func TestSentAt(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		timestamp string
		want      time.Time
	}{
		{"unix seconds", "1756728000", time.Unix(1756728000, 0).UTC()},
		{"garbage falls back to now", "yesterday", now},
		{"empty falls back to now", "", now},
		{"zero falls back to now", "0", now},
		{"negative falls back to now", "-5", now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := InboundMessage{Timestamp: tt.timestamp}
			if got := m.SentAt(now); !got.Equal(tt.want) {
				t.Errorf("SentAt = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBody(t *testing.T) {
	text := InboundMessage{Type: "text", Text: &TextContent{Body: "hi there"}}
	if text.Body() != "hi there" {
		t.Errorf("Body() = %q", text.Body())
	}

	image := InboundMessage{Type: "image"}
	if image.Body() != "" {
		t.Error("non-text messages have no body")
	}
}

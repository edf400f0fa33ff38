package queue

import (
	"testing"
	"time"
)

func TestDueNow(t *testing.T) {
	s := workWeekSettings()
	s.PreparationTime = "18:00"
	sweep := 10 * time.Minute

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exactly at preparation time", time.Date(2026, 8, 3, 18, 0, 0, 0, time.UTC), true},
		{"inside the sweep window", time.Date(2026, 8, 3, 18, 9, 59, 0, time.UTC), true},
		{"after the window", time.Date(2026, 8, 3, 18, 10, 0, 0, time.UTC), false},
		{"before preparation time", time.Date(2026, 8, 3, 17, 59, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dueNow(s, tt.now, sweep); got != tt.want {
				t.Errorf("dueNow(%s) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestDueNowRespectsTenantTimezone(t *testing.T) {
	s := workWeekSettings()
	s.Timezone = "Asia/Jerusalem"
	s.PreparationTime = "18:00"

	// 15:05 UTC is 18:05 in Jerusalem during DST.
	now := time.Date(2026, 8, 3, 15, 5, 0, 0, time.UTC)
	if !dueNow(s, now, 10*time.Minute) {
		t.Error("tenant local time must drive due-ness")
	}
}

func TestDueNowMalformedPreparationTime(t *testing.T) {
	s := workWeekSettings()
	s.PreparationTime = "whenever"
	if dueNow(s, time.Now(), 10*time.Minute) {
		t.Error("malformed preparation time must never be due")
	}
}

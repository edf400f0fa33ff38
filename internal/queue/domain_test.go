package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func workWeekSettings() Settings {
	return Settings{
		TenantID:              uuid.New(),
		Timezone:              "UTC",
		WorkDays:              []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		BusinessHoursStart:    "09:00",
		BusinessHoursEnd:      "17:00",
		TargetLeadsPerWorkDay: 20,
		MaxDailyCapacity:      50,
		WeekendTargetPct:      50,
		PreparationTime:       "18:00",
		NewLeadWeight:         10,
		FollowUpWeight:        5,
	}
}

// 2026-08-03 is a Monday, 2026-08-08 a Saturday.
var (
	monday   = time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	saturday = time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)
)

func TestClassifyDay(t *testing.T) {
	s := workWeekSettings()

	if ClassifyDay(s, monday) != DayStandard {
		t.Error("monday must be a standard day")
	}
	if ClassifyDay(s, saturday) != DayOff {
		t.Error("saturday must be off when weekend processing is disabled")
	}

	s.WeekendProcessing = true
	if ClassifyDay(s, saturday) != DayWeekendExtra {
		t.Error("saturday must be weekend-extra when enabled")
	}

	s.Holidays = []time.Time{monday}
	if ClassifyDay(s, monday) != DayOff {
		t.Error("holidays exclude an otherwise standard day")
	}
}

func TestDailyTarget(t *testing.T) {
	override := 35

	tests := []struct {
		name   string
		mutate func(*Settings)
		kind   DayKind
		want   int
	}{
		{"standard day uses per-day target", func(s *Settings) {}, DayStandard, 20},
		{"override wins", func(s *Settings) { s.OverrideDailyTarget = &override }, DayStandard, 35},
		{"weekend scales down", func(s *Settings) { s.WeekendProcessing = true }, DayWeekendExtra, 10},
		{"capacity clamps", func(s *Settings) { s.TargetLeadsPerWorkDay = 200 }, DayStandard, 50},
		{"off day is zero", func(s *Settings) {}, DayOff, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := workWeekSettings()
			tt.mutate(&s)
			if got := DailyTarget(s, tt.kind); got != tt.want {
				t.Errorf("DailyTarget = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		valid  bool
	}{
		{"valid", func(s *Settings) {}, true},
		{"bad timezone", func(s *Settings) { s.Timezone = "Mars/Olympus" }, false},
		{"zero capacity", func(s *Settings) { s.MaxDailyCapacity = 0 }, false},
		{"zero target without override", func(s *Settings) { s.TargetLeadsPerWorkDay = 0 }, false},
		{"negative override", func(s *Settings) { neg := -1; s.OverrideDailyTarget = &neg }, false},
		{"pct out of range", func(s *Settings) { s.WeekendTargetPct = 150 }, false},
		{"negative weight", func(s *Settings) { s.NewLeadWeight = -1 }, false},
		{"no work days at all", func(s *Settings) { s.WorkDays = nil }, false},
		{"malformed business hours", func(s *Settings) { s.BusinessHoursStart = "nine" }, false},
		{"business hours end before start", func(s *Settings) { s.BusinessHoursStart = "17:00"; s.BusinessHoursEnd = "09:00" }, false},
		{"empty business window", func(s *Settings) { s.BusinessHoursEnd = s.BusinessHoursStart }, false},
		{"out of range business hour", func(s *Settings) { s.BusinessHoursEnd = "25:00" }, false},
		{"malformed preparation time", func(s *Settings) { s.PreparationTime = "whenever" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := workWeekSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRankOrdersByWeightThenDue(t *testing.T) {
	s := workWeekSettings()

	early := monday.Add(-48 * time.Hour)
	late := monday.Add(-2 * time.Hour)

	newLate := Candidate{LeadID: uuid.New(), IsNew: true, LastInteraction: &late}
	newEarly := Candidate{LeadID: uuid.New(), IsNew: true, LastInteraction: &early}
	followUpEarly := Candidate{LeadID: uuid.New(), NextFollowUp: &early}
	followUpNever := Candidate{LeadID: uuid.New()}

	ranked := Rank(s, []Candidate{followUpEarly, newLate, followUpNever, newEarly})

	wantOrder := []uuid.UUID{newEarly.LeadID, newLate.LeadID, followUpNever.LeadID, followUpEarly.LeadID}
	for i, want := range wantOrder {
		if ranked[i].LeadID != want {
			t.Fatalf("position %d: got %s, want %s", i, ranked[i].LeadID, want)
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	s := workWeekSettings()
	a := Candidate{LeadID: uuid.New()}
	b := Candidate{LeadID: uuid.New(), IsNew: true}
	input := []Candidate{a, b}

	Rank(s, input)

	if input[0].LeadID != a.LeadID || input[1].LeadID != b.LeadID {
		t.Error("Rank must not reorder its input")
	}
}

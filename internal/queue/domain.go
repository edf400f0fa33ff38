package queue

import (
	"sort"
	"time"
)

// DayKind classifies a date for a tenant's schedule.
type DayKind int

const (
	DayOff DayKind = iota
	DayStandard
	DayWeekendExtra
)

// ClassifyDay determines whether leads may be queued on a date. A date is a
// standard day when its weekday is enabled and it is not a holiday; a weekend
// day outside the enabled set still qualifies at reduced volume when weekend
// processing is on.
func ClassifyDay(s Settings, date time.Time) DayKind {
	local := date.In(s.Location())

	for _, holiday := range s.Holidays {
		if sameDate(holiday, local) {
			return DayOff
		}
	}

	weekday := local.Weekday()
	for _, wd := range s.WorkDays {
		if wd == weekday {
			return DayStandard
		}
	}

	if s.WeekendProcessing && (weekday == time.Saturday || weekday == time.Sunday) {
		return DayWeekendExtra
	}
	return DayOff
}

// DailyTarget computes the number of leads to queue on a date: the explicit
// override when set, otherwise the per-work-day target, scaled down on
// weekend-extra days and always clamped to the daily capacity.
func DailyTarget(s Settings, kind DayKind) int {
	if kind == DayOff {
		return 0
	}

	target := s.TargetLeadsPerWorkDay
	if s.OverrideDailyTarget != nil {
		target = *s.OverrideDailyTarget
	}
	if kind == DayWeekendExtra {
		target = target * s.WeekendTargetPct / 100
	}
	if target > s.MaxDailyCapacity {
		target = s.MaxDailyCapacity
	}
	if target < 0 {
		target = 0
	}
	return target
}

// Score computes a candidate's priority. Weight separates new leads from
// follow-ups; the due time breaks ties (earlier due first).
func Score(s Settings, c Candidate) float64 {
	if c.IsNew {
		return float64(s.NewLeadWeight)
	}
	return float64(s.FollowUpWeight)
}

// dueTime is the instant a candidate became due: the explicit follow-up time
// when set, otherwise the last interaction. Candidates with neither sort
// first; they have been waiting indefinitely.
func dueTime(c Candidate) time.Time {
	if c.NextFollowUp != nil {
		return *c.NextFollowUp
	}
	if c.LastInteraction != nil {
		return *c.LastInteraction
	}
	return time.Time{}
}

// Rank orders candidates by priority score (descending), then by due time
// (ascending). The input is not mutated.
func Rank(s Settings, candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := Score(s, ranked[i]), Score(s, ranked[j])
		if si != sj {
			return si > sj
		}
		return dueTime(ranked[i]).Before(dueTime(ranked[j]))
	})
	return ranked
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

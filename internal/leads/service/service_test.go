package service

import (
	"context"
	"testing"

	"lead_engine_backend/internal/events"
	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
)

type trackedStatusChange struct {
	detail string
	before map[string]any
	after  map[string]any
}

type fakeTracker struct {
	tracked []trackedStatusChange
}

func (f *fakeTracker) TrackLeadStatusChange(_ context.Context, _, _, _ uuid.UUID, detail, _ string, before, after map[string]any) error {
	f.tracked = append(f.tracked, trackedStatusChange{detail: detail, before: before, after: after})
	return nil
}

func TestStatusSnapshot(t *testing.T) {
	lead := domain.Lead{
		Heat:                domain.HeatWarm,
		PipelineStatus:      domain.PipelineQualified,
		RequiresHumanReview: true,
	}

	snap := statusSnapshot(lead)
	if snap["bant_heat"] != "warm" {
		t.Errorf("bant_heat = %v", snap["bant_heat"])
	}
	if snap["pipeline_status"] != string(domain.PipelineQualified) {
		t.Errorf("pipeline_status = %v", snap["pipeline_status"])
	}
	if snap["requires_human_review"] != true {
		t.Errorf("requires_human_review = %v", snap["requires_human_review"])
	}
	if len(snap) != 3 {
		t.Errorf("snapshot has %d fields, want 3", len(snap))
	}
}

func TestAfterApplyTracksBeforeAndAfterStates(t *testing.T) {
	log := logger.New("test")
	tracker := &fakeTracker{}
	s := New(nil, tracker, events.NewInMemoryBus(log), log, Config{})

	leadID := uuid.New()
	before := domain.Lead{ID: leadID, OwnerUserID: uuid.New(), Heat: domain.HeatCold, PipelineStatus: domain.PipelineNew}
	after := before
	after.Heat = domain.HeatHot
	after.PipelineStatus = domain.PipelineQualified

	result := ApplyResult{
		Outcome: OutcomeApplied,
		Lead:    after,
		Before:  before,
		Delta:   domain.Delta{Changed: true, Description: "meeting booked"},
	}
	ev := domain.MeetingEvent{Type: domain.MeetingScheduled, ExternalID: "evt-1"}

	s.afterApply(context.Background(), uuid.New(), result, ev)

	if len(tracker.tracked) != 1 {
		t.Fatalf("tracked %d changes, want 1", len(tracker.tracked))
	}
	got := tracker.tracked[0]
	if got.detail != "meeting_scheduled" {
		t.Errorf("detail = %q, want meeting_scheduled", got.detail)
	}
	if got.before["bant_heat"] != "cold" || got.after["bant_heat"] != "hot" {
		t.Errorf("heat snapshots = %v -> %v, want cold -> hot", got.before["bant_heat"], got.after["bant_heat"])
	}
	if got.before["pipeline_status"] != "new" || got.after["pipeline_status"] != string(domain.PipelineQualified) {
		t.Errorf("pipeline snapshots = %v -> %v", got.before["pipeline_status"], got.after["pipeline_status"])
	}
}

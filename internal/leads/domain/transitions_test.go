package domain

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func scheduledEvent(start *time.Time) MeetingEvent {
	return MeetingEvent{
		Type:        MeetingScheduled,
		ExternalID:  "evt-1",
		MeetingURI:  "https://calendar.example.com/events/abc",
		ScheduledAt: start,
	}
}

func TestScheduledPromotesToBurning(t *testing.T) {
	start := testNow.Add(48 * time.Hour)
	lead := Lead{Heat: HeatHot, PipelineStatus: PipelineQualified}

	delta := ApplyMeetingTransition(lead, scheduledEvent(&start), testNow)

	if !delta.Changed {
		t.Fatal("expected a change")
	}
	if delta.Heat == nil || *delta.Heat != HeatBurning {
		t.Error("heat must become burning")
	}
	if delta.PipelineStatus == nil || *delta.PipelineStatus != PipelineDemoScheduled {
		t.Error("pipeline must become demo_scheduled")
	}
	if delta.LastInteraction == nil || !delta.LastInteraction.Equal(testNow) {
		t.Error("last interaction must be stamped")
	}
	if delta.MetadataPatch[MetaMeetingURI] != "https://calendar.example.com/events/abc" {
		t.Error("meeting uri must be merged into metadata")
	}
}

func TestScheduledFromColdStillBurns(t *testing.T) {
	// A meeting is the strongest buying signal regardless of prior heat.
	lead := Lead{Heat: HeatCold, PipelineStatus: PipelineNew}
	delta := ApplyMeetingTransition(lead, scheduledEvent(nil), testNow)
	if delta.Heat == nil || *delta.Heat != HeatBurning {
		t.Error("heat must become burning even from cold")
	}
}

func TestScheduledIdempotentWhenAlreadyBurning(t *testing.T) {
	start := testNow.Add(24 * time.Hour)
	lead := Lead{Heat: HeatBurning, PipelineStatus: PipelineDemoScheduled}

	delta := ApplyMeetingTransition(lead, scheduledEvent(&start), testNow)

	if delta.Heat != nil || delta.PipelineStatus != nil {
		t.Error("re-applying scheduled must not touch status fields")
	}
	if delta.LastInteraction != nil {
		t.Error("re-applying scheduled must not re-stamp interaction")
	}
	if len(delta.MetadataPatch) == 0 {
		t.Error("metadata breadcrumbs should still refresh")
	}
}

func TestCanceledDemotesOnlyBurning(t *testing.T) {
	tests := []struct {
		name       string
		heat       BANTHeat
		wantChange bool
	}{
		{"burning is demoted", HeatBurning, true},
		{"hot is untouched", HeatHot, false},
		{"warm is untouched", HeatWarm, false},
		{"cold is untouched", HeatCold, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := Lead{Heat: tt.heat, PipelineStatus: PipelineDemoScheduled}
			delta := ApplyMeetingTransition(lead, MeetingEvent{Type: MeetingCanceled}, testNow)

			if delta.Changed != tt.wantChange {
				t.Fatalf("Changed = %v, want %v", delta.Changed, tt.wantChange)
			}
			if !tt.wantChange {
				return
			}
			if delta.Heat == nil || *delta.Heat != HeatHot {
				t.Error("burning must demote to hot")
			}
			if delta.PipelineStatus == nil || *delta.PipelineStatus != PipelineQualified {
				t.Error("pipeline must return to qualified")
			}
		})
	}
}

func TestNoShowPreservesHeatAndFlagsReview(t *testing.T) {
	lead := Lead{Heat: HeatBurning}
	delta := ApplyMeetingTransition(lead, MeetingEvent{Type: MeetingNoShow}, testNow)

	if delta.Heat != nil {
		t.Error("no-show must not change heat")
	}
	if delta.RequiresHumanReview == nil || !*delta.RequiresHumanReview {
		t.Error("no-show must flag human review")
	}
}

func TestRescheduledUpdatesMeetingTimeOnly(t *testing.T) {
	start := testNow.Add(72 * time.Hour)
	lead := Lead{Heat: HeatBurning, PipelineStatus: PipelineDemoScheduled}

	delta := ApplyMeetingTransition(lead, MeetingEvent{Type: MeetingRescheduled, ScheduledAt: &start}, testNow)

	if delta.Heat != nil || delta.PipelineStatus != nil || delta.RequiresHumanReview != nil {
		t.Error("rescheduled is informational only")
	}
	if delta.MetadataPatch[MetaMeetingTime] != start.UTC().Format(time.RFC3339) {
		t.Error("meeting time must be recorded")
	}

	noTime := ApplyMeetingTransition(lead, MeetingEvent{Type: MeetingRescheduled}, testNow)
	if noTime.Changed {
		t.Error("rescheduled without a time is a no-op")
	}
}

func TestTransitionIsPure(t *testing.T) {
	start := testNow.Add(24 * time.Hour)
	lead := Lead{Heat: HeatHot, Metadata: map[string]any{"source": "fair"}}
	ev := scheduledEvent(&start)

	first := ApplyMeetingTransition(lead, ev, testNow)
	second := ApplyMeetingTransition(lead, ev, testNow)

	if *first.Heat != *second.Heat || first.Description != second.Description {
		t.Error("same inputs must produce the same delta")
	}
	if lead.Metadata["source"] != "fair" {
		t.Error("input lead must not be mutated")
	}
}

func TestPromoteHeat(t *testing.T) {
	tests := []struct {
		name       string
		current    BANTHeat
		target     BANTHeat
		wantChange bool
	}{
		{"cold to warm", HeatCold, HeatWarm, true},
		{"warm to hot", HeatWarm, HeatHot, true},
		{"cold to hot skips warm", HeatCold, HeatHot, true},
		{"same heat is no-op", HeatWarm, HeatWarm, false},
		{"downgrade rejected", HeatHot, HeatWarm, false},
		{"burning unreachable by promotion", HeatHot, HeatBurning, false},
		{"unknown target rejected", HeatCold, BANTHeat("molten"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := Lead{Heat: tt.current, PipelineStatus: PipelineQualified}
			delta := PromoteHeat(lead, tt.target, testNow)
			if delta.Changed != tt.wantChange {
				t.Errorf("Changed = %v, want %v", delta.Changed, tt.wantChange)
			}
		})
	}
}

func TestPromoteHeatQualifiesNewLeadAtHot(t *testing.T) {
	lead := Lead{Heat: HeatWarm, PipelineStatus: PipelineNew}
	delta := PromoteHeat(lead, HeatHot, testNow)

	if delta.PipelineStatus == nil || *delta.PipelineStatus != PipelineQualified {
		t.Error("a new lead reaching hot must become qualified")
	}

	warmed := PromoteHeat(Lead{Heat: HeatCold, PipelineStatus: PipelineNew}, HeatWarm, testNow)
	if warmed.PipelineStatus != nil {
		t.Error("warm promotion must not advance pipeline")
	}
}

func TestMergeMetadataPreservesUnrelatedKeys(t *testing.T) {
	existing := map[string]any{"source": "fair", MetaMeetingURI: "old"}
	patch := map[string]any{MetaMeetingURI: "new", MetaMeetingTime: "2026-08-02T10:00:00Z"}

	merged := MergeMetadata(existing, patch)

	if merged["source"] != "fair" {
		t.Error("unrelated keys must survive")
	}
	if merged[MetaMeetingURI] != "new" {
		t.Error("patch must win for overlapping keys")
	}
	if existing[MetaMeetingURI] != "old" {
		t.Error("inputs must not be mutated")
	}
}

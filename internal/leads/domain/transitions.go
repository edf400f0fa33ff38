package domain

import (
	"fmt"
	"time"
)

// MeetingEventType identifies a calendar booking lifecycle event.
type MeetingEventType string

const (
	MeetingScheduled   MeetingEventType = "scheduled"
	MeetingCanceled    MeetingEventType = "canceled"
	MeetingNoShow      MeetingEventType = "no_show"
	MeetingRescheduled MeetingEventType = "rescheduled"
)

// IsKnownMeetingEventType reports whether the type has a transition rule.
func IsKnownMeetingEventType(t MeetingEventType) bool {
	switch t {
	case MeetingScheduled, MeetingCanceled, MeetingNoShow, MeetingRescheduled:
		return true
	}
	return false
}

// MeetingEvent is a normalized calendar booking lifecycle event. ExternalID
// plus Type form the idempotency key.
type MeetingEvent struct {
	Type         MeetingEventType
	ExternalID   string
	InviteePhone string
	InviteeEmail string
	MeetingURI   string
	ScheduledAt  *time.Time
}

// Metadata keys written by meeting transitions. Merges preserve unrelated keys.
const (
	MetaMeetingURI  = "meeting_uri"
	MetaMeetingTime = "meeting_time"
)

// Delta describes the mutation a transition prescribes. Nil pointers mean
// "leave unchanged". MetadataPatch is merged into the lead's metadata bag.
type Delta struct {
	Heat                *BANTHeat
	PipelineStatus      *PipelineStatus
	RequiresHumanReview *bool
	LastInteraction     *time.Time
	MetadataPatch       map[string]any
	Changed             bool
	Description         string
}

// ApplyMeetingTransition computes the state delta for a meeting event against
// the lead's current state. It is pure: same inputs, same delta.
//
// Rules:
//   - scheduled: heat becomes burning, pipeline becomes demo_scheduled.
//   - canceled: demotes heat only when it is exactly burning (out-of-order
//     guard); pipeline returns to qualified.
//   - no_show: heat preserved, lead flagged for human review.
//   - rescheduled: informational, meeting time metadata only.
func ApplyMeetingTransition(lead Lead, ev MeetingEvent, now time.Time) Delta {
	switch ev.Type {
	case MeetingScheduled:
		return scheduledDelta(lead, ev, now)
	case MeetingCanceled:
		return canceledDelta(lead, now)
	case MeetingNoShow:
		return noShowDelta(lead, now)
	case MeetingRescheduled:
		return rescheduledDelta(ev)
	default:
		return Delta{}
	}
}

func scheduledDelta(lead Lead, ev MeetingEvent, now time.Time) Delta {
	patch := map[string]any{}
	if ev.MeetingURI != "" {
		patch[MetaMeetingURI] = ev.MeetingURI
	}
	if ev.ScheduledAt != nil {
		patch[MetaMeetingTime] = ev.ScheduledAt.UTC().Format(time.RFC3339)
	}

	if lead.Heat == HeatBurning && lead.PipelineStatus == PipelineDemoScheduled {
		// Already burning with a demo on the books: refresh breadcrumbs only.
		return Delta{
			MetadataPatch: patch,
			Changed:       len(patch) > 0,
			Description:   "meeting details refreshed",
		}
	}

	heat := HeatBurning
	pipeline := PipelineDemoScheduled
	return Delta{
		Heat:            &heat,
		PipelineStatus:  &pipeline,
		LastInteraction: &now,
		MetadataPatch:   patch,
		Changed:         true,
		Description:     fmt.Sprintf("meeting scheduled, heat %s -> %s", lead.Heat, heat),
	}
}

func canceledDelta(lead Lead, now time.Time) Delta {
	// A cancellation arriving after the lead was already demoted is a no-op;
	// idempotency takes precedence over strictness.
	if lead.Heat != HeatBurning {
		return Delta{}
	}

	heat := HeatHot
	pipeline := PipelineQualified
	return Delta{
		Heat:            &heat,
		PipelineStatus:  &pipeline,
		LastInteraction: &now,
		Changed:         true,
		Description:     "meeting canceled, heat burning -> hot",
	}
}

func noShowDelta(lead Lead, now time.Time) Delta {
	// A no-show still implies engagement, so heat is preserved. Urgency is
	// raised instead.
	review := true
	delta := Delta{
		RequiresHumanReview: &review,
		LastInteraction:     &now,
		Changed:             true,
		Description:         "meeting no-show, flagged for human review",
	}
	if lead.RequiresHumanReview {
		delta.RequiresHumanReview = nil
		delta.Description = "meeting no-show repeated"
	}
	return delta
}

func rescheduledDelta(ev MeetingEvent) Delta {
	if ev.ScheduledAt == nil {
		return Delta{}
	}
	return Delta{
		MetadataPatch: map[string]any{MetaMeetingTime: ev.ScheduledAt.UTC().Format(time.RFC3339)},
		Changed:       true,
		Description:   "meeting rescheduled",
	}
}

// PromoteHeat computes the delta for an external qualification promotion
// (cold -> warm -> hot). Promotions are idempotent and never reach burning;
// burning is reserved for confirmed meetings. Downgrades are rejected.
func PromoteHeat(lead Lead, target BANTHeat, now time.Time) Delta {
	if !target.IsValid() || target == HeatBurning {
		return Delta{}
	}
	if target.Rank() <= lead.Heat.Rank() {
		return Delta{}
	}

	heat := target
	delta := Delta{
		Heat:            &heat,
		LastInteraction: &now,
		Changed:         true,
		Description:     fmt.Sprintf("qualification promotion, heat %s -> %s", lead.Heat, target),
	}
	if lead.PipelineStatus == PipelineNew && target.Rank() >= heatRank[HeatHot] {
		pipeline := PipelineQualified
		delta.PipelineStatus = &pipeline
	}
	return delta
}

// MergeMetadata applies a patch on top of the existing bag without discarding
// unrelated keys. The inputs are not mutated.
func MergeMetadata(existing, patch map[string]any) map[string]any {
	merged := make(map[string]any, len(existing)+len(patch))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

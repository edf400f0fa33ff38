// Package domain provides core business rules for the leads bounded context:
// the composite lead status model and the meeting-driven state machine.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PipelineStatus is the sales pipeline dimension of a lead.
type PipelineStatus string

const (
	PipelineNew           PipelineStatus = "new"
	PipelineQualified     PipelineStatus = "qualified"
	PipelineDemoScheduled PipelineStatus = "demo_scheduled"
	PipelineConverted     PipelineStatus = "converted"
	PipelineLost          PipelineStatus = "lost"
)

// IsTerminal reports whether no further automated processing should occur.
func (p PipelineStatus) IsTerminal() bool {
	return p == PipelineConverted || p == PipelineLost
}

// QualificationState is the coarse lifecycle bucket of a lead.
type QualificationState string

const (
	QualificationUnqualified  QualificationState = "unqualified"
	QualificationInProgress   QualificationState = "in_progress"
	QualificationQualified    QualificationState = "qualified"
	QualificationDisqualified QualificationState = "disqualified"
)

// BANTHeat is the ordered buying-readiness dimension.
type BANTHeat string

const (
	HeatCold    BANTHeat = "cold"
	HeatWarm    BANTHeat = "warm"
	HeatHot     BANTHeat = "hot"
	HeatBurning BANTHeat = "burning"
)

var heatRank = map[BANTHeat]int{
	HeatCold:    0,
	HeatWarm:    1,
	HeatHot:     2,
	HeatBurning: 3,
}

// Rank returns the position of the heat on the cold..burning scale,
// or -1 for an unknown value.
func (h BANTHeat) Rank() int {
	rank, ok := heatRank[h]
	if !ok {
		return -1
	}
	return rank
}

// IsValid reports whether the heat is a known value.
func (h BANTHeat) IsValid() bool { return h.Rank() >= 0 }

// ProcessingState is the execution status of automated follow-up.
type ProcessingState string

const (
	ProcessingPending   ProcessingState = "pending"
	ProcessingActive    ProcessingState = "active"
	ProcessingCompleted ProcessingState = "completed"
	ProcessingFailed    ProcessingState = "failed"
)

// QueueStatus is the daily work queue dimension. Only the queue scheduler
// writes this field; the processing pipeline reads it.
type QueueStatus string

const (
	QueueIdle       QueueStatus = "idle"
	QueueQueued     QueueStatus = "queued"
	QueueProcessing QueueStatus = "processing"
)

// Lead is a prospective customer. Phone is the primary correlation key and
// may contain formatting noise; Metadata holds provider-specific correlation
// breadcrumbs (last known meeting URI, scheduled time).
type Lead struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	OwnerUserID         uuid.UUID
	Phone               string
	Email               string
	DisplayName         string
	PipelineStatus      PipelineStatus
	QualificationState  QualificationState
	Heat                BANTHeat
	ProcessingState     ProcessingState
	QueueStatus         QueueStatus
	InteractionCount    int
	FollowUpCount       int
	FirstInteraction    *time.Time
	LastInteraction     *time.Time
	NextFollowUp        *time.Time
	LastAgentProcessed  *time.Time
	RequiresHumanReview bool
	Metadata            map[string]any
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsNew reports whether the lead counts as a "new lead" for queue priority
// purposes, as opposed to a follow-up.
func (l Lead) IsNew() bool {
	return l.PipelineStatus == PipelineNew && l.FollowUpCount == 0
}

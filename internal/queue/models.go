// Package queue provides the daily queue scheduling bounded context: it
// decides which leads enter a tenant's processing queue for a given date,
// under capacity and business-day constraints.
package queue

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Settings is the per-tenant queue configuration. Capacity-affecting fields
// are validated, never defaulted: a tenant with broken settings is skipped
// and reported instead of silently queued at some made-up rate.
type Settings struct {
	TenantID              uuid.UUID
	Timezone              string
	WorkDays              []time.Weekday
	BusinessHoursStart    string
	BusinessHoursEnd      string
	Holidays              []time.Time
	TargetLeadsPerWorkDay int
	OverrideDailyTarget   *int
	MaxDailyCapacity      int
	WeekendProcessing     bool
	WeekendTargetPct      int
	PreparationTime       string
	NewLeadWeight         int
	FollowUpWeight        int
}

var (
	ErrSettingsNotFound = errors.New("queue settings not found")

	errInvalidTimezone      = errors.New("invalid timezone")
	errInvalidTarget        = errors.New("daily target must be positive")
	errInvalidCapacity      = errors.New("max daily capacity must be positive")
	errInvalidPct           = errors.New("weekend percentage must be within 0..100")
	errInvalidWeights       = errors.New("priority weights must be non-negative")
	errNoWorkDays           = errors.New("no work days configured")
	errInvalidBusinessHours = errors.New("business hours must be HH:MM with start before end")
	errInvalidPrepTime      = errors.New("preparation time must be HH:MM")
)

// Validate checks every capacity-affecting field.
func (s Settings) Validate() error {
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return errInvalidTimezone
	}
	if len(s.WorkDays) == 0 && !s.WeekendProcessing {
		return errNoWorkDays
	}
	if s.TargetLeadsPerWorkDay <= 0 && s.OverrideDailyTarget == nil {
		return errInvalidTarget
	}
	if s.OverrideDailyTarget != nil && *s.OverrideDailyTarget <= 0 {
		return errInvalidTarget
	}
	if s.MaxDailyCapacity <= 0 {
		return errInvalidCapacity
	}
	if s.WeekendTargetPct < 0 || s.WeekendTargetPct > 100 {
		return errInvalidPct
	}
	if s.NewLeadWeight < 0 || s.FollowUpWeight < 0 {
		return errInvalidWeights
	}
	startH, startM, okStart := parseClock(s.BusinessHoursStart)
	endH, endM, okEnd := parseClock(s.BusinessHoursEnd)
	if !okStart || !okEnd || startH*60+startM >= endH*60+endM {
		return errInvalidBusinessHours
	}
	if _, _, ok := parseClock(s.PreparationTime); !ok {
		return errInvalidPrepTime
	}
	return nil
}

// parseClock parses a wall-clock HH:MM string.
func parseClock(s string) (hour, minute int, ok bool) {
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// Location resolves the tenant's timezone. Validate must have passed.
func (s Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Candidate is one lead considered for queue assignment.
type Candidate struct {
	LeadID          uuid.UUID
	IsNew           bool
	NextFollowUp    *time.Time
	LastInteraction *time.Time
}

// Assignment is the decision that a lead will be processed on a date.
type Assignment struct {
	ID            uuid.UUID `json:"id"`
	TenantID      uuid.UUID `json:"tenantId"`
	LeadID        uuid.UUID `json:"leadId"`
	ForDate       time.Time `json:"forDate"`
	Position      int       `json:"position"`
	PriorityScore float64   `json:"priorityScore"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PrepareResult reports one preparation run.
type PrepareResult struct {
	TenantID uuid.UUID `json:"tenantId"`
	ForDate  string    `json:"forDate"`
	Assigned int       `json:"assigned"`
	Skipped  bool      `json:"skipped"`
	Reason   string    `json:"reason,omitempty"`
}

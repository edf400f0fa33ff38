package queue

import (
	"context"
	"time"

	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	reasonNewLead  = "new_lead"
	reasonFollowUp = "follow_up"
)

// Service runs queue preparation. A run for one (tenant, date) is
// single-flighted in-process and serialized across processes by the advisory
// lock in the repository.
type Service struct {
	repo  *Repository
	log   *logger.Logger
	group singleflight.Group
}

// NewService creates the queue scheduling service.
func NewService(repo *Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// PrepareQueue computes and persists the queue for a (tenant, date).
// Re-running for a date that already has assignments is a no-op.
func (s *Service) PrepareQueue(ctx context.Context, tenantID uuid.UUID, forDate time.Time) (PrepareResult, error) {
	forDate = truncateToDate(forDate)
	key := tenantID.String() + "|" + forDate.Format("2006-01-02")

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.prepare(ctx, tenantID, forDate)
	})
	if err != nil {
		return PrepareResult{}, err
	}
	return v.(PrepareResult), nil
}

func (s *Service) prepare(ctx context.Context, tenantID uuid.UUID, forDate time.Time) (PrepareResult, error) {
	result := PrepareResult{TenantID: tenantID, ForDate: forDate.Format("2006-01-02")}

	settings, err := s.repo.GetSettings(ctx, tenantID)
	if err != nil {
		return result, err
	}
	if err := settings.Validate(); err != nil {
		result.Skipped = true
		result.Reason = "invalid settings: " + err.Error()
		s.log.SchedulerRun(tenantID.String(), result.ForDate, 0, true, result.Reason)
		return result, nil
	}

	kind := ClassifyDay(settings, forDate)
	if kind == DayOff {
		result.Skipped = true
		result.Reason = "not a work day"
		s.log.SchedulerRun(tenantID.String(), result.ForDate, 0, true, result.Reason)
		return result, nil
	}

	existing, err := s.repo.CountAssignments(ctx, tenantID, forDate)
	if err != nil {
		return result, err
	}
	if existing > 0 {
		result.Skipped = true
		result.Reason = "already prepared"
		return result, nil
	}

	target := DailyTarget(settings, kind)
	if target == 0 {
		result.Skipped = true
		result.Reason = "target is zero"
		s.log.SchedulerRun(tenantID.String(), result.ForDate, 0, true, result.Reason)
		return result, nil
	}

	candidates, err := s.repo.ListEligible(ctx, tenantID, forDate)
	if err != nil {
		return result, err
	}

	ranked := Rank(settings, candidates)
	if len(ranked) > target {
		ranked = ranked[:target]
	}

	assignments := make([]Assignment, 0, len(ranked))
	for i, c := range ranked {
		reason := reasonFollowUp
		if c.IsNew {
			reason = reasonNewLead
		}
		assignments = append(assignments, Assignment{
			LeadID:        c.LeadID,
			Position:      i + 1,
			PriorityScore: Score(settings, c),
			Reason:        reason,
		})
	}

	// The full target set is computed before anything is written; an aborted
	// run never leaves a partial queue.
	wrote, err := s.repo.WriteAssignments(ctx, tenantID, forDate, assignments)
	if err != nil {
		return result, err
	}
	if !wrote {
		result.Skipped = true
		result.Reason = "already prepared"
		return result, nil
	}

	result.Assigned = len(assignments)
	s.log.SchedulerRun(tenantID.String(), result.ForDate, result.Assigned, false, "")
	return result, nil
}

// DuePreparation names a tenant whose queue should be prepared and the date
// the preparation is for.
type DuePreparation struct {
	TenantID uuid.UUID
	ForDate  time.Time
}

// DueTenants sweeps all tenants and returns those whose local clock passed
// their preparation time within the sweep window, with tomorrow's local date
// as the preparation target. Tenants with invalid settings are logged and
// skipped, never defaulted.
func (s *Service) DueTenants(ctx context.Context, now time.Time, sweep time.Duration) ([]DuePreparation, error) {
	all, err := s.repo.ListAllSettings(ctx)
	if err != nil {
		return nil, err
	}

	var due []DuePreparation
	for _, settings := range all {
		if err := settings.Validate(); err != nil {
			s.log.SchedulerRun(settings.TenantID.String(), "", 0, true, "invalid settings: "+err.Error())
			continue
		}

		if !dueNow(settings, now, sweep) {
			continue
		}

		local := now.In(settings.Location())
		due = append(due, DuePreparation{
			TenantID: settings.TenantID,
			ForDate:  truncateToDate(local.AddDate(0, 0, 1)),
		})
	}
	return due, nil
}

// dueNow reports whether the tenant's preparation time falls inside the
// sweep window ending at now.
func dueNow(settings Settings, now time.Time, sweep time.Duration) bool {
	local := now.In(settings.Location())

	hour, minute, ok := parseClock(settings.PreparationTime)
	if !ok {
		return false
	}

	prep := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, settings.Location())
	return !local.Before(prep) && local.Sub(prep) < sweep
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

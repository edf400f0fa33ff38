// Package service contains the lead lifecycle business logic: correlation,
// meeting-driven transitions and qualification promotions.
package service

import (
	"context"
	"errors"
	"time"

	"lead_engine_backend/internal/events"
	"lead_engine_backend/internal/leads/correlate"
	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/platform/apperr"
	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	opApplyMeetingEvent = "leads.service.apply_meeting_event"
	opPromoteHeat       = "leads.service.promote_heat"
	opResolveByPhone    = "leads.service.resolve_by_phone"
)

// Outcome classifies what a meeting event delivery did to a lead.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeNoOp      Outcome = "no_op"
	OutcomeNotFound  Outcome = "not_found"
)

// ApplyResult reports the effect of one meeting event. Before holds the
// lead as it was before an applied transition.
type ApplyResult struct {
	Outcome Outcome
	Lead    domain.Lead
	Before  domain.Lead
	Delta   domain.Delta
}

// ChangeTracker records lead status transitions for the change journal and
// the notification rollup.
type ChangeTracker interface {
	TrackLeadStatusChange(ctx context.Context, tenantID, userID, leadID uuid.UUID, detail, description string, before, after map[string]any) error
}

// Service orchestrates lead lifecycle operations.
type Service struct {
	repo        *repository.Repository
	tracker     ChangeTracker
	bus         events.Bus
	log         *logger.Logger
	countryCode string
	retryBudget int
	retryDelay  time.Duration
}

// Config carries the tunables the service needs.
type Config struct {
	PhoneCountryCode string
	PersistRetries   int
	PersistDelay     time.Duration
}

// New creates the lead lifecycle service.
func New(repo *repository.Repository, tracker ChangeTracker, bus events.Bus, log *logger.Logger, cfg Config) *Service {
	retries := cfg.PersistRetries
	if retries < 1 {
		retries = 1
	}
	return &Service{
		repo:        repo,
		tracker:     tracker,
		bus:         bus,
		log:         log,
		countryCode: cfg.PhoneCountryCode,
		retryBudget: retries,
		retryDelay:  cfg.PersistDelay,
	}
}

// ResolveByPhone finds the lead a raw external phone belongs to using the
// digit-variant correlator. It never creates a lead on a miss.
func (s *Service) ResolveByPhone(ctx context.Context, tenantID uuid.UUID, rawPhone string) (uuid.UUID, bool, error) {
	candidates, err := s.repo.ListCorrelationCandidates(ctx, tenantID)
	if err != nil {
		return uuid.UUID{}, false, apperr.Wrap(apperr.KindInternal, "resolve by phone failed", err).WithOp(opResolveByPhone)
	}
	id, ok := correlate.Resolve(rawPhone, candidates, s.countryCode)
	return id, ok, nil
}

// RecordInbound bumps interaction counters for an inbound chat message.
func (s *Service) RecordInbound(ctx context.Context, leadID uuid.UUID, at time.Time) (domain.Lead, error) {
	return s.repo.RecordInboundInteraction(ctx, leadID, at)
}

// ApplyMeetingEvent correlates a meeting lifecycle event to a lead and applies
// the state machine transition under the per-lead lock. Unmatched events and
// replayed deliveries are reported as outcomes, not errors; only transient
// persistence failures surface as errors, after the retry budget is spent.
func (s *Service) ApplyMeetingEvent(ctx context.Context, tenantID uuid.UUID, ev domain.MeetingEvent) (ApplyResult, error) {
	if !domain.IsKnownMeetingEventType(ev.Type) {
		return ApplyResult{}, apperr.New(apperr.KindBadRequest, "unknown meeting event type").WithOp(opApplyMeetingEvent)
	}

	candidates, err := s.repo.ListCorrelationCandidates(ctx, tenantID)
	if err != nil {
		return ApplyResult{}, apperr.Wrap(apperr.KindInternal, "apply meeting event failed", err).WithOp(opApplyMeetingEvent)
	}

	leadID, ok := correlate.Resolve(ev.InviteePhone, candidates, s.countryCode)
	if !ok {
		// Fallback for calendar payloads without a usable phone number.
		leadID, ok = correlate.ResolveEmail(ev.InviteeEmail, candidates)
	}
	if !ok {
		s.log.WithContext(ctx).Warn("meeting event matched no lead",
			"event_type", string(ev.Type),
			"external_id", ev.ExternalID,
		)
		return ApplyResult{Outcome: OutcomeNotFound}, nil
	}

	var result ApplyResult
	err = s.withRetry(ctx, func() error {
		r, err := s.applyOnce(ctx, leadID, ev)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ApplyResult{Outcome: OutcomeNotFound}, nil
		}
		return ApplyResult{}, err
	}

	if result.Outcome == OutcomeApplied {
		s.afterApply(ctx, tenantID, result, ev)
	}
	return result, nil
}

func (s *Service) applyOnce(ctx context.Context, leadID uuid.UUID, ev domain.MeetingEvent) (ApplyResult, error) {
	var result ApplyResult
	err := s.repo.WithLeadLock(ctx, leadID, func(ctx context.Context, tx pgx.Tx) error {
		claimed, err := s.repo.ClaimEvent(ctx, tx, ev.ExternalID, string(ev.Type))
		if err != nil {
			return err
		}
		if !claimed {
			result = ApplyResult{Outcome: OutcomeDuplicate}
			return nil
		}

		lead, err := s.repo.GetForUpdate(ctx, tx, leadID)
		if err != nil {
			return err
		}

		delta := domain.ApplyMeetingTransition(lead, ev, time.Now().UTC())
		if !delta.Changed {
			// Commit keeps the idempotency claim: a permanent no-op stays one.
			result = ApplyResult{Outcome: OutcomeNoOp, Lead: lead}
			return nil
		}

		updated, err := s.repo.UpdateFromDelta(ctx, tx, lead, delta)
		if err != nil {
			return err
		}
		result = ApplyResult{Outcome: OutcomeApplied, Lead: updated, Before: lead, Delta: delta}
		return nil
	})
	if err != nil {
		return ApplyResult{}, err
	}
	return result, nil
}

// afterApply records the change and publishes the lifecycle event. Failures
// here are logged, never propagated: the lead mutation is already durable.
func (s *Service) afterApply(ctx context.Context, tenantID uuid.UUID, result ApplyResult, ev domain.MeetingEvent) {
	lead := result.Lead

	if err := s.tracker.TrackLeadStatusChange(ctx, tenantID, lead.OwnerUserID, lead.ID,
		"meeting_"+string(ev.Type), result.Delta.Description,
		statusSnapshot(result.Before), statusSnapshot(lead)); err != nil {
		s.log.WithContext(ctx).Error("track lead change failed",
			"lead_id", lead.ID.String(),
			"error", err.Error(),
		)
	}

	event := events.MeetingLifecycleApplied{
		BaseEvent:   events.NewBaseEvent(),
		TenantID:    tenantID,
		LeadID:      lead.ID,
		OwnerUserID: lead.OwnerUserID,
		LeadName:    lead.DisplayName,
		EventType:   string(ev.Type),
		ExternalID:  ev.ExternalID,
		Description: result.Delta.Description,
		ScheduledAt: ev.ScheduledAt,
	}
	if err := s.bus.PublishSync(ctx, event); err != nil {
		s.log.WithContext(ctx).Error("publish meeting lifecycle event failed",
			"lead_id", lead.ID.String(),
			"error", err.Error(),
		)
	}
}

// PromoteHeat applies an external qualification promotion and records it.
func (s *Service) PromoteHeat(ctx context.Context, tenantID, leadID uuid.UUID, target domain.BANTHeat) (domain.Lead, error) {
	if !target.IsValid() || target == domain.HeatBurning {
		return domain.Lead{}, apperr.New(apperr.KindValidation, "invalid promotion target").WithOp(opPromoteHeat)
	}

	before, lead, changed, err := s.repo.PromoteHeat(ctx, tenantID, leadID, target, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Lead{}, apperr.New(apperr.KindNotFound, "lead not found").WithOp(opPromoteHeat)
		}
		return domain.Lead{}, err
	}

	if changed {
		if err := s.tracker.TrackLeadStatusChange(ctx, tenantID, lead.OwnerUserID, lead.ID,
			"heat_promoted", "heat promoted to "+string(target),
			statusSnapshot(before), statusSnapshot(lead)); err != nil {
			s.log.WithContext(ctx).Error("track lead change failed",
				"lead_id", lead.ID.String(),
				"error", err.Error(),
			)
		}
	}
	return lead, nil
}

// statusSnapshot captures the status-bearing lead fields for the change
// journal's before/after states.
func statusSnapshot(l domain.Lead) map[string]any {
	return map[string]any{
		"bant_heat":             string(l.Heat),
		"pipeline_status":       string(l.PipelineStatus),
		"requires_human_review": l.RequiresHumanReview,
	}
}

func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= s.retryBudget; attempt++ {
		if err := fn(); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return err
			}
			lastErr = err
			if attempt < s.retryBudget {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(s.retryDelay):
				}
			}
			continue
		}
		return nil
	}
	return lastErr
}

// Package meetings provides the calendar webhook bounded context: payload
// normalization and dispatch into the lead state machine.
package meetings

import (
	"context"
	"time"

	"lead_engine_backend/internal/leads/domain"
	leadsvc "lead_engine_backend/internal/leads/service"
	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
)

// OutcomeSkipped reports an event name we have no transition rule for.
// The remaining outcomes come from the lead lifecycle service.
const OutcomeSkipped = "skipped"

// LifecycleApplier is the slice of the leads service the meetings webhook needs.
type LifecycleApplier interface {
	ApplyMeetingEvent(ctx context.Context, tenantID uuid.UUID, ev domain.MeetingEvent) (leadsvc.ApplyResult, error)
}

// Service turns provider webhook payloads into lead lifecycle transitions.
type Service struct {
	leads LifecycleApplier
	log   *logger.Logger
}

// NewService creates the meetings service.
func NewService(leads LifecycleApplier, log *logger.Logger) *Service {
	return &Service{leads: leads, log: log}
}

// Process applies one webhook delivery. Unknown event names and unmatched
// invitees resolve to soft outcomes; only persistence failures return errors.
func (s *Service) Process(ctx context.Context, tenantID uuid.UUID, payload WebhookPayload, requestID string) (ProcessingResponse, error) {
	start := time.Now()
	resp := ProcessingResponse{RequestID: requestID}

	ev, known := payload.ToMeetingEvent()
	if !known {
		s.log.WithContext(ctx).Warn("unhandled meeting event type", "event", payload.Event)
		resp.Outcome = OutcomeSkipped
		resp.ProcessingTimeMs = elapsedMs(start)
		return resp, nil
	}

	result, err := s.leads.ApplyMeetingEvent(ctx, tenantID, ev)
	if err != nil {
		return ProcessingResponse{}, err
	}

	resp.Outcome = string(result.Outcome)
	if result.Outcome == leadsvc.OutcomeApplied || result.Outcome == leadsvc.OutcomeNoOp {
		id := result.Lead.ID
		resp.LeadID = &id
	}
	if result.Outcome == leadsvc.OutcomeApplied {
		resp.LeadUpdates = 1
		resp.NotificationsSent = 1
	}
	resp.ProcessingTimeMs = elapsedMs(start)

	s.log.WebhookResult("meetings", requestID, 1, 0, resp.ProcessingTimeMs)
	return resp, nil
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"lead_engine_backend/internal/events"
	leadsdomain "lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// batchConcurrency bounds how many messages of one delivery are processed in
// parallel. Items for the same phone rarely co-occur in one batch; the
// per-lead advisory lock covers the case when they do.
const batchConcurrency = 4

// LeadResolver is the slice of the leads service the chat pipeline needs.
type LeadResolver interface {
	ResolveByPhone(ctx context.Context, tenantID uuid.UUID, rawPhone string) (uuid.UUID, bool, error)
	RecordInbound(ctx context.Context, leadID uuid.UUID, at time.Time) (leadsdomain.Lead, error)
}

// ChangeTracker records lead-facing chat activity for the notification rollup.
type ChangeTracker interface {
	TrackLeadChange(ctx context.Context, tenantID, userID, leadID uuid.UUID, changeType, description string) error
}

// ReplySender sends outbound chat messages. Implemented by the whatsapp client.
type ReplySender interface {
	SendText(ctx context.Context, phone, message string) (providerMessageID string, err error)
}

// autoReplies maps normalized inbound keywords to canned responses.
var autoReplies = map[string]string{
	"stop":  "You have been unsubscribed. Reply START to opt back in.",
	"start": "Welcome back! You will receive updates again.",
	"help":  "One of our consultants will get back to you shortly.",
}

// Service processes inbound chat webhook deliveries.
type Service struct {
	repo        *Repository
	leads       LeadResolver
	tracker     ChangeTracker
	sender      ReplySender
	bus         events.Bus
	log         *logger.Logger
	retryBudget int
	retryDelay  time.Duration
}

// NewService creates the chat processing service.
func NewService(repo *Repository, leads LeadResolver, tracker ChangeTracker, sender ReplySender, bus events.Bus, log *logger.Logger, retryBudget int, retryDelay time.Duration) *Service {
	if retryBudget < 1 {
		retryBudget = 1
	}
	return &Service{
		repo:        repo,
		leads:       leads,
		tracker:     tracker,
		sender:      sender,
		bus:         bus,
		log:         log,
		retryBudget: retryBudget,
		retryDelay:  retryDelay,
	}
}

// ProcessDelivery handles one webhook delivery: new messages concurrently,
// then status updates. Item failures are collected, never propagated; the
// provider must not redeliver a batch because one item misbehaved.
func (s *Service) ProcessDelivery(ctx context.Context, tenantID uuid.UUID, payload InboundPayload, requestID string) ProcessingResult {
	start := time.Now()
	result := ProcessingResult{RequestID: requestID, Errors: []ItemError{}}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for _, msg := range payload.Messages {
		g.Go(func() error {
			outcome, err := s.processMessageWithRetry(gctx, tenantID, msg)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, ItemError{Ref: msg.ID, Reason: err.Error()})
				return nil
			}
			result.Processed++
			if outcome.leadUpdated {
				result.LeadUpdates++
			}
			if outcome.notified {
				result.NotificationsSent++
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, st := range payload.Statuses {
		if err := s.applyStatus(ctx, st); err != nil {
			result.Errors = append(result.Errors, ItemError{Ref: st.ID, Reason: err.Error()})
			continue
		}
		result.Processed++
	}

	result.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	s.log.WebhookResult("chat", requestID, result.Processed, len(result.Errors), result.ProcessingTimeMs)
	return result
}

type messageOutcome struct {
	leadUpdated bool
	notified    bool
}

func (s *Service) processMessageWithRetry(ctx context.Context, tenantID uuid.UUID, msg InboundMessage) (messageOutcome, error) {
	var (
		outcome messageOutcome
		lastErr error
	)
	for attempt := 1; attempt <= s.retryBudget; attempt++ {
		out, err := s.processMessage(ctx, tenantID, msg)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt < s.retryBudget {
			select {
			case <-ctx.Done():
				return outcome, ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
	}
	return outcome, lastErr
}

func (s *Service) processMessage(ctx context.Context, tenantID uuid.UUID, msg InboundMessage) (messageOutcome, error) {
	var outcome messageOutcome

	if msg.ID == "" || msg.From == "" {
		return outcome, errors.New("message missing id or sender")
	}

	now := time.Now().UTC()
	sentAt := msg.SentAt(now)

	profileName := ""
	if msg.Profile != nil {
		profileName = msg.Profile.Name
	}

	conv, err := s.repo.UpsertConversation(ctx, tenantID, msg.From, profileName, sentAt)
	if err != nil {
		return outcome, err
	}

	stored, inserted, err := s.repo.InsertInboundMessage(ctx, conv.ID, msg.ID, msg.Body(), sentAt)
	if err != nil {
		return outcome, err
	}
	if !inserted {
		// Redelivered message: already fully processed, nothing else to do.
		return outcome, nil
	}

	leadID := uuid.UUID{}
	matched := false
	if conv.LeadID != nil {
		leadID, matched = *conv.LeadID, true
	} else {
		leadID, matched, err = s.leads.ResolveByPhone(ctx, tenantID, msg.From)
		if err != nil {
			return outcome, err
		}
		if matched {
			if err := s.repo.AttachLead(ctx, conv.ID, leadID); err != nil {
				return outcome, err
			}
		}
	}

	if matched {
		lead, err := s.leads.RecordInbound(ctx, leadID, sentAt)
		if err != nil {
			return outcome, err
		}
		outcome.leadUpdated = true

		if err := s.tracker.TrackLeadChange(ctx, tenantID, lead.OwnerUserID, leadID, "chat_message", "new chat message from "+lead.DisplayName); err != nil {
			s.log.WithContext(ctx).Error("track chat change failed", "lead_id", leadID.String(), "error", err.Error())
		} else {
			outcome.notified = true
		}

		s.bus.Publish(ctx, events.ChatMessageReceived{
			BaseEvent:      events.NewBaseEvent(),
			TenantID:       tenantID,
			LeadID:         leadID,
			OwnerUserID:    lead.OwnerUserID,
			ConversationID: conv.ID,
			MessageID:      stored.ID,
			FromPhone:      msg.From,
			Preview:        preview(msg.Body()),
		})
	}

	s.maybeAutoReply(ctx, conv, msg)
	return outcome, nil
}

// maybeAutoReply answers recognized keywords. Failures are logged only; an
// auto-reply must never fail the inbound message it reacts to.
func (s *Service) maybeAutoReply(ctx context.Context, conv Conversation, msg InboundMessage) {
	if s.sender == nil {
		return
	}
	reply, ok := autoReplies[strings.ToLower(strings.TrimSpace(msg.Body()))]
	if !ok {
		return
	}

	providerID, err := s.sender.SendText(ctx, conv.Phone, reply)
	if err != nil {
		s.log.WithContext(ctx).Error("auto-reply send failed", "phone", conv.Phone, "error", err.Error())
		return
	}
	if _, err := s.repo.InsertOutboundMessage(ctx, conv.ID, providerID, reply, time.Now().UTC()); err != nil {
		s.log.WithContext(ctx).Error("auto-reply persist failed", "conversation_id", conv.ID.String(), "error", err.Error())
	}
}

func (s *Service) applyStatus(ctx context.Context, st StatusUpdate) error {
	status, ok := knownStatuses[strings.ToLower(st.Status)]
	if !ok {
		return errors.New("unknown status value: " + st.Status)
	}
	return s.repo.UpdateMessageStatus(ctx, st.ID, status)
}

func preview(body string) string {
	const maxPreview = 80
	if len(body) <= maxPreview {
		return body
	}
	return body[:maxPreview] + "..."
}

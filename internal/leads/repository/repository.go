// Package repository provides data access for the leads bounded context.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lead_engine_backend/internal/leads/correlate"
	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opGetByID         = "leads.repository.get_by_id"
	opGetForUpdate    = "leads.repository.get_for_update"
	opListCandidates  = "leads.repository.list_candidates"
	opClaimEvent      = "leads.repository.claim_event"
	opUpdateFromDelta = "leads.repository.update_from_delta"
	opRecordInbound   = "leads.repository.record_inbound"
	opPromote         = "leads.repository.promote"
)

// ErrNotFound is returned when a lead does not exist.
var ErrNotFound = errors.New("lead not found")

const leadColumns = `
	id, tenant_id, owner_user_id, phone, email, display_name,
	pipeline_status, qualification_state, bant_heat, processing_state, queue_status,
	interaction_count, follow_up_count,
	first_interaction, last_interaction, next_follow_up, last_agent_processed_at,
	requires_human_review, metadata, created_at, updated_at`

// Repository is the pgx-backed store for leads, their correlation candidates
// and the processed-event idempotency ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID loads a lead scoped to its tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 AND tenant_id = $2`, leadID, tenantID)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, ErrNotFound
		}
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "load lead failed", err).WithOp(opGetByID)
	}
	return lead, nil
}

// WithLeadLock runs fn inside a transaction holding a per-lead advisory lock.
// Deliveries touching the same lead serialize here; deliveries for different
// leads proceed in parallel. The lock is released on commit/rollback.
func (r *Repository) WithLeadLock(ctx context.Context, leadID uuid.UUID, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "begin lead transaction failed", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, leadID.String()); err != nil {
		return apperr.Wrap(apperr.KindInternal, "acquire lead lock failed", err)
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ClaimEvent records an external event id + type in the idempotency ledger.
// It returns false when the pair was already claimed by an earlier delivery.
func (r *Repository) ClaimEvent(ctx context.Context, tx pgx.Tx, externalID string, eventType string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO processed_events (external_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (external_id, event_type) DO NOTHING
	`, externalID, eventType)
	if err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "claim event failed", err).WithOp(opClaimEvent)
	}
	return tag.RowsAffected() == 1, nil
}

// GetForUpdate loads a lead row inside tx with a row lock.
func (r *Repository) GetForUpdate(ctx context.Context, tx pgx.Tx, leadID uuid.UUID) (domain.Lead, error) {
	row := tx.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, leadID)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, ErrNotFound
		}
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "load lead failed", err).WithOp(opGetForUpdate)
	}
	return lead, nil
}

// UpdateFromDelta persists a transition delta onto the lead row and returns
// the updated lead. Metadata is merged, never replaced wholesale.
func (r *Repository) UpdateFromDelta(ctx context.Context, tx pgx.Tx, lead domain.Lead, delta domain.Delta) (domain.Lead, error) {
	heat := lead.Heat
	if delta.Heat != nil {
		heat = *delta.Heat
	}
	pipeline := lead.PipelineStatus
	if delta.PipelineStatus != nil {
		pipeline = *delta.PipelineStatus
	}
	review := lead.RequiresHumanReview
	if delta.RequiresHumanReview != nil {
		review = *delta.RequiresHumanReview
	}
	lastInteraction := lead.LastInteraction
	if delta.LastInteraction != nil {
		lastInteraction = delta.LastInteraction
	}
	metadata := domain.MergeMetadata(lead.Metadata, delta.MetadataPatch)

	row := tx.QueryRow(ctx, `
		UPDATE leads SET
			bant_heat = $2,
			pipeline_status = $3,
			requires_human_review = $4,
			last_interaction = $5,
			first_interaction = COALESCE(first_interaction, $5),
			metadata = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns, lead.ID, string(heat), string(pipeline), review, lastInteraction, metadata)

	updated, err := scanLead(row)
	if err != nil {
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, fmt.Sprintf("update lead failed: %v", err), err).WithOp(opUpdateFromDelta)
	}
	return updated, nil
}

// ListCorrelationCandidates returns the phone/email candidates of all
// non-terminal leads of a tenant, for the correlator to match against.
func (r *Repository) ListCorrelationCandidates(ctx context.Context, tenantID uuid.UUID) ([]correlate.Candidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, phone, email, last_interaction
		FROM leads
		WHERE tenant_id = $1 AND pipeline_status NOT IN ('converted', 'lost')
	`, tenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list correlation candidates failed", err).WithOp(opListCandidates)
	}
	defer rows.Close()

	var candidates []correlate.Candidate
	for rows.Next() {
		var c correlate.Candidate
		if err := rows.Scan(&c.ID, &c.Phone, &c.Email, &c.LastInteraction); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "scan correlation candidate failed", err).WithOp(opListCandidates)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "iterate correlation candidates failed", err).WithOp(opListCandidates)
	}
	return candidates, nil
}

// RecordInboundInteraction bumps interaction counters and stamps the
// first/last interaction timestamps for an inbound chat message.
func (r *Repository) RecordInboundInteraction(ctx context.Context, leadID uuid.UUID, at time.Time) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			interaction_count = interaction_count + 1,
			last_interaction = $2,
			first_interaction = COALESCE(first_interaction, $2),
			updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns, leadID, at)

	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, ErrNotFound
		}
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "record inbound interaction failed", err).WithOp(opRecordInbound)
	}
	return lead, nil
}

// PromoteHeat applies an external qualification promotion under the per-lead
// lock, returning the lead before and after and whether anything changed.
// A lead belonging to another tenant is reported as not found.
func (r *Repository) PromoteHeat(ctx context.Context, tenantID, leadID uuid.UUID, target domain.BANTHeat, now time.Time) (domain.Lead, domain.Lead, bool, error) {
	var (
		before  domain.Lead
		updated domain.Lead
		changed bool
	)
	err := r.WithLeadLock(ctx, leadID, func(ctx context.Context, tx pgx.Tx) error {
		lead, err := r.GetForUpdate(ctx, tx, leadID)
		if err != nil {
			return err
		}
		if lead.TenantID != tenantID {
			return ErrNotFound
		}
		before = lead
		delta := domain.PromoteHeat(lead, target, now)
		if !delta.Changed {
			updated = lead
			return nil
		}
		updated, err = r.UpdateFromDelta(ctx, tx, lead, delta)
		if err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return domain.Lead{}, domain.Lead{}, false, apperr.Wrap(apperr.KindInternal, "promote heat failed", err).WithOp(opPromote)
	}
	return before, updated, changed, nil
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead                                          domain.Lead
		pipeline, qualification, heat, processing, qs string
	)
	err := row.Scan(
		&lead.ID, &lead.TenantID, &lead.OwnerUserID, &lead.Phone, &lead.Email, &lead.DisplayName,
		&pipeline, &qualification, &heat, &processing, &qs,
		&lead.InteractionCount, &lead.FollowUpCount,
		&lead.FirstInteraction, &lead.LastInteraction, &lead.NextFollowUp, &lead.LastAgentProcessed,
		&lead.RequiresHumanReview, &lead.Metadata, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.PipelineStatus = domain.PipelineStatus(pipeline)
	lead.QualificationState = domain.QualificationState(qualification)
	lead.Heat = domain.BANTHeat(heat)
	lead.ProcessingState = domain.ProcessingState(processing)
	lead.QueueStatus = domain.QueueStatus(qs)
	return lead, nil
}

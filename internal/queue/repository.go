package queue

import (
	"context"
	"errors"
	"time"

	"lead_engine_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opGetSettings   = "queue.repository.get_settings"
	opListSettings  = "queue.repository.list_settings"
	opListEligible  = "queue.repository.list_eligible"
	opCountAssigned = "queue.repository.count_assigned"
	opWriteAssigned = "queue.repository.write_assignments"
	opListAssigned  = "queue.repository.list_assignments"
)

// Repository is the pgx-backed store for queue settings and assignments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new queue repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const settingsColumns = `
	tenant_id, timezone, work_days, business_hours_start, business_hours_end,
	holidays, target_leads_per_work_day, override_daily_target, max_daily_capacity,
	weekend_processing, weekend_target_pct, preparation_time,
	new_lead_weight, follow_up_weight`

// GetSettings loads one tenant's queue settings.
func (r *Repository) GetSettings(ctx context.Context, tenantID uuid.UUID) (Settings, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM queue_settings WHERE tenant_id = $1`, tenantID)
	s, err := scanSettings(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, ErrSettingsNotFound
		}
		return Settings{}, apperr.Wrap(apperr.KindInternal, "get queue settings failed", err).WithOp(opGetSettings)
	}
	return s, nil
}

// ListAllSettings returns every tenant's settings for the due-tenant sweep.
func (r *Repository) ListAllSettings(ctx context.Context) ([]Settings, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+settingsColumns+` FROM queue_settings`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list queue settings failed", err).WithOp(opListSettings)
	}
	defer rows.Close()

	var out []Settings
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "scan queue settings failed", err).WithOp(opListSettings)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "iterate queue settings failed", err).WithOp(opListSettings)
	}
	return out, nil
}

// ListEligible returns leads that may enter the queue for a date: active
// pipeline, idle queue status, and no assignment for that date yet.
func (r *Repository) ListEligible(ctx context.Context, tenantID uuid.UUID, forDate time.Time) ([]Candidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id,
		       l.pipeline_status = 'new' AND l.follow_up_count = 0 AS is_new,
		       l.next_follow_up, l.last_interaction
		FROM leads l
		WHERE l.tenant_id = $1
		  AND l.pipeline_status NOT IN ('converted', 'lost')
		  AND l.queue_status = 'idle'
		  AND NOT EXISTS (
			SELECT 1 FROM queue_assignments a
			WHERE a.lead_id = l.id AND a.for_date = $2
		  )
	`, tenantID, forDate)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list eligible leads failed", err).WithOp(opListEligible)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.LeadID, &c.IsNew, &c.NextFollowUp, &c.LastInteraction); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "scan eligible lead failed", err).WithOp(opListEligible)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "iterate eligible leads failed", err).WithOp(opListEligible)
	}
	return out, nil
}

// CountAssignments returns the number of assignments already written for a
// (tenant, date).
func (r *Repository) CountAssignments(ctx context.Context, tenantID uuid.UUID, forDate time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM queue_assignments WHERE tenant_id = $1 AND for_date = $2
	`, tenantID, forDate).Scan(&count)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "count assignments failed", err).WithOp(opCountAssigned)
	}
	return count, nil
}

// WriteAssignments persists a full preparation run atomically: the advisory
// lock serializes concurrent runs for the same (tenant, date), the re-check
// inside the transaction makes the second run a no-op, and the lead rows are
// flipped to queued in the same transaction so a crash never leaves a
// half-written queue. Returns false when another run already wrote the date.
func (r *Repository) WriteAssignments(ctx context.Context, tenantID uuid.UUID, forDate time.Time, assignments []Assignment) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "begin assignment transaction failed", err).WithOp(opWriteAssigned)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lockKey := tenantID.String() + "|" + forDate.Format("2006-01-02")
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "acquire preparation lock failed", err).WithOp(opWriteAssigned)
	}

	var existing int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM queue_assignments WHERE tenant_id = $1 AND for_date = $2
	`, tenantID, forDate).Scan(&existing); err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "recheck assignments failed", err).WithOp(opWriteAssigned)
	}
	if existing > 0 {
		return false, nil
	}

	for _, a := range assignments {
		if _, err := tx.Exec(ctx, `
			INSERT INTO queue_assignments (id, tenant_id, lead_id, for_date, position, priority_score, reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.New(), tenantID, a.LeadID, forDate, a.Position, a.PriorityScore, a.Reason); err != nil {
			return false, apperr.Wrap(apperr.KindInternal, "insert assignment failed", err).WithOp(opWriteAssigned)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE leads SET queue_status = 'queued', updated_at = now() WHERE id = $1
		`, a.LeadID); err != nil {
			return false, apperr.Wrap(apperr.KindInternal, "mark lead queued failed", err).WithOp(opWriteAssigned)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "commit assignments failed", err).WithOp(opWriteAssigned)
	}
	return true, nil
}

// ListAssignments returns the assignments for a (tenant, date) in position order.
func (r *Repository) ListAssignments(ctx context.Context, tenantID uuid.UUID, forDate time.Time) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, lead_id, for_date, position, priority_score, reason, created_at
		FROM queue_assignments
		WHERE tenant_id = $1 AND for_date = $2
		ORDER BY position ASC
	`, tenantID, forDate)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list assignments failed", err).WithOp(opListAssigned)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.TenantID, &a.LeadID, &a.ForDate, &a.Position, &a.PriorityScore, &a.Reason, &a.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "scan assignment failed", err).WithOp(opListAssigned)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "iterate assignments failed", err).WithOp(opListAssigned)
	}
	return out, nil
}

func scanSettings(row pgx.Row) (Settings, error) {
	var (
		s        Settings
		workDays []int32
	)
	err := row.Scan(
		&s.TenantID, &s.Timezone, &workDays, &s.BusinessHoursStart, &s.BusinessHoursEnd,
		&s.Holidays, &s.TargetLeadsPerWorkDay, &s.OverrideDailyTarget, &s.MaxDailyCapacity,
		&s.WeekendProcessing, &s.WeekendTargetPct, &s.PreparationTime,
		&s.NewLeadWeight, &s.FollowUpWeight,
	)
	if err != nil {
		return Settings{}, err
	}
	s.WorkDays = make([]time.Weekday, 0, len(workDays))
	for _, wd := range workDays {
		s.WorkDays = append(s.WorkDays, time.Weekday(wd))
	}
	return s, nil
}

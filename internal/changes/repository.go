package changes

import (
	"context"
	"errors"
	"time"

	"lead_engine_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opRecord     = "changes.repository.record"
	opList       = "changes.repository.list"
	opMarkRead   = "changes.repository.mark_read"
	opUnreadCnt  = "changes.repository.count_unread"
	pgUniqueCode = "23505"
)

// ErrNotificationNotFound is returned when a mark-read targets a missing row.
var ErrNotificationNotFound = errors.New("notification not found")

// Repository persists changes and their aggregated notification rollups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new changes repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record inserts the change and folds it into the user's unread rollup of the
// same type, atomically. Concurrent recorders for the same (user, type) are
// serialized by the row lock on the unread rollup; the insert race for the
// first row is resolved by retrying once against the partial unique index.
func (r *Repository) Record(ctx context.Context, change Change) error {
	err := r.recordOnce(ctx, change)
	if isUniqueViolation(err) {
		err = r.recordOnce(ctx, change)
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "record change failed", err).WithOp(opRecord)
	}
	return nil
}

func (r *Repository) recordOnce(ctx context.Context, change Change) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `
		INSERT INTO system_changes
			(id, tenant_id, user_id, entity_type, entity_id, change_type, detail, description, before_state, after_state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, uuid.New(), change.TenantID, change.UserID, change.EntityType, change.EntityID,
		string(change.ChangeType), change.Detail, change.Description,
		snapshotParam(change.Before), snapshotParam(change.After))
	if err != nil {
		return err
	}

	var (
		rollupID uuid.UUID
		count    int
	)
	err = tx.QueryRow(ctx, `
		SELECT id, count FROM aggregated_notifications
		WHERE user_id = $1 AND notification_type = $2 AND is_read = false
		FOR UPDATE
	`, change.UserID, change.Detail).Scan(&rollupID, &count)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		title, body := render(change.Detail, 1)
		_, err = tx.Exec(ctx, `
			INSERT INTO aggregated_notifications
				(id, tenant_id, user_id, notification_type, count, title, body, is_read, first_change_at, last_change_at)
			VALUES ($1, $2, $3, $4, 1, $5, $6, false, $7, $7)
		`, uuid.New(), change.TenantID, change.UserID, change.Detail, title, body, now)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		title, body := render(change.Detail, count+1)
		_, err = tx.Exec(ctx, `
			UPDATE aggregated_notifications
			SET count = count + 1, title = $2, body = $3, last_change_at = $4, updated_at = now()
			WHERE id = $1
		`, rollupID, title, body, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListNotifications returns the newest rollups for a user, unread first.
func (r *Repository) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]AggregatedNotification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, user_id, notification_type, count, title, body, is_read,
		       first_change_at, last_change_at, read_at, created_at
		FROM aggregated_notifications
		WHERE user_id = $1
		ORDER BY is_read ASC, last_change_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list notifications failed", err).WithOp(opList)
	}
	defer rows.Close()

	var out []AggregatedNotification
	for rows.Next() {
		var n AggregatedNotification
		if err := rows.Scan(
			&n.ID, &n.TenantID, &n.UserID, &n.NotificationType, &n.Count, &n.Title, &n.Body, &n.IsRead,
			&n.FirstChangeAt, &n.LastChangeAt, &n.ReadAt, &n.CreatedAt,
		); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "scan notification failed", err).WithOp(opList)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "iterate notifications failed", err).WithOp(opList)
	}
	return out, nil
}

// CountUnread returns the number of unread rollups for a user.
func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM aggregated_notifications WHERE user_id = $1 AND is_read = false
	`, userID).Scan(&count)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "count unread failed", err).WithOp(opUnreadCnt)
	}
	return count, nil
}

// MarkRead closes a rollup. The next change of the same type starts a fresh
// rollup with count 1.
func (r *Repository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE aggregated_notifications
		SET is_read = true, read_at = now(), updated_at = now()
		WHERE id = $1 AND user_id = $2 AND is_read = false
	`, notificationID, userID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "mark read failed", err).WithOp(opMarkRead)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// snapshotParam keeps absent snapshots as SQL NULL instead of jsonb null.
func snapshotParam(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}

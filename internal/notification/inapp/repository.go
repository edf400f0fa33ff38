package inapp

import (
	"context"
	"time"

	"lead_engine_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate      = "notification.inapp.repository.create"
	opList        = "notification.inapp.repository.list"
	opCountUnread = "notification.inapp.repository.count_unread"
	opMarkRead    = "notification.inapp.repository.mark_read"
	opMarkAllRead = "notification.inapp.repository.mark_all_read"

	errRepoNotConfigured = "in-app notification repository not configured"
)

// Notification is a single severity-tiered in-app notification.
type Notification struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"userId"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	ResourceID   *uuid.UUID `json:"resourceId,omitempty"`
	ResourceType *string    `json:"resourceType,omitempty"`
	Category     string     `json:"category"`
	IsRead       bool       `json:"isRead"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// CreateParams carries the fields to persist a notification.
type CreateParams struct {
	TenantID     uuid.UUID
	UserID       uuid.UUID
	Title        string
	Content      string
	ResourceID   *uuid.UUID
	ResourceType *string
	Category     string
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, p CreateParams) (Notification, error) {
	if r == nil || r.pool == nil {
		return Notification{}, apperr.Internal(errRepoNotConfigured).WithOp(opCreate)
	}
	if p.TenantID == uuid.Nil || p.UserID == uuid.Nil {
		return Notification{}, apperr.Validation("tenantId and userId are required").WithOp(opCreate)
	}
	if p.Title == "" || p.Content == "" {
		return Notification{}, apperr.Validation("title and content are required").WithOp(opCreate)
	}

	category := p.Category
	if category == "" {
		category = "info"
	}

	var n Notification
	err := r.pool.QueryRow(ctx, `
		INSERT INTO in_app_notifications
		(tenant_id, user_id, title, content, resource_id, resource_type, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, title, content, resource_id, resource_type, category, is_read, created_at
	`, p.TenantID, p.UserID, p.Title, p.Content, p.ResourceID, p.ResourceType, category).Scan(
		&n.ID, &n.UserID, &n.Title, &n.Content, &n.ResourceID, &n.ResourceType, &n.Category, &n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		return Notification{}, apperr.Wrap(apperr.KindInternal, "create notification failed", err).WithOp(opCreate)
	}
	return n, nil
}

func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit int, unreadOnly bool) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, user_id, title, content, resource_id, resource_type, category, is_read, created_at
		FROM in_app_notifications
		WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = false`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list notifications failed", err).WithOp(opList)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.ResourceID, &n.ResourceType, &n.Category, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "scan notification failed", err).WithOp(opList)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "iterate notifications failed", err).WithOp(opList)
	}
	return out, nil
}

func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM in_app_notifications WHERE user_id = $1 AND is_read = false
	`, userID).Scan(&count)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "count unread failed", err).WithOp(opCountUnread)
	}
	return count, nil
}

func (r *Repository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE in_app_notifications SET is_read = true, read_at = now()
		WHERE id = $1 AND user_id = $2 AND is_read = false
	`, notificationID, userID)
	if err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "mark read failed", err).WithOp(opMarkRead)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE in_app_notifications SET is_read = true, read_at = now()
		WHERE user_id = $1 AND is_read = false
	`, userID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "mark all read failed", err).WithOp(opMarkAllRead)
	}
	return int(tag.RowsAffected()), nil
}

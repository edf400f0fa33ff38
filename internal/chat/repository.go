package chat

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
	opUpsertConversation = "chat.repository.upsert_conversation"
	opAttachLead         = "chat.repository.attach_lead"
	opInsertInbound      = "chat.repository.insert_inbound"
	opInsertOutbound     = "chat.repository.insert_outbound"
	opUpdateStatus       = "chat.repository.update_status"
)

// ErrStatusTargetMissing is returned when a status update references a
// provider message id we never stored.
var ErrStatusTargetMissing = errors.New("status update references unknown message")

// Repository is the pgx-backed store for conversations and messages.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new chat repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const conversationColumns = `
	id, tenant_id, lead_id, phone, profile_name, status,
	message_count, last_message_at, created_at, updated_at`

// UpsertConversation finds the active conversation for (tenant, phone) or
// creates one, refreshing last_message_at and the profile name either way.
func (r *Repository) UpsertConversation(ctx context.Context, tenantID uuid.UUID, phone, profileName string, at time.Time) (Conversation, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO chat_conversations (id, tenant_id, phone, profile_name, status, last_message_at)
		VALUES ($1, $2, $3, $4, 'active', $5)
		ON CONFLICT (tenant_id, phone) WHERE status = 'active'
		DO UPDATE SET
			last_message_at = GREATEST(chat_conversations.last_message_at, EXCLUDED.last_message_at),
			profile_name = CASE WHEN EXCLUDED.profile_name <> '' THEN EXCLUDED.profile_name ELSE chat_conversations.profile_name END,
			updated_at = now()
		RETURNING `+conversationColumns, uuid.New(), tenantID, phone, profileName, at)

	conv, err := scanConversation(row)
	if err != nil {
		return Conversation{}, apperr.Wrap(apperr.KindInternal, "upsert conversation failed", err).WithOp(opUpsertConversation)
	}
	return conv, nil
}

// AttachLead links a correlated lead to a conversation that has none yet.
func (r *Repository) AttachLead(ctx context.Context, conversationID, leadID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE chat_conversations SET lead_id = $2, updated_at = now()
		WHERE id = $1 AND lead_id IS NULL
	`, conversationID, leadID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "attach lead failed", err).WithOp(opAttachLead)
	}
	return nil
}

// InsertInboundMessage stores an inbound message keyed by the provider
// message id. The second return is false when the id was seen before; a
// redelivered message never bumps the conversation counter.
func (r *Repository) InsertInboundMessage(ctx context.Context, conversationID uuid.UUID, providerMessageID, body string, sentAt time.Time) (Message, bool, error) {
	row := r.pool.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO chat_messages (id, conversation_id, provider_message_id, direction, body, status, sent_at)
			VALUES ($1, $2, $3, 'inbound', $4, 'received', $5)
			ON CONFLICT (provider_message_id) DO NOTHING
			RETURNING id, conversation_id, provider_message_id, direction, body, status, sent_at, created_at
		), bump AS (
			UPDATE chat_conversations
			SET message_count = message_count + 1, updated_at = now()
			WHERE id = $2 AND EXISTS (SELECT 1 FROM ins)
		)
		SELECT id, conversation_id, provider_message_id, direction, body, status, sent_at, created_at FROM ins
	`, uuid.New(), conversationID, providerMessageID, body, sentAt)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, false, nil
		}
		return Message{}, false, apperr.Wrap(apperr.KindInternal, "insert inbound message failed", err).WithOp(opInsertInbound)
	}
	return msg, true, nil
}

// InsertOutboundMessage stores an auto-reply we sent.
func (r *Repository) InsertOutboundMessage(ctx context.Context, conversationID uuid.UUID, providerMessageID, body string, sentAt time.Time) (Message, error) {
	row := r.pool.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO chat_messages (id, conversation_id, provider_message_id, direction, body, status, sent_at)
			VALUES ($1, $2, $3, 'outbound', $4, 'sent', $5)
			RETURNING id, conversation_id, provider_message_id, direction, body, status, sent_at, created_at
		), bump AS (
			UPDATE chat_conversations
			SET message_count = message_count + 1, updated_at = now()
			WHERE id = $2
		)
		SELECT id, conversation_id, provider_message_id, direction, body, status, sent_at, created_at FROM ins
	`, uuid.New(), conversationID, providerMessageID, body, sentAt)

	msg, err := scanMessage(row)
	if err != nil {
		return Message{}, apperr.Wrap(apperr.KindInternal, "insert outbound message failed", err).WithOp(opInsertOutbound)
	}
	return msg, nil
}

// UpdateMessageStatus applies a provider delivery status by provider id.
func (r *Repository) UpdateMessageStatus(ctx context.Context, providerMessageID string, status MessageStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE chat_messages SET status = $2 WHERE provider_message_id = $1
	`, providerMessageID, string(status))
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "update message status failed", err).WithOp(opUpdateStatus)
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusTargetMissing
	}
	return nil
}

func scanConversation(row pgx.Row) (Conversation, error) {
	var (
		conv   Conversation
		status string
	)
	err := row.Scan(
		&conv.ID, &conv.TenantID, &conv.LeadID, &conv.Phone, &conv.ProfileName, &status,
		&conv.MessageCount, &conv.LastMessageAt, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		return Conversation{}, err
	}
	conv.Status = ConversationStatus(status)
	return conv, nil
}

func scanMessage(row pgx.Row) (Message, error) {
	var (
		msg               Message
		direction, status string
	)
	err := row.Scan(
		&msg.ID, &msg.ConversationID, &msg.ProviderMessageID, &direction, &msg.Body, &status,
		&msg.SentAt, &msg.CreatedAt,
	)
	if err != nil {
		return Message{}, err
	}
	msg.Direction = MessageDirection(direction)
	msg.Status = MessageStatus(status)
	return msg, nil
}

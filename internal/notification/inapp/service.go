package inapp

import (
	"context"

	"lead_engine_backend/platform/apperr"
	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
)

type Service struct {
	repo *Repository
	log  *logger.Logger
}

func NewService(repo *Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SendParams describes one notification to deliver.
type SendParams struct {
	TenantID     uuid.UUID
	UserID       uuid.UUID
	Title        string
	Content      string
	ResourceID   *uuid.UUID
	ResourceType string
	Category     string // "info", "success", "warning", "error"
}

// Send persists the notification.
func (s *Service) Send(ctx context.Context, p SendParams) error {
	if s == nil || s.repo == nil {
		return apperr.Internal("in-app notification service not configured")
	}
	if p.Category == "" {
		p.Category = "info"
	}

	var resourceType *string
	if p.ResourceType != "" {
		resourceType = &p.ResourceType
	}

	_, err := s.repo.Create(ctx, CreateParams{
		TenantID:     p.TenantID,
		UserID:       p.UserID,
		Title:        p.Title,
		Content:      p.Content,
		ResourceID:   p.ResourceID,
		ResourceType: resourceType,
		Category:     p.Category,
	})
	if err != nil {
		s.log.WithContext(ctx).Error("send in-app notification failed",
			"user_id", p.UserID.String(),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

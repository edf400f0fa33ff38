package changes

import (
	"context"

	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
)

// recorder persists a change; *Repository is the production implementation.
type recorder interface {
	Record(ctx context.Context, change Change) error
}

// Tracker is the write-side facade the mutating services call. It satisfies
// the ChangeTracker interfaces the leads and chat services declare.
type Tracker struct {
	repo recorder
	log  *logger.Logger
}

// NewTracker creates a change tracker.
func NewTracker(repo recorder, log *logger.Logger) *Tracker {
	return &Tracker{repo: repo, log: log}
}

// TrackLeadChange records a lead mutation and folds it into the owning
// user's unread rollup. The detail names the event and keys the rollup.
func (t *Tracker) TrackLeadChange(ctx context.Context, tenantID, userID, leadID uuid.UUID, detail, description string) error {
	return t.track(ctx, Change{
		TenantID:    tenantID,
		UserID:      userID,
		EntityType:  "lead",
		EntityID:    leadID,
		ChangeType:  ChangeUpdated,
		Detail:      detail,
		Description: description,
	})
}

// TrackLeadStatusChange records a lead status transition with before and
// after field snapshots.
func (t *Tracker) TrackLeadStatusChange(ctx context.Context, tenantID, userID, leadID uuid.UUID, detail, description string, before, after map[string]any) error {
	return t.track(ctx, Change{
		TenantID:    tenantID,
		UserID:      userID,
		EntityType:  "lead",
		EntityID:    leadID,
		ChangeType:  ChangeStatusChanged,
		Detail:      detail,
		Description: description,
		Before:      before,
		After:       after,
	})
}

func (t *Tracker) track(ctx context.Context, change Change) error {
	if change.UserID == (uuid.UUID{}) {
		// Unowned leads have nobody to notify; the change log still matters
		// but a rollup without a recipient is noise.
		t.log.WithContext(ctx).Debug("skipping rollup for unowned lead", "lead_id", change.EntityID.String())
		return nil
	}
	return t.repo.Record(ctx, change)
}

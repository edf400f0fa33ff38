package changes

import (
	"context"
	"testing"

	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingRepo struct {
	changes []Change
}

func (r *recordingRepo) Record(_ context.Context, change Change) error {
	r.changes = append(r.changes, change)
	return nil
}

func TestTrackLeadChangeRecordsUpdate(t *testing.T) {
	repo := &recordingRepo{}
	tracker := NewTracker(repo, logger.New("test"))

	tenantID, userID, leadID := uuid.New(), uuid.New(), uuid.New()
	if err := tracker.TrackLeadChange(context.Background(), tenantID, userID, leadID, "chat_message", "new chat message"); err != nil {
		t.Fatalf("TrackLeadChange: %v", err)
	}

	if len(repo.changes) != 1 {
		t.Fatalf("recorded %d changes, want 1", len(repo.changes))
	}
	got := repo.changes[0]
	if got.ChangeType != ChangeUpdated {
		t.Errorf("change type = %q, want %q", got.ChangeType, ChangeUpdated)
	}
	if got.Detail != "chat_message" {
		t.Errorf("detail = %q, want chat_message", got.Detail)
	}
	if got.Before != nil || got.After != nil {
		t.Error("plain updates carry no snapshots")
	}
	if got.EntityType != "lead" || got.EntityID != leadID {
		t.Errorf("entity = %s/%s, want lead/%s", got.EntityType, got.EntityID, leadID)
	}
}

func TestTrackLeadStatusChangeRecordsSnapshots(t *testing.T) {
	repo := &recordingRepo{}
	tracker := NewTracker(repo, logger.New("test"))

	before := map[string]any{"bant_heat": "cold", "pipeline_status": "new"}
	after := map[string]any{"bant_heat": "warm", "pipeline_status": "qualified"}
	err := tracker.TrackLeadStatusChange(context.Background(), uuid.New(), uuid.New(), uuid.New(),
		"heat_promoted", "heat promoted to warm", before, after)
	if err != nil {
		t.Fatalf("TrackLeadStatusChange: %v", err)
	}

	if len(repo.changes) != 1 {
		t.Fatalf("recorded %d changes, want 1", len(repo.changes))
	}
	got := repo.changes[0]
	if got.ChangeType != ChangeStatusChanged {
		t.Errorf("change type = %q, want %q", got.ChangeType, ChangeStatusChanged)
	}
	if got.Before["bant_heat"] != "cold" || got.After["bant_heat"] != "warm" {
		t.Errorf("snapshots = %v -> %v, want heat cold -> warm", got.Before, got.After)
	}
}

func TestTrackSkipsUnownedLead(t *testing.T) {
	repo := &recordingRepo{}
	tracker := NewTracker(repo, logger.New("test"))

	err := tracker.TrackLeadChange(context.Background(), uuid.New(), uuid.UUID{}, uuid.New(), "chat_message", "ignored")
	if err != nil {
		t.Fatalf("TrackLeadChange: %v", err)
	}
	if len(repo.changes) != 0 {
		t.Fatalf("recorded %d changes for unowned lead, want 0", len(repo.changes))
	}
}

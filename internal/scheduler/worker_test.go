package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"lead_engine_backend/internal/queue"
	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
)

type fakePreparer struct {
	due      []queue.DuePreparation
	prepared []uuid.UUID
}

func (f *fakePreparer) PrepareQueue(_ context.Context, tenantID uuid.UUID, _ time.Time) (queue.PrepareResult, error) {
	f.prepared = append(f.prepared, tenantID)
	return queue.PrepareResult{TenantID: tenantID}, nil
}

func (f *fakePreparer) DueTenants(_ context.Context, _ time.Time, _ time.Duration) ([]queue.DuePreparation, error) {
	return f.due, nil
}

type fakeEnqueuer struct {
	enqueued []QueuePreparePayload
	failFor  string
}

func (f *fakeEnqueuer) EnqueueQueuePrepare(_ context.Context, payload QueuePreparePayload, _ time.Time) error {
	if payload.TenantID == f.failFor {
		return errors.New("redis unavailable")
	}
	f.enqueued = append(f.enqueued, payload)
	return nil
}

func TestPrepareDueEnqueuesOneTaskPerDueTenant(t *testing.T) {
	forDate := time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)
	tenantA, tenantB := uuid.New(), uuid.New()

	preparer := &fakePreparer{due: []queue.DuePreparation{
		{TenantID: tenantA, ForDate: forDate},
		{TenantID: tenantB, ForDate: forDate},
	}}
	enqueuer := &fakeEnqueuer{}
	w := &Worker{enqueuer: enqueuer, preparer: preparer, log: logger.New("test")}

	if err := w.handleQueuePrepareDue(context.Background(), nil); err != nil {
		t.Fatalf("handleQueuePrepareDue: %v", err)
	}

	if len(enqueuer.enqueued) != 2 {
		t.Fatalf("enqueued %d tasks, want 2", len(enqueuer.enqueued))
	}
	if enqueuer.enqueued[0].TenantID != tenantA.String() || enqueuer.enqueued[1].TenantID != tenantB.String() {
		t.Error("each due tenant must get its own task")
	}
	if enqueuer.enqueued[0].ForDate != "2026-08-04" {
		t.Errorf("for date = %q, want 2026-08-04", enqueuer.enqueued[0].ForDate)
	}
	if len(preparer.prepared) != 0 {
		t.Error("the sweep must enqueue, not prepare inline")
	}
}

func TestPrepareDueContinuesPastEnqueueFailure(t *testing.T) {
	forDate := time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)
	failing, healthy := uuid.New(), uuid.New()

	preparer := &fakePreparer{due: []queue.DuePreparation{
		{TenantID: failing, ForDate: forDate},
		{TenantID: healthy, ForDate: forDate},
	}}
	enqueuer := &fakeEnqueuer{failFor: failing.String()}
	w := &Worker{enqueuer: enqueuer, preparer: preparer, log: logger.New("test")}

	if err := w.handleQueuePrepareDue(context.Background(), nil); err != nil {
		t.Fatalf("handleQueuePrepareDue: %v", err)
	}
	if len(enqueuer.enqueued) != 1 || enqueuer.enqueued[0].TenantID != healthy.String() {
		t.Error("a failed enqueue must not block the remaining tenants")
	}
}

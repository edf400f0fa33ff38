package scheduler

import (
	"context"
	"fmt"
	"time"

	"lead_engine_backend/internal/queue"
	"lead_engine_backend/platform/config"
	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// sweepWindow must match the cron cadence of the prepare_due task: a tenant
// is due when its preparation time fell inside the window since the last sweep.
const sweepWindow = 10 * time.Minute

// QueuePreparer is the slice of the queue service the worker drives.
type QueuePreparer interface {
	PrepareQueue(ctx context.Context, tenantID uuid.UUID, forDate time.Time) (queue.PrepareResult, error)
	DueTenants(ctx context.Context, now time.Time, sweep time.Duration) ([]queue.DuePreparation, error)
}

type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	client    *Client
	enqueuer  QueuePrepareEnqueuer
	preparer  QueuePreparer
	log       *logger.Logger
}

// NewWorker builds the asynq server, the enqueue client, the task handlers
// and the periodic prepare_due trigger.
func NewWorker(cfg config.SchedulerConfig, preparer QueuePreparer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	queueName := cfg.GetAsynqQueueName()
	if queueName == "" {
		queueName = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName: 1,
		},
	})

	periodic := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})
	if _, err := periodic.Register(cfg.GetQueuePrepareCron(), NewQueuePrepareDueTask(), asynq.Queue(queueName)); err != nil {
		return nil, fmt.Errorf("register prepare_due schedule: %w", err)
	}

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		scheduler: periodic,
		mux:       mux,
		client:    client,
		enqueuer:  client,
		preparer:  preparer,
		log:       log,
	}

	mux.HandleFunc(TaskQueuePrepare, w.handleQueuePrepare)
	mux.HandleFunc(TaskQueuePrepareDue, w.handleQueuePrepareDue)

	return w, nil
}

func (w *Worker) handleQueuePrepare(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseQueuePreparePayload(task)
	if err != nil {
		return err
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return err
	}
	forDate, err := time.Parse("2006-01-02", payload.ForDate)
	if err != nil {
		return err
	}

	result, err := w.preparer.PrepareQueue(ctx, tenantID, forDate)
	if err != nil {
		return err
	}
	if result.Skipped {
		w.log.Info("queue preparation skipped", "tenant_id", payload.TenantID, "for_date", payload.ForDate, "reason", result.Reason)
	}
	return nil
}

// handleQueuePrepareDue fans the sweep out: one queue.prepare task per due
// tenant, so a slow or failing tenant retries alone instead of re-running
// the whole sweep.
func (w *Worker) handleQueuePrepareDue(ctx context.Context, _ *asynq.Task) error {
	due, err := w.preparer.DueTenants(ctx, time.Now().UTC(), sweepWindow)
	if err != nil {
		return err
	}

	enqueued := 0
	for _, d := range due {
		payload := QueuePreparePayload{
			TenantID: d.TenantID.String(),
			ForDate:  d.ForDate.Format("2006-01-02"),
		}
		if err := w.enqueuer.EnqueueQueuePrepare(ctx, payload, time.Now()); err != nil {
			w.log.Error("enqueue queue preparation failed",
				"tenant_id", payload.TenantID,
				"for_date", payload.ForDate,
				"error", err.Error(),
			)
			continue
		}
		enqueued++
	}
	w.log.Info("due-tenant sweep complete", "tenants_due", len(due), "enqueued", enqueued)
	return nil
}

// Run starts the worker and the periodic trigger, blocking until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.scheduler.Shutdown()
		w.server.Shutdown()
		_ = w.client.Close()
	}()

	go func() {
		if err := w.scheduler.Run(); err != nil {
			w.log.Error("periodic scheduler stopped", "error", err)
		}
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

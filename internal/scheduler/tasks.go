// Package scheduler runs the background task machinery: the asynq worker,
// the periodic trigger and the task definitions.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskQueuePrepare prepares one tenant's queue for one date.
const TaskQueuePrepare = "queue.prepare"

// TaskQueuePrepareDue sweeps all tenants and enqueues a queue.prepare task
// for each whose local preparation time has arrived. Runs on a cron schedule.
const TaskQueuePrepareDue = "queue.prepare_due"

// QueuePreparePayload addresses one (tenant, date) preparation run.
type QueuePreparePayload struct {
	TenantID string `json:"tenantId"`
	ForDate  string `json:"forDate"`
}

func NewQueuePrepareTask(payload QueuePreparePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQueuePrepare, data), nil
}

func ParseQueuePreparePayload(task *asynq.Task) (QueuePreparePayload, error) {
	var payload QueuePreparePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return QueuePreparePayload{}, err
	}
	return payload, nil
}

func NewQueuePrepareDueTask() *asynq.Task {
	return asynq.NewTask(TaskQueuePrepareDue, nil)
}

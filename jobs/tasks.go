package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCatalogWarmup reloads the product catalog into the shared cache.
	TaskCatalogWarmup = "catalog:warmup"
)

// ErrUnknownTask reports a task type the worker does not serve.
var ErrUnknownTask = errors.New("unknown task")

// CatalogWarmupPayload describes why a warmup was requested.
type CatalogWarmupPayload struct {
	Reason string `json:"reason"`
}

// NewCatalogWarmupTask constructs an Asynq task.
func NewCatalogWarmupTask(reason string) (*asynq.Task, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "manual"
	}
	data, err := json.Marshal(CatalogWarmupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogWarmup, data, asynq.Queue(QueueDefault)), nil
}

// NewTask builds a task by type name for the command line trigger.
func NewTask(taskType, reason string) (*asynq.Task, error) {
	switch taskType {
	case TaskCatalogWarmup:
		return NewCatalogWarmupTask(reason)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, taskType)
	}
}

// TaskTypes lists the tasks the worker serves.
func TaskTypes() []string {
	return []string{TaskCatalogWarmup}
}

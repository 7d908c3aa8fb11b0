// Package jobs hosts background processing built on Asynq.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue used for all console tasks.
	QueueDefault = "default"

	// TaskDirectoryWarmup preloads the directory cache for one company.
	TaskDirectoryWarmup = "directory:warmup"
)

// DirectoryWarmupPayload selects what to warm. A zero CompanyID warms every
// company the directory lists.
type DirectoryWarmupPayload struct {
	CompanyID int64 `json:"company_id"`
}

// NewDirectoryWarmupTask builds the warmup task.
func NewDirectoryWarmupTask(payload DirectoryWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDirectoryWarmup, data), nil
}

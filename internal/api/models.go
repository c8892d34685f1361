package api

import (
	"github.com/phrazzld/bootui/internal/task"
	"github.com/phrazzld/bootui/internal/worker"
)

// EnqueueTaskRequest is the body of POST /api/tasks.
type EnqueueTaskRequest struct {
	Kind string `json:"kind" validate:"required,oneof=query_version install uninstall"`
}

// EnqueueTaskResponse reports the id of a scheduled task.
type EnqueueTaskResponse struct {
	ID task.ID `json:"id"`
}

// TaskListResponse wraps a registry snapshot.
type TaskListResponse struct {
	Tasks []task.Info `json:"tasks"`
	Count int         `json:"count"`
}

// StatsResponse reports worker counters and the number of retained tasks.
type StatsResponse struct {
	worker.Stats
	Tasks int `json:"tasks"`
}

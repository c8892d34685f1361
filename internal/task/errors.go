package task

import "errors"

// Registry errors
var (
	// ErrUnknownTask is returned when an id was never issued, has already been
	// released, or was released while pending. Callers treat it as "nothing
	// to wait for".
	ErrUnknownTask = errors.New("task: unknown task id")

	// ErrAlreadyCompleted is returned when a result is delivered twice.
	ErrAlreadyCompleted = errors.New("task: already completed")

	// ErrNotPrepared is returned when a task is started twice or was never
	// created by Prepare.
	ErrNotPrepared = errors.New("task: not awaiting start")

	// ErrUnknownKind is returned by ParseKind.
	ErrUnknownKind = errors.New("task: unknown kind")
)

// Queue errors
var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

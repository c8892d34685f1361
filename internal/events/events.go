package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FaultEvent reports that the worker could not reach its privileged helper.
// It is delivered out-of-band, independent of the task that triggered it.
type FaultEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Reason is the machine-readable fault reason (see task.FaultReason)
	Reason string `json:"reason"`

	// Message is a human-readable description of the failure
	Message string `json:"message"`

	// TaskID is the id of the task whose action observed the fault
	TaskID int32 `json:"task_id"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewFaultEvent creates a FaultEvent for the given reason, observed by taskID.
func NewFaultEvent(reason, message string, taskID int32) *FaultEvent {
	return &FaultEvent{
		ID:        uuid.New(),
		Reason:    reason,
		Message:   message,
		TaskID:    taskID,
		CreatedAt: time.Now(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *FaultEvent) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *FaultEvent) error
}

// HandlerFunc adapts a plain function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *FaultEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *FaultEvent) error {
	return f(ctx, event)
}

package task

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/bootui/internal/events"
)

// FaultEventHandler implements events.EventHandler by forwarding helper
// connection faults to every listener of an in-flight task.
type FaultEventHandler struct {
	registry *Registry
	logger   *slog.Logger
}

// NewFaultEventHandler creates a handler that broadcasts faults through registry.
func NewFaultEventHandler(registry *Registry, logger *slog.Logger) *FaultEventHandler {
	return &FaultEventHandler{
		registry: registry,
		logger:   logger.With("component", "fault_event_handler"),
	}
}

// HandleEvent converts the event into a Fault and hands it to the registry.
func (h *FaultEventHandler) HandleEvent(ctx context.Context, event *events.FaultEvent) error {
	if event == nil || event.Reason == "" {
		return errors.New("fault event without reason")
	}

	notified := h.registry.Fault(Fault{
		Reason:  FaultReason(event.Reason),
		Message: event.Message,
	})

	h.logger.Debug("fault event forwarded",
		"event_id", event.ID,
		"reason", event.Reason,
		"observed_by_task", event.TaskID,
		"listener_count", notified)
	return nil
}

// Ensure FaultEventHandler implements events.EventHandler
var _ events.EventHandler = (*FaultEventHandler)(nil)

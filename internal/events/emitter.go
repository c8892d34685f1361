package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrInvalidEvent is returned by FaultBus.EmitEvent for a nil event or one
// without a reason.
var ErrInvalidEvent = errors.New("events: invalid fault event")

// FaultBus fans helper connection faults out to its subscribers in
// subscription order. Every subscriber sees every fault, even when an
// earlier one fails.
type FaultBus struct {
	mu          sync.RWMutex
	subscribers []EventHandler
	emitted     atomic.Int64
	logger      *slog.Logger
}

// NewFaultBus creates a bus with no subscribers.
func NewFaultBus(logger *slog.Logger) *FaultBus {
	return &FaultBus{logger: logger.With("component", "fault_bus")}
}

// Subscribe adds h to the bus.
func (b *FaultBus) Subscribe(h EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, h)
}

// EmitEvent delivers event to every subscriber and joins their errors.
// A fault nobody subscribed to is logged and dropped.
func (b *FaultBus) EmitEvent(ctx context.Context, event *FaultEvent) error {
	if event == nil || event.Reason == "" {
		return ErrInvalidEvent
	}

	b.mu.RLock()
	subscribers := append([]EventHandler(nil), b.subscribers...)
	b.mu.RUnlock()

	b.emitted.Add(1)
	if len(subscribers) == 0 {
		b.logger.Warn("fault dropped, no subscribers",
			"reason", event.Reason,
			"task_id", event.TaskID)
		return nil
	}

	var errs []error
	for i, h := range subscribers {
		if err := h.HandleEvent(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("subscriber %d: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		b.logger.Error("fault not fully delivered",
			"event_id", event.ID,
			"reason", event.Reason,
			"error", err)
		return err
	}
	return nil
}

// Emitted returns the number of valid faults emitted so far.
func (b *FaultBus) Emitted() int64 {
	return b.emitted.Load()
}

var _ EventEmitter = (*FaultBus)(nil)

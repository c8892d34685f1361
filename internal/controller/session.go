package controller

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/bootui/internal/task"
)

// Connectable is the worker handle a controller attaches to.
type Connectable interface {
	Prepare(kind task.Kind) task.ID
	Start(id task.ID) error
	AddListener(id task.ID, l task.Listener) error
	RemoveListener(id task.ID, l task.Listener) error
	Release(id task.ID) error
}

// Session is one connection between a controller and a worker. It is also
// the listener handle registered on the controller's tasks: a fresh Session
// per connection means the registry's at-most-once bookkeeping starts over
// for every reconnect, while callbacks queued for an old Session are dropped.
type Session struct {
	id     uuid.UUID
	ctrl   *Controller
	worker Connectable
	logger *slog.Logger

	// active is only read and written on the controller's home goroutine.
	active bool
}

var _ task.Listener = (*Session)(nil)

func newSession(ctrl *Controller, worker Connectable) *Session {
	id := uuid.New()
	return &Session{
		id:     id,
		ctrl:   ctrl,
		worker: worker,
		logger: ctrl.logger.With("session_id", id.String()),
	}
}

// ID identifies the session in logs.
func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) Home() task.Executor {
	return s.ctrl.home
}

func (s *Session) OnTaskResult(id task.ID, result task.Result) {
	if !s.active {
		s.logger.Debug("dropping result for inactive session", "task_id", id)
		return
	}
	s.ctrl.onTaskResult(id, result)
}

func (s *Session) OnConnectionFault(id task.ID, fault task.Fault) {
	if !s.active {
		s.logger.Debug("dropping fault for inactive session", "task_id", id)
		return
	}
	s.ctrl.onConnectionFault(id, fault)
}

// establish drains deferred releases and re-registers every outstanding
// slot. Slots whose task the worker no longer knows are cleared.
func (s *Session) establish(slots *Slots, pendingRelease *[]task.ID) {
	for _, id := range *pendingRelease {
		if err := s.worker.Release(id); err != nil && !errors.Is(err, task.ErrUnknownTask) {
			s.logger.Warn("failed to release task", "task_id", id, "error", err)
		}
	}
	if n := len(*pendingRelease); n > 0 {
		s.logger.Debug("drained deferred releases", "count", n)
	}
	*pendingRelease = nil

	s.active = true

	slots.each(func(slot *task.ID) {
		if !slot.Valid() {
			return
		}
		if err := s.worker.AddListener(*slot, s); err != nil {
			if !errors.Is(err, task.ErrUnknownTask) {
				s.logger.Warn("failed to re-register task", "task_id", *slot, "error", err)
			}
			s.logger.Debug("clearing slot for unknown task", "task_id", *slot)
			*slot = task.InvalidID
		}
	})
}

// teardown stops listening on every outstanding slot. Tasks are left alone.
func (s *Session) teardown(slots *Slots) {
	s.active = false
	slots.each(func(slot *task.ID) {
		if !slot.Valid() {
			return
		}
		if err := s.worker.RemoveListener(*slot, s); err != nil && !errors.Is(err, task.ErrUnknownTask) {
			s.logger.Warn("failed to detach from task", "task_id", *slot, "error", err)
		}
	})
}

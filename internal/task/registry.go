package task

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// entry is the registry's private record of one task.
type entry struct {
	id          ID
	kind        Kind
	status      Status
	started     bool
	released    bool
	result      Result
	listeners   []Listener
	delivered   map[Listener]struct{}
	createdAt   time.Time
	completedAt time.Time
}

func (e *entry) hasListener(l Listener) bool {
	for _, existing := range e.listeners {
		if existing == l {
			return true
		}
	}
	return false
}

func (e *entry) info() Info {
	info := Info{
		ID:          e.id,
		Kind:        e.kind.String(),
		Status:      e.status,
		Released:    e.released,
		Listeners:   len(e.listeners),
		CreatedAt:   e.createdAt,
		CompletedAt: e.completedAt,
	}
	if e.status == StatusCompleted {
		result := e.result
		info.Result = &result
	}
	return info
}

// notification is a callback computed under the registry lock and posted to
// the listener's home executor after the lock is released.
type notification struct {
	listener Listener
	run      func()
}

// Registry is the authoritative, worker-owned store of tasks and their
// listeners. All operations are serialized by a single mutex, so no two
// operations on the same task ever interleave.
type Registry struct {
	mu     sync.Mutex
	nextID ID
	tasks  map[ID]*entry
	now    func() time.Time
	logger *slog.Logger
}

// NewRegistry creates an empty registry. Ids start at zero.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		tasks:  make(map[ID]*entry),
		now:    time.Now,
		logger: logger.With("component", "task_registry"),
	}
}

// Create registers a new pending task of the given kind and returns its id.
// The task is not scheduled; the worker does that once the caller has had a
// chance to attach its listener.
func (r *Registry) Create(kind Kind) ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.tasks[id] = &entry{
		id:        id,
		kind:      kind,
		status:    StatusPending,
		delivered: make(map[Listener]struct{}),
		createdAt: r.now(),
	}

	r.logger.Debug("task created", "task_id", id, "task_kind", kind)
	return id
}

// MarkStarted records that the task's job has been handed to the queue.
func (r *Registry) MarkStarted(id ID) (Kind, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tasks[id]
	if !ok {
		return 0, ErrUnknownTask
	}
	if e.started || e.status != StatusPending {
		return 0, ErrNotPrepared
	}
	e.started = true
	return e.kind, nil
}

// AddListener attaches l to the task. If the task has already completed and l
// has not yet seen the result, the result is posted to l immediately through
// the same callback used for asynchronous delivery.
//
// ErrUnknownTask is returned for ids that were never issued or have been
// released, including tasks released while still pending.
func (r *Registry) AddListener(id ID, l Listener) error {
	r.mu.Lock()
	e, ok := r.tasks[id]
	if !ok || e.released {
		r.mu.Unlock()
		return ErrUnknownTask
	}

	if !e.hasListener(l) {
		e.listeners = append(e.listeners, l)
	}

	var pending []notification
	if e.status == StatusCompleted {
		if _, seen := e.delivered[l]; !seen {
			e.delivered[l] = struct{}{}
			pending = append(pending, resultNotification(l, id, e.result))
		}
	}
	r.mu.Unlock()

	r.dispatch(pending)
	return nil
}

// RemoveListener detaches l from the task. The task itself is unaffected.
func (r *Registry) RemoveListener(id ID, l Listener) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tasks[id]
	if !ok {
		return ErrUnknownTask
	}
	for i, existing := range e.listeners {
		if existing == l {
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			break
		}
	}
	return nil
}

// Release tells the registry nobody needs the task's result any more.
//
// A completed task is destroyed immediately. A pending task keeps running,
// since actions cannot be interrupted, but its result is discarded on
// completion instead of being delivered. A task that was prepared but never
// started is destroyed at once because nothing will ever complete it.
func (r *Registry) Release(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tasks[id]
	if !ok || e.released {
		return ErrUnknownTask
	}

	switch {
	case e.status == StatusCompleted, !e.started:
		delete(r.tasks, id)
		r.logger.Debug("task released", "task_id", id, "task_kind", e.kind)
	default:
		e.released = true
		e.listeners = nil
		r.logger.Debug("pending task marked for release", "task_id", id, "task_kind", e.kind)
	}
	return nil
}

// Deliver completes the task with result and notifies every attached listener
// exactly once. It is called by the worker when an action finishes.
func (r *Registry) Deliver(id ID, result Result) error {
	r.mu.Lock()
	e, ok := r.tasks[id]
	if !ok {
		r.mu.Unlock()
		return ErrUnknownTask
	}
	if e.status == StatusCompleted {
		r.mu.Unlock()
		return ErrAlreadyCompleted
	}

	e.status = StatusCompleted
	e.result = result
	e.completedAt = r.now()

	if e.released {
		delete(r.tasks, id)
		r.mu.Unlock()
		r.logger.Debug("discarded result of released task", "task_id", id, "task_kind", e.kind)
		return nil
	}

	pending := make([]notification, 0, len(e.listeners))
	for _, l := range e.listeners {
		if _, seen := e.delivered[l]; seen {
			continue
		}
		e.delivered[l] = struct{}{}
		pending = append(pending, resultNotification(l, id, result))
	}
	r.mu.Unlock()

	r.logger.Debug("task completed",
		"task_id", id,
		"task_kind", e.kind,
		"listener_count", len(pending),
		"faulted", result.Faulted())
	r.dispatch(pending)
	return nil
}

// Fault posts fault to every distinct listener attached to a task that is
// still in flight. It returns the number of listeners notified.
func (r *Registry) Fault(fault Fault) int {
	r.mu.Lock()
	ids := make([]ID, 0, len(r.tasks))
	for id := range r.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	seen := make(map[Listener]struct{})
	var pending []notification
	for _, id := range ids {
		e := r.tasks[id]
		if e.status != StatusPending || e.released {
			continue
		}
		for _, l := range e.listeners {
			if _, dup := seen[l]; dup {
				continue
			}
			seen[l] = struct{}{}
			pending = append(pending, faultNotification(l, id, fault))
		}
	}
	r.mu.Unlock()

	r.logger.Info("connection fault broadcast",
		"reason", fault.Reason,
		"listener_count", len(pending))
	r.dispatch(pending)
	return len(pending)
}

// Get returns a snapshot of one task.
func (r *Registry) Get(id ID) (Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tasks[id]
	if !ok {
		return Info{}, ErrUnknownTask
	}
	return e.info(), nil
}

// Snapshot returns every task the registry still holds, ordered by id.
func (r *Registry) Snapshot() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Info, 0, len(r.tasks))
	for _, e := range r.tasks {
		out = append(out, e.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of tasks currently held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

func (r *Registry) dispatch(pending []notification) {
	for _, n := range pending {
		home := n.listener.Home()
		if home == nil {
			n.run()
			continue
		}
		if !home.Post(n.run) {
			r.logger.Debug("listener executor rejected callback")
		}
	}
}

func resultNotification(l Listener, id ID, result Result) notification {
	return notification{
		listener: l,
		run:      func() { l.OnTaskResult(id, result) },
	}
}

func faultNotification(l Listener, id ID, fault Fault) notification {
	return notification{
		listener: l,
		run:      func() { l.OnConnectionFault(id, fault) },
	}
}

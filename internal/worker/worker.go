// Package worker is the long-lived side of the boot UI task protocol. It
// owns the task registry, runs actions on a goroutine pool and broadcasts
// helper connection faults to whoever is listening.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/phrazzld/bootui/internal/events"
	"github.com/phrazzld/bootui/internal/helper"
	"github.com/phrazzld/bootui/internal/task"
	"github.com/phrazzld/bootui/internal/version"
)

// Config sizes a Worker.
type Config struct {
	// Count is the number of goroutines executing actions.
	Count int
	// QueueSize bounds the number of started actions waiting for a goroutine.
	QueueSize int
	// Build is the boot UI version installed by KindInstall.
	Build *version.Version
}

var errStopped = errors.New("worker stopped")

// Stats counts finished actions.
type Stats struct {
	Completed int64 `json:"completed"`
	Faulted   int64 `json:"faulted"`
}

// Worker executes boot UI actions in the background.
type Worker struct {
	registry *task.Registry
	queue    *task.Queue
	pool     *task.WorkerPool
	client   helper.Client
	emitter  events.EventEmitter
	build    *version.Version
	logger   *slog.Logger

	completed atomic.Int64
	faulted   atomic.Int64
}

// New wires a worker around client. Call Run to start executing actions.
func New(cfg Config, client helper.Client, logger *slog.Logger) *Worker {
	logger = logger.With("component", "worker")

	registry := task.NewRegistry(logger)
	emitter := events.NewFaultBus(logger)
	emitter.Subscribe(task.NewFaultEventHandler(registry, logger))

	queue := task.NewQueue(cfg.QueueSize, logger)
	pool := task.NewWorkerPool(queue, task.WorkerPoolConfig{WorkerCount: cfg.Count}, logger)

	build := cfg.Build
	if build == nil {
		build = version.Current()
	}

	w := &Worker{
		registry: registry,
		queue:    queue,
		pool:     pool,
		client:   client,
		emitter:  emitter,
		build:    build,
		logger:   logger,
	}
	pool.SetErrorHandler(w.onJobError)
	return w
}

// Run starts the goroutine pool.
func (w *Worker) Run() {
	w.pool.Start()
}

// Stop waits for running actions to finish and stops accepting new ones.
// Actions still queued never run; their tasks complete with a
// ReasonWorkerUnavailable fault.
func (w *Worker) Stop() {
	w.pool.Stop()
	w.queue.Close()
	for job := range w.queue.Jobs() {
		w.abandon(job.TaskID(), job.Kind(), errStopped)
	}
}

// Registry exposes the task registry for read-only views.
func (w *Worker) Registry() *task.Registry {
	return w.registry
}

// Tasks returns a snapshot of every task the worker holds.
func (w *Worker) Tasks() []task.Info {
	return w.registry.Snapshot()
}

// Task returns a snapshot of task id.
func (w *Worker) Task(id task.ID) (task.Info, error) {
	return w.registry.Get(id)
}

// Stats returns counters of finished actions.
func (w *Worker) Stats() Stats {
	return Stats{
		Completed: w.completed.Load(),
		Faulted:   w.faulted.Load(),
	}
}

// Enqueue creates a task for kind and schedules it. It never blocks on the
// action itself.
func (w *Worker) Enqueue(ctx context.Context, kind task.Kind) (task.ID, error) {
	if err := ctx.Err(); err != nil {
		return task.InvalidID, err
	}
	id := w.Prepare(kind)
	if err := w.Start(id); err != nil {
		return id, err
	}
	return id, nil
}

// Prepare creates a pending task without scheduling it, so the caller can
// attach a listener first.
func (w *Worker) Prepare(kind task.Kind) task.ID {
	return w.registry.Create(kind)
}

// Start schedules a prepared task. If the queue refuses the job the task is
// completed at once with a ReasonWorkerUnavailable fault, so listeners are
// never left waiting.
func (w *Worker) Start(id task.ID) error {
	kind, err := w.registry.MarkStarted(id)
	if err != nil {
		return err
	}

	if err := w.queue.Enqueue(&actionJob{id: id, kind: kind, worker: w}); err != nil {
		w.logger.Error("failed to schedule task", "task_id", id, "task_kind", kind, "error", err)
		w.abandon(id, kind, err)
		return fmt.Errorf("schedule task %d: %w", id, err)
	}
	return nil
}

// abandon completes a task whose action will never run.
func (w *Worker) abandon(id task.ID, kind task.Kind, cause error) {
	fault := task.Fault{Reason: task.ReasonWorkerUnavailable, Message: cause.Error()}
	w.faulted.Add(1)
	if err := w.registry.Deliver(id, task.Result{Kind: kind, Fault: &fault}); err != nil {
		w.logger.Error("failed to complete abandoned task", "task_id", id, "error", err)
	}
}

// AddListener attaches l to task id.
func (w *Worker) AddListener(id task.ID, l task.Listener) error {
	return w.registry.AddListener(id, l)
}

// RemoveListener detaches l from task id.
func (w *Worker) RemoveListener(id task.ID, l task.Listener) error {
	return w.registry.RemoveListener(id, l)
}

// Release tells the worker nobody needs task id any more.
func (w *Worker) Release(id task.ID) error {
	return w.registry.Release(id)
}

// broadcastFault turns err into a Fault and emits it to every listener of an
// in-flight task.
func (w *Worker) broadcastFault(ctx context.Context, id task.ID, kind task.Kind, err error) task.Fault {
	var connErr *helper.ConnectionError
	if !errors.As(err, &connErr) {
		connErr = &helper.ConnectionError{Reason: task.ReasonProtocol, Op: kind.String(), Err: err}
	}
	fault := connErr.Fault()

	event := events.NewFaultEvent(string(fault.Reason), fault.Message, int32(id))
	if emitErr := w.emitter.EmitEvent(ctx, event); emitErr != nil {
		w.logger.Error("failed to broadcast connection fault",
			"task_id", id,
			"reason", fault.Reason,
			"error", emitErr)
	}
	return fault
}

func (w *Worker) onJobError(job task.Job, err error) {
	w.logger.Debug("action finished with error",
		"task_id", job.TaskID(),
		"task_kind", job.Kind(),
		"error", err)
}

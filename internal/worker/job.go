package worker

import (
	"context"
	"fmt"

	"github.com/phrazzld/bootui/internal/task"
)

// actionJob runs one boot UI action and completes its task.
type actionJob struct {
	id     task.ID
	kind   task.Kind
	worker *Worker
}

var _ task.Job = (*actionJob)(nil)

func (j *actionJob) TaskID() task.ID { return j.id }

func (j *actionJob) Kind() task.Kind { return j.kind }

// Execute calls the helper and delivers exactly one result. Helper failures
// are broadcast as faults and also complete the task with a faulted result.
func (j *actionJob) Execute(ctx context.Context) (err error) {
	w := j.worker
	delivered := false

	defer func() {
		if r := recover(); r != nil {
			if !delivered {
				fault := w.broadcastFault(ctx, j.id, j.kind, fmt.Errorf("action panicked: %v", r))
				j.deliver(task.Result{Kind: j.kind, Fault: &fault})
			}
			panic(r)
		}
	}()

	result := task.Result{Kind: j.kind}
	var actionErr error
	switch j.kind {
	case task.KindQueryVersion:
		result.Version, actionErr = w.client.GetVersion(ctx)
	case task.KindInstall:
		result.Success, actionErr = w.client.Install(ctx, w.build)
	case task.KindUninstall:
		result.Success, actionErr = w.client.Uninstall(ctx)
	default:
		actionErr = fmt.Errorf("unknown task kind %d", j.kind)
	}

	if actionErr != nil {
		fault := w.broadcastFault(ctx, j.id, j.kind, actionErr)
		result = task.Result{Kind: j.kind, Fault: &fault}
	}

	delivered = true
	if err := j.deliver(result); err != nil {
		return err
	}
	return actionErr
}

func (j *actionJob) deliver(result task.Result) error {
	w := j.worker
	if result.Faulted() {
		w.faulted.Add(1)
	} else {
		w.completed.Add(1)
	}
	if err := w.registry.Deliver(j.id, result); err != nil {
		return fmt.Errorf("deliver result of task %d: %w", j.id, err)
	}
	return nil
}

package task

import (
	"context"
	"fmt"
	"time"

	"github.com/phrazzld/bootui/internal/version"
)

// ID identifies one action invocation. Ids are assigned monotonically by a
// Registry and never reused while that registry is alive.
type ID int32

// InvalidID is the "no task" sentinel stored in empty controller slots.
const InvalidID ID = -1

// Valid reports whether id refers to an issued task.
func (id ID) Valid() bool {
	return id >= 0
}

// Kind discriminates the action a task performs.
type Kind int

// Supported actions
const (
	KindQueryVersion Kind = iota
	KindInstall
	KindUninstall
)

// String returns the task kind identifier
func (k Kind) String() string {
	switch k {
	case KindQueryVersion:
		return "query_version"
	case KindInstall:
		return "install"
	case KindUninstall:
		return "uninstall"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "query_version":
		return KindQueryVersion, nil
	case "install":
		return KindInstall, nil
	case "uninstall":
		return KindUninstall, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Status represents the current state of a task
type Status string

// Possible task status values
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// FaultReason classifies why the worker could not reach its privileged helper.
type FaultReason string

// Connection fault reasons
const (
	ReasonHelperUnreachable   FaultReason = "helper_unreachable"
	ReasonHelperUnauthorized  FaultReason = "helper_unauthorized"
	ReasonHelperVersionTooOld FaultReason = "helper_version_too_old"
	ReasonProtocol            FaultReason = "protocol_error"
	// ReasonWorkerUnavailable means the worker could not schedule the action.
	ReasonWorkerUnavailable FaultReason = "worker_unavailable"
)

// Fault describes a connection-level failure between the worker and its
// privileged helper. It is not a task result.
type Fault struct {
	Reason  FaultReason `json:"reason"`
	Message string      `json:"message,omitempty"`
}

func (f Fault) String() string {
	if f.Message == "" {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Message)
}

// Result is the outcome of one action.
//
// For KindQueryVersion, Version is nil when the boot UI is not installed.
// For KindInstall and KindUninstall, Success reports the outcome. Fault is
// set when the action could not reach the helper at all.
type Result struct {
	Kind    Kind             `json:"kind"`
	Version *version.Version `json:"version,omitempty"`
	Success bool             `json:"success"`
	Fault   *Fault           `json:"fault,omitempty"`
}

// Faulted reports whether the action failed to reach the helper.
func (r Result) Faulted() bool {
	return r.Fault != nil
}

// Executor runs posted functions on a designated goroutine.
type Executor interface {
	// Post schedules fn and returns immediately. It reports false if the
	// executor no longer accepts work.
	Post(fn func()) bool
}

// Listener is the callback surface a controller registers against a task.
// Registry compares listeners by identity, so implementations should use
// pointer receivers.
type Listener interface {
	// Home is the executor callbacks are posted to. A nil Home means the
	// callbacks run inline on the registry caller's goroutine.
	Home() Executor

	// OnTaskResult receives the task's result, at most once per listener.
	OnTaskResult(id ID, result Result)

	// OnConnectionFault receives out-of-band helper connection failures
	// observed while id was in flight.
	OnConnectionFault(id ID, fault Fault)
}

// Job is a unit of background work consumed by the WorkerPool.
type Job interface {
	// TaskID returns the task the job belongs to
	TaskID() ID

	// Kind returns the action the job performs
	Kind() Kind

	// Execute runs the job logic
	Execute(ctx context.Context) error
}

// Info is a read-only snapshot of a task.
type Info struct {
	ID          ID        `json:"id"`
	Kind        string    `json:"kind"`
	Status      Status    `json:"status"`
	Released    bool      `json:"released"`
	Listeners   int       `json:"listeners"`
	Result      *Result   `json:"result,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

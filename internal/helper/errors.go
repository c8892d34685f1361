package helper

import (
	"errors"
	"fmt"

	"github.com/phrazzld/bootui/internal/redact"
	"github.com/phrazzld/bootui/internal/task"
)

var (
	// ErrProtocolTooOld means the daemon speaks an older protocol than required.
	ErrProtocolTooOld = errors.New("helper protocol too old")

	// ErrUnexpectedStatus means the daemon answered with an unexpected HTTP status.
	ErrUnexpectedStatus = errors.New("unexpected helper response status")

	// ErrNotInstalled is returned by an Installer asked to remove nothing.
	ErrNotInstalled = errors.New("boot UI is not installed")
)

// ConnectionError reports that the worker could not complete a call to the
// helper daemon. Reason classifies the failure for the controller.
type ConnectionError struct {
	Reason task.FaultReason
	Op     string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("helper %s: %s: %v", e.Op, e.Reason, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Fault converts the error to the fault delivered to listeners. The message
// is redacted since it may end up on screen.
func (e *ConnectionError) Fault() task.Fault {
	return task.Fault{
		Reason:  e.Reason,
		Message: redact.Error(e.Err),
	}
}

func connErr(op string, reason task.FaultReason, err error) *ConnectionError {
	return &ConnectionError{Reason: reason, Op: op, Err: err}
}

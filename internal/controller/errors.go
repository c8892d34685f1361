package controller

import "errors"

var (
	// ErrInvalidInput means a preference value was rejected; the previous
	// value is kept.
	ErrInvalidInput = errors.New("controller: invalid input")

	// ErrNotConnected means the controller has no worker attached.
	ErrNotConnected = errors.New("controller: not connected to worker")

	// ErrActionInProgress means the slot for the action already holds a task.
	ErrActionInProgress = errors.New("controller: action already in progress")

	// ErrAlreadyAttached means Restore was called while attached.
	ErrAlreadyAttached = errors.New("controller: already attached")

	// ErrDestroyed means the controller has been destroyed or shut down.
	ErrDestroyed = errors.New("controller: destroyed")
)

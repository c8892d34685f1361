package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/bootui/internal/service/auth"
	"github.com/phrazzld/bootui/internal/task"
)

// errInvalidID is returned when a task id path parameter does not parse.
var errInvalidID = errors.New("invalid task id")

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrWrongScope):
		return http.StatusUnauthorized

	case errors.Is(err, task.ErrUnknownTask):
		return http.StatusNotFound

	case errors.Is(err, task.ErrUnknownKind),
		errors.Is(err, errInvalidID):
		return http.StatusBadRequest

	case errors.Is(err, task.ErrNotPrepared),
		errors.Is(err, task.ErrAlreadyCompleted):
		return http.StatusConflict

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrWrongScope):
		return "Invalid token"

	case errors.Is(err, task.ErrUnknownTask):
		return "Task not found"

	case errors.Is(err, task.ErrUnknownKind):
		return "Unknown task kind"

	case errors.Is(err, errInvalidID):
		return "Invalid task id"

	case errors.Is(err, task.ErrNotPrepared),
		errors.Is(err, task.ErrAlreadyCompleted):
		return "Task is not in a valid state for this operation"

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return "Worker is busy, try again later"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a validator error into a short message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example: "Key: 'EnqueueTaskRequest.Kind' Error:Field validation for 'Kind' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/bootui/internal/task"
)

// getPathTaskID extracts a task id from the URL path parameters.
func getPathTaskID(r *http.Request, paramName string) (task.ID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return task.InvalidID, fmt.Errorf("%w: %s is required", errInvalidID, paramName)
	}

	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n < 0 {
		return task.InvalidID, fmt.Errorf("%w: %q", errInvalidID, raw)
	}
	return task.ID(n), nil
}

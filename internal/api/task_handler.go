package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/bootui/internal/api/shared"
	"github.com/phrazzld/bootui/internal/platform/logger"
	"github.com/phrazzld/bootui/internal/task"
	"github.com/phrazzld/bootui/internal/worker"
)

// TaskService is the part of the worker the handlers use.
type TaskService interface {
	Enqueue(ctx context.Context, kind task.Kind) (task.ID, error)
	Release(id task.ID) error
	Tasks() []task.Info
	Task(id task.ID) (task.Info, error)
	Stats() worker.Stats
}

var _ TaskService = (*worker.Worker)(nil)

// TaskHandler handles task HTTP requests.
type TaskHandler struct {
	tasks  TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /api/tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	infos := h.tasks.Tasks()
	if infos == nil {
		infos = []task.Info{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: infos, Count: len(infos)})
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathTaskID(r, "id")
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	info, err := h.tasks.Task(id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, info)
}

// EnqueueTask handles POST /api/tasks. The action runs in the background;
// poll GET /api/tasks/{id} for its result.
func (h *TaskHandler) EnqueueTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req EnqueueTaskRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	kind, err := task.ParseKind(req.Kind)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	id, err := h.tasks.Enqueue(r.Context(), kind)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("task enqueued over api", "task_id", id, "task_kind", kind)
	shared.RespondWithJSON(w, r, http.StatusAccepted, EnqueueTaskResponse{ID: id})
}

// ReleaseTask handles DELETE /api/tasks/{id}.
func (h *TaskHandler) ReleaseTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathTaskID(r, "id")
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if err := h.tasks.Release(id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStats handles GET /api/stats.
func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, StatsResponse{
		Stats: h.tasks.Stats(),
		Tasks: len(h.tasks.Tasks()),
	})
}

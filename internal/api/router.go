package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/bootui/internal/api/middleware"
	"github.com/phrazzld/bootui/internal/service/auth"
)

// NewRouter builds the worker status API. When jwtService is nil the /api
// routes are served without authentication.
func NewRouter(tasks TaskService, jwtService auth.JWTService, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))
	r.Use(middleware.Recoverer)

	taskHandler := NewTaskHandler(tasks, logger)

	r.Route("/api", func(r chi.Router) {
		if jwtService != nil {
			r.Use(apiMiddleware.NewAuthMiddleware(jwtService).Authenticate)
		}
		r.Get("/tasks", taskHandler.ListTasks)
		r.Post("/tasks", taskHandler.EnqueueTask)
		r.Get("/tasks/{id}", taskHandler.GetTask)
		r.Delete("/tasks/{id}", taskHandler.ReleaseTask)
		r.Get("/stats", taskHandler.GetStats)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}

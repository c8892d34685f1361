package helper

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/bootui/internal/api/middleware"
	"github.com/phrazzld/bootui/internal/api/shared"
	"github.com/phrazzld/bootui/internal/platform/logger"
	"github.com/phrazzld/bootui/internal/redact"
	"github.com/phrazzld/bootui/internal/service/auth"
	"github.com/phrazzld/bootui/internal/version"
)

// Server is the helper daemon's HTTP surface.
type Server struct {
	installer  Installer
	jwtService auth.JWTService
	logger     *slog.Logger

	// actions serializes install and uninstall.
	actions sync.Mutex
}

// NewServer creates a daemon server backed by installer.
func NewServer(installer Installer, jwtService auth.JWTService, logger *slog.Logger) *Server {
	return &Server{
		installer:  installer,
		jwtService: jwtService,
		logger:     logger.With("component", "helper_server"),
	}
}

// Routes returns the daemon's router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.NewTraceMiddleware(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(advertiseProtocol)

	r.Get(PathHealth, func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	authMiddleware := middleware.NewAuthMiddleware(s.jwtService)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Get(PathVersion, s.handleVersion)
		r.Post(PathInstall, s.handleInstall)
		r.Post(PathUninstall, s.handleUninstall)
	})

	return r
}

func advertiseProtocol(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(ProtocolHeader, strconv.Itoa(ProtocolVersion))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	v, err := s.installer.Installed(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to read installed version", err)
		return
	}

	resp := VersionResponse{Installed: v != nil}
	if v != nil {
		resp.Version = v.String()
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	var req InstallRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request", err)
		return
	}
	build, err := version.Parse(req.Build)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid build version", err)
		return
	}

	s.actions.Lock()
	err = s.installer.Install(r.Context(), build)
	s.actions.Unlock()

	s.respondAction(w, r, "install", err)
}

func (s *Server) handleUninstall(w http.ResponseWriter, r *http.Request) {
	s.actions.Lock()
	err := s.installer.Uninstall(r.Context())
	s.actions.Unlock()

	s.respondAction(w, r, "uninstall", err)
}

func (s *Server) respondAction(w http.ResponseWriter, r *http.Request, op string, err error) {
	log := logger.FromContext(r.Context())
	subject, _ := shared.GetSubject(r.Context())

	if err != nil {
		log.Warn("boot UI action failed", "op", op, "subject", subject, "error", redact.Error(err))
		shared.RespondWithJSON(w, r, http.StatusOK, ActionResponse{Success: false, Error: redact.Error(err)})
		return
	}
	log.Info("boot UI action succeeded", "op", op, "subject", subject)
	shared.RespondWithJSON(w, r, http.StatusOK, ActionResponse{Success: true})
}

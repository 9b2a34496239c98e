package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bibleref/internal/api"
	"bibleref/internal/config"
	"bibleref/internal/logging"
	"bibleref/internal/services"
)

const maxRequestBody = 64 << 10

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}
	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(cfg.Paths.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(authMiddleware(token))
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/queue", s.handleQueue)
		r.Post("/migrations", s.handleMigrate)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error",
				logging.Error(err),
				logging.Event("api_server_failed"),
				logging.String(logging.FieldErrorHint, "check paths.api_bind"),
			)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// addr returns the bound listener address, or "" before start.
func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, daemonStatusDTO(s.daemon.Status()))
}

func (s *apiServer) handleQueue(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.QueueListResponse{Tasks: api.FromTasks(s.daemon.QueueTasks())})
}

func (s *apiServer) handleMigrate(w http.ResponseWriter, r *http.Request) {
	var req api.MigrateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx := services.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
	task, created, err := s.daemon.Migrate(ctx, req.EntityID, req.OldID, req.NewID)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case services.IsClientError(err):
			status = http.StatusBadRequest
		case services.IsRetryable(err):
			status = http.StatusServiceUnavailable
		}
		if status != http.StatusBadRequest {
			logging.WithContext(ctx, s.logger).Error("migration request failed",
				logging.Error(err),
				logging.Event("api_migrate_failed"),
				logging.String(logging.FieldErrorHint, "check the state directory is writable"),
			)
		}
		writeError(w, status, err.Error())
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusAccepted
	}
	writeJSON(w, status, api.MigrateResponse{Task: api.FromTask(&task), Created: created})
}

func daemonStatusDTO(status Status) api.DaemonStatus {
	return api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		VaultDir:     status.VaultDir,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		Migration:    api.FromMigrationStatus(status.Migration),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}

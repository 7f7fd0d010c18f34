// Package httpapi exposes the service over HTTP with JSON bodies: the users
// resource, the migrations operation, and the status endpoint.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/devlogging/backend/internal/logging"
	"github.com/devlogging/backend/internal/server/migrations"
	"github.com/devlogging/backend/internal/server/services"
)

// OpenDBFunc opens a fresh, caller-owned database handle. The migrations
// endpoint uses it to get one scoped connection per request.
type OpenDBFunc func(ctx context.Context) (*sql.DB, error)

type Server struct {
	address         string
	logger          logging.Logger
	users           *services.UserService
	status          *services.StatusService
	runner          *migrations.Runner
	openDB          OpenDBFunc
	shutdownTimeout time.Duration
}

func NewServer(address string, l logging.Logger, us *services.UserService, ss *services.StatusService, runner *migrations.Runner, openDB OpenDBFunc, shutdownTimeout time.Duration) *Server {
	return &Server{
		address:         address,
		logger:          l.With("module", "httpapi"),
		users:           us,
		status:          ss,
		runner:          runner,
		openDB:          openDB,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Routes(),
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return err
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(r.Context(), "response encode error", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponseFor(err)
	if resp.StatusCode >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "request_id", requestID(r.Context()), "error", err)
	}
	s.writeJSON(w, r, resp.StatusCode, resp)
}

func (s *Server) writeMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusMethodNotAllowed, methodNotAllowedError)
}

// Package server exposes design editing over HTTP.
//
// Clients open a session, mutate its design with edit scripts, and ask for
// validation, generated code and diagrams. Sessions can be loaded from and
// saved to a storage backend.
//
// # Routes
//
//	GET    /healthz
//	GET    /metrics
//	GET    /api/v1/sessions
//	POST   /api/v1/sessions
//	GET    /api/v1/sessions/{id}
//	DELETE /api/v1/sessions/{id}
//	POST   /api/v1/sessions/{id}/apply
//	POST   /api/v1/sessions/{id}/undo
//	GET    /api/v1/sessions/{id}/validate
//	POST   /api/v1/sessions/{id}/generate
//	GET    /api/v1/sessions/{id}/render/{format}
//	POST   /api/v1/sessions/{id}/save
//	GET    /api/v1/designs
//	DELETE /api/v1/designs/{ref}
//
// Errors are returned as {"code": ..., "message": ...} with a status
// derived from the error code.
//
// Designs are not safe for concurrent use, so every handler that touches a
// session's designer runs under one server-wide mutex.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/nunet/pkg/pipeline"
	"github.com/matzehuels/nunet/pkg/script"
	"github.com/matzehuels/nunet/pkg/session"
	"github.com/matzehuels/nunet/pkg/storage"
)

// Config wires the server's collaborators. Sessions and Runner are
// required; a nil Storage disables the save and design routes, and a nil
// Gatherer disables /metrics.
type Config struct {
	Sessions   session.Store
	Storage    storage.Store
	Runner     *pipeline.Runner
	Gatherer   prometheus.Gatherer
	Logger     *log.Logger
	SessionTTL time.Duration

	// Defaults fill synapse fields left out of applied steps.
	Defaults script.Defaults

	// Generate supplies the name, learning rate and format used when a
	// generate request leaves them out.
	Generate pipeline.Options
}

// Server handles the HTTP API.
type Server struct {
	cfg    Config
	logger *log.Logger
	router chi.Router

	mu sync.Mutex
}

// New builds a server and its routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = session.DefaultTTL
	}
	if cfg.Defaults == (script.Defaults{}) {
		cfg.Defaults = script.DefaultSynapse
	}
	s := &Server{cfg: cfg, logger: cfg.Logger}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/apply", s.handleApply)
				r.Post("/undo", s.handleUndo)
				r.Get("/validate", s.handleValidate)
				r.Post("/generate", s.handleGenerate)
				r.Get("/render/{format}", s.handleRender)
				r.Post("/save", s.handleSave)
			})
		})
		r.Get("/designs", s.handleListDesigns)
		r.Delete("/designs/{ref}", s.handleDeleteDesign)
	})
	return r
}

// logRequests logs one line per request at info, or warn for 5xx.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		logf := s.logger.Info
		if ww.Status() >= http.StatusInternalServerError {
			logf = s.logger.Warn
		}
		logf("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Expired sessions are swept every sweepInterval.
func (s *Server) ListenAndServe(ctx context.Context, addr string, sweepInterval time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweep(ctx, sweepInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) sweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup(ctx)
		}
	}
}

// cleanup drops expired sessions. It holds s.mu since handlers extend
// session expiry while holding it.
func (s *Server) cleanup(ctx context.Context) {
	s.mu.Lock()
	n, err := s.cfg.Sessions.Cleanup(ctx)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("session cleanup failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Debug("expired sessions removed", "count", n)
	}
}

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/marcus/atelier/internal/serverdb"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// Config holds the submission API settings.
type Config struct {
	ListenAddr   string
	ServerDBPath string
	MaxBodyBytes int64
}

// Server is the HTTP API server that stores dimension verifications.
type Server struct {
	config   Config
	http     *http.Server
	store    *serverdb.ServerDB
	metrics  *metrics
	registry *prometheus.Registry
	logger   *slog.Logger
	ln       net.Listener
}

// NewServer creates a new Server with the given config and store.
func NewServer(cfg Config, store *serverdb.ServerDB, logger *slog.Logger) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("new server: nil store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	reg := prometheus.NewRegistry()
	s := &Server{
		config:   cfg,
		store:    store,
		registry: reg,
		metrics:  newMetrics(reg),
		logger:   logger,
	}

	s.http = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Listen binds the listen address without serving. Run calls it when the
// server is not bound yet; calling it first lets callers read Addr.
func (s *Server) Listen() error {
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.ln = ln
	return nil
}

// Run serves until ctx is done, then shuts down gracefully within grace.
// It returns the first listen, serve or shutdown error.
func (s *Server) Run(ctx context.Context, grace time.Duration) error {
	if err := s.Listen(); err != nil {
		return err
	}
	ln := s.ln
	s.logger.Info("server started", "addr", ln.Addr().String(), "db", s.config.ServerDBPath)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Addr returns the bound address once Listen has succeeded.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.config.ListenAddr
	}
	return s.ln.Addr().String()
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// routes builds the HTTP handler with all routes and middleware.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metricsHandler())

	mux.HandleFunc("POST /v1/jeux", s.handleCreateVerification)
	mux.HandleFunc("GET /v1/jeux", s.handleListVerifications)
	mux.HandleFunc("GET /v1/jeux/{dimension_id}", s.handleGetVerification)

	return chain(mux,
		s.recoveryMiddleware,
		requestIDMiddleware,
		s.loggingMiddleware,
		maxBytesMiddleware(s.config.MaxBodyBytes),
	)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeError(w, http.StatusServiceUnavailable, ErrUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

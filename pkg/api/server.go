// Package api serves the stored audit trail over HTTP. It is read-only.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ja7ad/ecosched/pkg/store"
)

const (
	DefaultLimit = 200
	MaxLimit     = 1000
)

// Store is the read side of store.Store used by the server.
type Store interface {
	List(ctx context.Context, opts store.ListOptions) ([]store.Record, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

type Server struct {
	router    chi.Router
	store     Store
	logger    *slog.Logger
	startTime time.Time
}

func New(st Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:    chi.NewRouter(),
		store:     st,
		logger:    logger.With("component", "api"),
		startTime: time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, RequestIDFromContext(r.Context()), http.StatusNotFound, CodeNotFound, "no route for "+r.URL.Path)
	})

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/logs", s.handleListLogs)
	})
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	Store  string `json:"store"`
	Count  int    `json:"count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("store ping failed", "err", err)
		respondError(w, reqID, http.StatusServiceUnavailable, CodeUnavailable, "store unavailable")
		return
	}
	n, err := s.store.Count(r.Context())
	if err != nil {
		respondError(w, reqID, http.StatusServiceUnavailable, CodeUnavailable, "store unavailable")
		return
	}
	respondOK(w, reqID, healthResponse{
		Status: "healthy",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
		Store:  "ok",
		Count:  n,
	})
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	recs, err := s.store.List(r.Context(), store.ListOptions{
		Limit: limit,
		RunID: r.URL.Query().Get("run_id"),
	})
	if err != nil {
		s.logger.Error("list logs", "err", err)
		respondError(w, reqID, http.StatusInternalServerError, CodeInternal, "could not read logs")
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	respondOK(w, reqID, recs)
}

// parseLimit applies the default for an empty value and caps at MaxLimit.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(n, MaxLimit), nil
}

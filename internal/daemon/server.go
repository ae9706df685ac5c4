package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jasongannon/api-docs-book/internal/eventstore"
	"github.com/jasongannon/api-docs-book/internal/logfields"
)

// Server exposes the published site plus a small operational API.
type Server struct {
	daemon *Daemon
	http   *http.Server
}

func newServer(d *Daemon) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger)

	s := &Server{daemon: d}

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/report", s.handleReport)
	r.Get("/api/builds", s.handleBuilds)
	r.Post("/api/build", s.handleTriggerBuild)
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))
	r.Handle("/*", http.FileServer(http.Dir(d.cfg.Output.Directory)))

	s.http = &http.Server{
		Addr:              d.cfg.Daemon.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() {
	slog.Info("preview server listening", logfields.Addr(s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("preview server failed", logfields.Error(err))
	}
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"uptime_s": int(time.Since(s.daemon.started).Seconds()),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	report := s.daemon.lastReport()
	if report == nil {
		jsonError(w, "no build has completed yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleBuilds(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			jsonError(w, "limit must be a positive integer up to 500", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := s.daemon.store.Recent(r.Context(), limit)
	if err != nil {
		jsonError(w, "query build history: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []eventstore.BuildEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"builds": events})
}

func (s *Server) handleTriggerBuild(w http.ResponseWriter, _ *http.Request) {
	s.daemon.queue.Request("api")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// requestLogger logs one line per request with status and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.Debug("request",
			slog.String("method", r.Method),
			logfields.Path(r.URL.Path),
			slog.Int("status", sw.status),
			logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

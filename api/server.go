// Package api provides the HTTP server for FinanceFlow.
//
// It serves the frontend bundle at / and exposes the daily brief, the
// paginated news feed and the Q&A endpoint under /api.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/financeflow/internal/feed"
	"github.com/seenimoa/financeflow/internal/news"
)

// FeedService is the store-backed side of the API.
type FeedService interface {
	Available() bool
	GetFeed(ctx context.Context, page, pageSize int) (*feed.Response, error)
	LatestBrief(ctx context.Context) (feed.Brief, error)
	RecentNews(ctx context.Context) ([]news.Document, error)
	Ping(ctx context.Context) error
}

// Answerer answers questions from news context.
type Answerer interface {
	Online() bool
	Answer(ctx context.Context, question string, docs []news.Document) string
}

// Options configures the HTTP layer. Zero values take defaults.
type Options struct {
	CORSOrigins     []string
	RequestTimeout  time.Duration
	DefaultPageSize int
	ShutdownTimeout time.Duration
	HealthTimeout   time.Duration // bound on the store ping in /health
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	opts     Options
	feed     FeedService
	answerer Answerer
	dist     fs.FS // nil disables the frontend routes
	metrics  *metrics
	log      *slog.Logger
}

// NewServer creates a configured server with all routes and middleware.
func NewServer(opts Options, fsvc FeedService, answerer Answerer, dist fs.FS, logger *slog.Logger) *Server {
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = feed.DefaultPageSize
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 15 * time.Second
	}
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		opts:     opts,
		feed:     fsvc,
		answerer: answerer,
		dist:     dist,
		metrics:  newMetrics(),
		log:      logger,
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then drains in-flight
// requests for up to the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.opts.RequestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestIDHeader)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.log))
	r.Use(s.metrics.instrument)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/daily_brief", s.handleDailyBrief)
		r.Get("/main_feed", s.handleMainFeed)
		r.Post("/ask", s.handleAsk)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "Not found.")
		})
	})

	if s.dist != nil {
		s.mountSPA(r, s.dist)
	}

	return r
}

// mountSPA serves the frontend bundle as a single-page app. Hashed assets
// under assets/ are cached for a year; every other unknown path falls back
// to index.html for client-side routing.
func (s *Server) mountSPA(r chi.Router, distFS fs.FS) {
	fileServer := http.FileServerFS(distFS)

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		rPath := strings.TrimPrefix(r.URL.Path, "/")
		if rPath == "" || rPath == "index.html" {
			serveIndexHTML(w, distFS)
			return
		}

		f, err := distFS.Open(rPath)
		if err != nil {
			serveIndexHTML(w, distFS)
			return
		}
		info, statErr := f.Stat()
		f.Close()
		if statErr != nil || info.IsDir() {
			serveIndexHTML(w, distFS)
			return
		}

		if strings.HasPrefix(rPath, "assets/") {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		fileServer.ServeHTTP(w, r)
	})
}

// serveIndexHTML serves the bundle's index.html.
func serveIndexHTML(w http.ResponseWriter, distFS fs.FS) {
	data, err := fs.ReadFile(distFS, "index.html")
	if err != nil {
		http.Error(w, "web UI not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// ============================================================
// Response envelopes
// ============================================================

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// AskResponse is returned by POST /api/ask.
type AskResponse struct {
	Status string `json:"status"`
	Answer string `json:"answer"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	AI       string `json:"ai"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Status:  StatusError,
		Message: msg,
	})
}

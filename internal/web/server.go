// Package web provides the HTTP server for the moderation analyser: upload
// forms, HTML result pages and a JSON API over the same analyses.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/moderation/internal/audit"
	"github.com/JonMunkholm/moderation/internal/config"
	"github.com/JonMunkholm/moderation/internal/core"
	"github.com/JonMunkholm/moderation/internal/metrics"
	"github.com/JonMunkholm/moderation/internal/web/middleware"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Server needs. Classifier, Metrics and
// Database may be nil.
type Deps struct {
	Config     *config.Config
	Limiter    *core.AnalysisLimiter
	Recorder   audit.Recorder
	Classifier core.Classifier
	Metrics    *metrics.Metrics
	Database   Pinger
}

// Server is the HTTP server for the analyser.
type Server struct {
	cfg        *config.Config
	limiter    *core.AnalysisLimiter
	recorder   audit.Recorder
	classifier core.Classifier
	metrics    *metrics.Metrics
	db         Pinger

	router *chi.Mux
	server *http.Server
	done   chan struct{}
}

// NewServer creates a Server with all middleware and routes installed.
func NewServer(d Deps) *Server {
	s := &Server{
		cfg:        d.Config,
		limiter:    d.Limiter,
		recorder:   d.Recorder,
		classifier: d.Classifier,
		metrics:    d.Metrics,
		db:         d.Database,
		router:     chi.NewRouter(),
		done:       make(chan struct{}),
	}
	if s.limiter == nil {
		s.limiter = core.NewAnalysisLimiter(s.cfg.Upload.MaxConcurrent, s.cfg.Upload.MaxWaitTime)
	}
	if s.recorder == nil {
		s.recorder = audit.NewMemory(s.cfg.Analysis.JournalSize)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(s.securityHeaders)
	s.router.Use(clientMetadata)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute).Handler)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	analyzeLimit := func(next http.Handler) http.Handler { return next }
	if s.cfg.Rate.Enabled {
		analyzeLimit = s.newRateLimiter(s.cfg.Rate.AnalyzeLimit).Handler
	}

	// Pages
	s.router.Get("/", s.handleIndex)
	s.router.With(analyzeLimit).Post("/analyze", s.handleAnalyze)
	s.router.With(analyzeLimit).Post("/compare", s.handleCompare)

	// Operations
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))

		r.With(analyzeLimit).Post("/analyze", s.handleAnalyze)
		r.With(analyzeLimit).Post("/compare", s.handleCompare)
		r.Get("/profiles", s.handleListProfiles)
		r.Get("/runs", s.handleListRuns)
	})
}

// newRateLimiter builds a per-IP limiter whose idle clients are pruned
// until the server shuts down.
func (s *Server) newRateLimiter(perMinute int) *middleware.RateLimiter {
	rl := middleware.NewRateLimiter(perMinute)
	go rl.Run(time.Minute, s.done)
	return rl
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight requests and then
// for running analyses to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.limiter.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.cfg.Security.EnableCSP {
			// Pages carry one inline stylesheet and no scripts.
			h.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; form-action 'self'; frame-ancestors 'none'")
		}
		next.ServeHTTP(w, r)
	})
}

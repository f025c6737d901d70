// Package server exposes conversations, redaction, evaluation and statistics over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Veraticus/loanbot/internal/chat"
	"github.com/Veraticus/loanbot/internal/metrics"
	"github.com/Veraticus/loanbot/internal/service"
)

// RequestTimeout bounds every request, including the model call of a turn.
const RequestTimeout = 2 * time.Minute

// Option configures a Server.
type Option func(*Server)

// WithStats serves daily statistics from store.
func WithStats(store service.StatsStore) Option {
	return func(s *Server) {
		s.stats = store
	}
}

// WithMetrics records endpoint latency in m and serves gatherer on /metrics.
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for default stats dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// Server is the HTTP surface of the assistant.
type Server struct {
	bot      *chat.Bot
	sessions *Sessions
	stats    service.StatsStore
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a server whose conversations are started by bot.
func New(bot *chat.Bot, opts ...Option) *Server {
	s := &Server{
		bot:      bot,
		sessions: NewSessions(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router with every route and middleware mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(middleware.Timeout(RequestTimeout))

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/messages", s.handleSendMessage)
			r.Post("/reset", s.handleResetSession)
		})
	})

	r.Post("/redact", s.handleRedact)
	r.Post("/evaluate", s.handleEvaluate)

	r.Route("/stats", func(r chi.Router) {
		r.Get("/daily", s.handleDailyStats)
		r.Get("/history", s.handleHistory)
	})

	return r
}

// Shutdown closes every open conversation.
func (s *Server) Shutdown(_ context.Context) {
	n := s.sessions.CloseAll()
	s.logger.Info("Closed open conversations", "count", n)
}

// logRequests logs each request and records its latency by route pattern.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.metrics.ObserveEndpoint(route, duration)
		s.logger.Info("http request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"duration_ms", duration.Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Package http serves the expense tracker JSON API.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"expensetracker/internal/cache"
	"expensetracker/internal/charts"
	applog "expensetracker/internal/log"
	"expensetracker/internal/metrics"
	"expensetracker/internal/services"
)

const (
	defaultRateLimitRPM = 60
	chartCacheSize      = 16
	chartCacheTTL       = 10 * time.Minute
)

// Deps are the collaborators a Server needs.
type Deps struct {
	Store       *services.ExpenseStore
	Preferences *services.Preferences
	Logger      *applog.Logger

	// Charts may be nil; a shared render cache is created when it is.
	Charts       *charts.ChartGenerator
	ChartCache   *cache.RenderCache
	RateLimitRPM int
}

type Server struct {
	http.Server
	store       *services.ExpenseStore
	prefs       *services.Preferences
	charts      *charts.ChartGenerator
	chartCache  *cache.RenderCache
	rateLimiter *rateLimiter
	logger      *applog.Logger

	shutdownOnce sync.Once
}

func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	gen := deps.Charts
	if gen == nil {
		gen = charts.NewChartGenerator()
	}
	chartCache := deps.ChartCache
	if chartCache == nil {
		chartCache = cache.NewRenderCache("chart", chartCacheSize, chartCacheTTL)
	}
	rpm := deps.RateLimitRPM
	if rpm <= 0 {
		rpm = defaultRateLimitRPM
	}

	s := &Server{
		store:       deps.Store,
		prefs:       deps.Preferences,
		charts:      gen,
		chartCache:  chartCache,
		rateLimiter: newRateLimiter(rpm),
		logger:      logger.WithComponent(applog.ComponentHTTP),
	}
	s.Addr = addr
	s.Handler = s.routes()
	s.ReadHeaderTimeout = 10 * time.Second
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(applog.Middleware(s.logger))
	r.Use(applog.RequestIDMiddleware(func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))
	r.Use(middleware.Recoverer)
	r.Use(s.withRequestLogging)
	r.Use(s.withSecurityHeaders)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.withRateLimit)

		r.Get("/expenses", s.handleListExpenses)
		r.Post("/expenses", s.handleCreateExpense)
		r.Get("/expenses/{id}", s.handleGetExpense)
		r.Put("/expenses/{id}", s.handleUpdateExpense)
		r.Delete("/expenses/{id}", s.handleDeleteExpense)

		r.Get("/summary", s.handleSummary)
		r.Get("/chart.png", s.handleChart)
		r.Get("/export.csv", s.handleExport)

		r.Get("/welcome", s.handleGetWelcome)
		r.Delete("/welcome", s.handleDismissWelcome)
		r.Post("/welcome", s.handleResetWelcome)
	})

	return r
}

// RenderCache exposes the chart cache so the caller can register it for
// periodic cleanup.
func (s *Server) RenderCache() *cache.RenderCache { return s.chartCache }

// Shutdown stops background work and then the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(s.rateLimiter.stop)
	return s.Server.Shutdown(ctx)
}

// withRequestLogging logs request start and completion and records metrics
// by route pattern.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		logger := applog.FromContext(ctx)
		clientIP := extractClientIP(r)

		logger.DebugContext(ctx, "Request started",
			applog.NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.Header.Get("User-Agent"), clientIP).
				ToSlice()...)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		duration := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rw.statusCode)).Inc()
		metrics.HTTPLatency.WithLabelValues(route).Observe(duration.Seconds())

		fields := applog.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.Header.Get("User-Agent"), clientIP).
			WithHTTPResponse(rw.statusCode, duration.Milliseconds()).
			ToSlice()
		if rw.statusCode >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "Request failed", fields...)
			return
		}
		logger.InfoContext(ctx, "Request completed", fields...)
	})
}

// withSecurityHeaders sets the response hardening headers and flags
// suspicious requests in the log.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := suspiciousReason(r); reason != "" {
			metrics.SuspiciousRequests.WithLabelValues(reason).Inc()
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldReason, reason,
				applog.FieldClientIP, extractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies the per-client limit to mutating requests.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		clientIP := extractClientIP(r)
		if !s.rateLimiter.allow(clientIP) {
			metrics.RateLimited.Inc()
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			TooManyRequestsError().Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the expense collection has been loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "store not configured", http.StatusServiceUnavailable)
		return
	}
	_ = s.store.List(r.Context())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Package api exposes the dashboard's REST surface over the enrichment
// store: job CRUD and sub-resources, the fact review queue, the failed-job
// queue, and global metrics.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/enrichment-api/internal/activity"
	"github.com/sells-group/enrichment-api/internal/config"
	"github.com/sells-group/enrichment-api/internal/monitoring"
	"github.com/sells-group/enrichment-api/internal/store"
)

// Server wires the HTTP handlers to their dependencies.
type Server struct {
	store      store.Store
	classifier *activity.Classifier
	collector  *monitoring.Collector
	cfg        *config.Config
	version    string
}

// NewServer builds the API server. version is reported by GET /api/system.
func NewServer(st store.Store, classifier *activity.Classifier, collector *monitoring.Collector, cfg *config.Config, version string) *Server {
	return &Server{
		store:      st,
		classifier: classifier,
		collector:  collector,
		cfg:        cfg,
		version:    version,
	}
}

// Router assembles the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(requestLogger)
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	r.Use(rateLimiter(s.cfg.Server.RateLimitPerSec, s.cfg.Server.RateLimitBurst))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.handleCreateJob)
			r.Get("/", s.handleListJobs)
			r.Route("/{jobID}", func(r chi.Router) {
				r.Get("/", s.handleGetJob)
				r.Delete("/", s.handleDeleteJob)
				r.Post("/cancel", s.handleCancelJob)
				r.Get("/activity", s.handleJobActivity)
				r.Get("/metrics", s.handleJobMetrics)
				r.Get("/debug", s.handleJobDebug)
				r.Get("/prompts", s.handleJobPrompts)
				r.Get("/chunks", s.handleJobChunks)
				r.Get("/facts", s.handleJobFacts)
			})
		})

		r.Route("/facts", func(r chi.Router) {
			r.Get("/", s.handleListFacts)
			r.Post("/{factID}/approve", s.handleApproveFact)
			r.Post("/{factID}/reject", s.handleRejectFact)
		})

		r.Route("/failed-jobs", func(r chi.Router) {
			r.Get("/", s.handleListFailedJobs)
			r.Post("/{failedID}/retry", s.handleRetryFailedJob)
		})

		r.Get("/metrics", s.handleMetrics)
		r.Get("/system", s.handleSystem)
	})

	return r
}

// requestLogger logs one line per request with latency and status.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

// recoverer converts panics into 500 envelopes instead of dropped
// connections.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				zap.L().Error("api: panic recovered",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
				)
				writeError(w, http.StatusInternalServerError, "internal_error", "an internal error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimiter applies a global token bucket across all clients. The
// dashboard is an internal tool, so per-IP buckets are not worth the
// bookkeeping.
func rateLimiter(perSec float64, burst int) func(http.Handler) http.Handler {
	if perSec <= 0 {
		perSec = 50
	}
	if burst <= 0 {
		burst = int(perSec) * 2
	}
	limiter := rate.NewLimiter(rate.Limit(perSec), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

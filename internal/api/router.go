package api

import (
	"log/slog"
	"net/http"

	"github.com/onnwee/venuefinder/internal/idempotency"
	"github.com/onnwee/venuefinder/internal/middleware"
)

// RouterConfig wires handlers and middleware into the public HTTP surface.
// Optional dependencies left nil disable the feature they back.
type RouterConfig struct {
	Venues   *VenueHandlers
	Feedback *FeedbackHandlers
	Health   *HealthHandlers

	Logger         *slog.Logger
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler

	Tokens middleware.TokenValidator

	RateLimitStore middleware.RateLimitStore
	GlobalLimit    middleware.RateLimitConfig
	SearchLimit    middleware.RateLimitConfig
	FeedbackLimit  middleware.RateLimitConfig

	Idempotency idempotency.Repository

	CORS      *middleware.CORSConfig
	Profiling middleware.ProfilingConfig

	// TracingService names spans; empty disables the tracing middleware.
	TracingService string
}

// NewRouter builds the HTTP handler. Middleware order, outermost first:
// request ID, tracing, logging, metrics, CORS, profiling, auth, global rate
// limit. Search and feedback routes add their own limits, and POST /feedback
// is idempotent.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Health != nil {
		mux.HandleFunc("GET /health", cfg.Health.Health)
		mux.HandleFunc("GET /ready", cfg.Health.Ready)
	}
	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}

	if cfg.Venues != nil {
		mux.Handle("GET /venues", cfg.limit(cfg.SearchLimit, http.HandlerFunc(cfg.Venues.SearchVenues)))
		mux.HandleFunc("GET /venues/{slug}", cfg.Venues.GetVenue)
		mux.HandleFunc("GET /features", cfg.Venues.ListFeatures)
	}

	if cfg.Feedback != nil {
		mux.HandleFunc("GET /feedback", cfg.Feedback.ListFeedback)
		var create http.Handler = http.HandlerFunc(cfg.Feedback.CreateFeedback)
		if cfg.Idempotency != nil {
			create = middleware.Idempotency(cfg.Idempotency, map[string]bool{"/feedback": true}, cfg.Metrics)(create)
		}
		mux.Handle("POST /feedback", cfg.limit(cfg.FeedbackLimit, create))
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, ErrCodeNotFound, "The requested resource was not found")
	})

	var handler http.Handler = mux
	handler = cfg.limit(cfg.GlobalLimit, handler)
	if cfg.Tokens != nil {
		handler = middleware.OptionalAuth(cfg.Tokens, cfg.Metrics)(handler)
	}
	handler = middleware.Profiling(cfg.Profiling)(handler)
	if cfg.CORS != nil {
		handler = middleware.CORS(*cfg.CORS)(handler)
	}
	if cfg.Metrics != nil {
		handler = middleware.HTTPMetrics(cfg.Metrics)(handler)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	handler = middleware.Logging(logger)(handler)
	if cfg.TracingService != "" {
		handler = middleware.Tracing(cfg.TracingService)(handler)
	}
	return middleware.RequestID(handler)
}

// limit wraps next in a rate limiter keyed by user, or by IP for anonymous
// callers. Without a store or a positive limit it returns next unchanged.
func (cfg RouterConfig) limit(limit middleware.RateLimitConfig, next http.Handler) http.Handler {
	if cfg.RateLimitStore == nil || limit.RequestsPerWindow <= 0 {
		return next
	}
	return middleware.RateLimiter(cfg.RateLimitStore, limit, middleware.UserKeyFunc(), cfg.Metrics)(next)
}

// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/venuefinder/internal/api"
	"github.com/onnwee/venuefinder/internal/auth"
	"github.com/onnwee/venuefinder/internal/config"
	"github.com/onnwee/venuefinder/internal/db"
	"github.com/onnwee/venuefinder/internal/feedback"
	"github.com/onnwee/venuefinder/internal/health"
	"github.com/onnwee/venuefinder/internal/idempotency"
	"github.com/onnwee/venuefinder/internal/jobs"
	"github.com/onnwee/venuefinder/internal/middleware"
	"github.com/onnwee/venuefinder/internal/pipeline"
	"github.com/onnwee/venuefinder/internal/profile"
	"github.com/onnwee/venuefinder/internal/ranking"
	"github.com/onnwee/venuefinder/internal/tracing"
	"github.com/onnwee/venuefinder/internal/venue"
)

const (
	serviceName     = "venuefinder-api"
	serviceVersion  = "0.1.0"
	shutdownTimeout = 10 * time.Second
	cleanupInterval = 5 * time.Minute
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "optional YAML config file (environment variables take precedence)")
	flag.Parse()

	if *help {
		fmt.Println("Venuefinder API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	summary := make([]any, 0, 2*len(cfg.LogSummary()))
	for k, v := range cfg.LogSummary() {
		summary = append(summary, k, v)
	}
	logger.Info("configuration loaded", summary...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise server", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		logger.Error("failed to listen", "addr", server.Addr, "error", err)
		os.Exit(1)
	}

	if err := serve(ctx, server, ln, logger); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// app holds the assembled handler and whatever must be released on exit.
type app struct {
	handler http.Handler
	closers []func()
}

// Close releases resources in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp wires storage, ranking, metrics and the router from cfg. Background
// cleanup loops stop when ctx is cancelled.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	tp, err := tracing.NewProvider(tracingConfig(cfg))
	if err != nil {
		return fail(fmt.Errorf("tracing: %w", err))
	}
	a.closers = append(a.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	})

	var (
		venues    venue.Repository
		profiles  profile.Repository
		store     feedback.Store
		dbChecker api.HealthChecker
	)

	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, func() { _ = conn.Close() })
		if err := db.EnsureSchema(ctx, conn); err != nil {
			return fail(err)
		}
		venues = venue.NewPostgresRepository(conn, logger)
		profiles = profile.NewPostgresRepository(conn, logger)
		store = feedback.NewPostgresStore(conn, logger)
		dbChecker = health.NewDBChecker(conn)
		logger.Info("using postgres storage")
	} else {
		catalog := venue.NewInMemoryRepository()
		if cfg.CatalogSeedPath != "" {
			seed, err := venue.LoadSeedFile(cfg.CatalogSeedPath)
			if err != nil {
				return fail(err)
			}
			catalog = venue.NewInMemoryRepositoryFromSeed(seed)
		}
		venues = catalog

		users := profile.NewInMemoryRepository()
		if cfg.ProfileSeedPath != "" {
			if users, err = profile.LoadSeedFile(cfg.ProfileSeedPath); err != nil {
				return fail(err)
			}
		}
		profiles = users
		store = feedback.NewInMemoryStore()
		logger.Warn("DATABASE_URL not set, using in-memory storage",
			"catalog_seed", cfg.CatalogSeedPath,
			"profile_seed", cfg.ProfileSeedPath)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(reg); err != nil {
		return fail(fmt.Errorf("register http metrics: %w", err))
	}
	rankMetrics := pipeline.NewMetrics()
	if err := rankMetrics.Register(reg); err != nil {
		return fail(fmt.Errorf("register ranking metrics: %w", err))
	}
	jobMetrics := jobs.NewMetrics()
	if err := jobMetrics.Register(reg); err != nil {
		return fail(fmt.Errorf("register job metrics: %w", err))
	}
	startJob := func(jobType string, interval time.Duration, fn jobs.Func) {
		j := jobs.NewPeriodic(jobs.Config{
			Type:     jobType,
			Interval: interval,
			Logger:   logger,
			Reporter: jobMetrics,
		}, fn)
		j.Start(ctx)
		a.closers = append(a.closers, j.Stop)
	}

	var (
		limitStore   middleware.RateLimitStore
		idemRepo     idempotency.Repository
		redisChecker api.HealthChecker
	)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fail(fmt.Errorf("parse REDIS_URL: %w", err))
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, func() { _ = client.Close() })

		cached := venue.NewCachedRepository(venues, client, cfg.CatalogCacheTTL, logger)
		venues = cached
		startJob(jobs.JobTypeCatalogRefresh, refreshInterval(cfg.CatalogCacheTTL), func(ctx context.Context) error {
			if err := cached.Invalidate(ctx); err != nil {
				return err
			}
			_, err := cached.ListActive(ctx)
			return err
		})
		limitStore = middleware.NewRedisRateLimitStore(client).WithMetrics(httpMetrics)
		idemRepo = idempotency.NewRedisRepository(client, cfg.IdempotencyTTL)
		redisChecker = health.NewRedisChecker(client)
		logger.Info("using redis for catalog cache, rate limits and idempotency")
	} else {
		mem := middleware.NewInMemoryRateLimitStore()
		startJob(jobs.JobTypeRateLimitCleanup, cleanupInterval, func(context.Context) error {
			mem.Cleanup()
			return nil
		})
		limitStore = mem

		keys := idempotency.NewInMemoryRepository(cfg.IdempotencyTTL)
		startJob(jobs.JobTypeIdempotencyCleanup, cleanupInterval, func(context.Context) error {
			if deleted := keys.DeleteExpired(); deleted > 0 {
				logger.Info("cleaned up idempotency keys", "deleted", deleted)
			}
			return nil
		})
		idemRepo = keys
	}

	cal, err := ranking.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		return fail(fmt.Errorf("calibration: %w", err))
	}
	p := pipeline.New(ranking.NewScorer(cal), pipeline.WithObserver(rankMetrics))

	var tokens middleware.TokenValidator
	if cfg.JWTSecret != "" {
		tokens = auth.NewJWTService(cfg.JWTSecret, cfg.JWTPreviousSecret)
	} else {
		logger.Warn("JWT_SECRET not set, personalization is disabled")
	}

	var cors *middleware.CORSConfig
	if len(cfg.CORSAllowedOrigins) > 0 {
		c := middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins)
		cors = &c
	}

	var tracingService string
	if cfg.TracingEnabled {
		tracingService = serviceName
	}

	a.handler = api.NewRouter(api.RouterConfig{
		Venues:   api.NewVenueHandlers(venues, profiles, p),
		Feedback: api.NewFeedbackHandlers(store),
		Health: api.NewHealthHandlers(api.HealthHandlersConfig{
			DBChecker:      dbChecker,
			RedisChecker:   redisChecker,
			CatalogChecker: health.NewCatalogChecker(venues, 1),
			MetricsEnabled: true,
		}),
		Logger:         logger,
		Metrics:        httpMetrics,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Tokens:         tokens,
		RateLimitStore: limitStore,
		GlobalLimit:    perMinute(cfg.RateLimitRPM),
		SearchLimit:    perMinute(cfg.SearchRateLimitRPM),
		FeedbackLimit:  perMinute(cfg.FeedbackRateLimitRPM),
		Idempotency:    idemRepo,
		CORS:           cors,
		Profiling: middleware.ProfilingConfig{
			Enabled:     cfg.ProfilingEnabled,
			Environment: cfg.Env,
		},
		TracingService: tracingService,
	})

	return a, nil
}

func tracingConfig(cfg *config.Config) tracing.Config {
	return tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Enabled:        cfg.TracingEnabled,
		Environment:    cfg.Env,
		ExporterType:   cfg.OTelExporter,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SamplingRate:   cfg.TracingSampleRate,
		InsecureMode:   !cfg.IsProduction(),
	}
}

// refreshInterval re-warms the catalog cache shortly before entries expire.
func refreshInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = venue.DefaultCatalogTTL
	}
	return ttl * 3 / 4
}

// perMinute converts an RPM setting to a limiter config; 0 disables the limit.
func perMinute(rpm int) middleware.RateLimitConfig {
	if rpm <= 0 {
		return middleware.RateLimitConfig{}
	}
	return middleware.RateLimitConfig{RequestsPerWindow: rpm, WindowDuration: time.Minute}
}

// serve runs server on ln until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func serve(ctx context.Context, server *http.Server, ln net.Listener, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

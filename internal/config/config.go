// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/onnwee/venuefinder/internal/validate"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Storage. Without DatabaseURL the server runs on in-memory stores
	// seeded from CatalogSeedPath and ProfileSeedPath.
	DatabaseURL     string        `koanf:"database_url"`
	CatalogSeedPath string        `koanf:"catalog_seed_path"`
	ProfileSeedPath string        `koanf:"profile_seed_path"`
	RedisURL        string        `koanf:"redis_url"`
	CatalogCacheTTL time.Duration `koanf:"catalog_cache_ttl"`

	// JWT Authentication
	JWTSecret         string `koanf:"jwt_secret"`
	JWTPreviousSecret string `koanf:"jwt_previous_secret"`

	// Ranking
	CalibrationPath string `koanf:"calibration_path"`

	// HTTP surface
	CORSAllowedOrigins   []string      `koanf:"cors_allowed_origins"`
	RateLimitRPM         int           `koanf:"rate_limit_rpm"` // Global per-client limit; 0 disables
	SearchRateLimitRPM   int           `koanf:"search_rate_limit_rpm"`
	FeedbackRateLimitRPM int           `koanf:"feedback_rate_limit_rpm"`
	IdempotencyTTL       time.Duration `koanf:"idempotency_ttl"`

	// Observability
	TracingEnabled    bool    `koanf:"tracing_enabled"`
	OTelExporter      string  `koanf:"otel_exporter"`
	OTelEndpoint      string  `koanf:"otel_endpoint"`
	TracingSampleRate float64 `koanf:"tracing_sample_rate"`
	ProfilingEnabled  bool    `koanf:"profiling_enabled"`
}

// Configuration validation errors.
var (
	ErrMissingJWTSecret        = errors.New("JWT_SECRET is required when DATABASE_URL is set")
	ErrInvalidPort             = errors.New("PORT must be a valid integer between 1 and 65535")
	ErrInvalidDuration         = errors.New("value must be a valid duration")
	ErrInvalidNumber           = errors.New("value must be a valid number")
	ErrInvalidRateLimit        = errors.New("rate limits must be >= 0")
	ErrInvalidSampleRate       = errors.New("TRACING_SAMPLE_RATE must be between 0 and 1")
	ErrInvalidExporter         = errors.New("OTEL_EXPORTER_TYPE must be otlp-http or otlp-grpc")
	ErrProfilingInProduction   = errors.New("PROFILING_ENABLED is not allowed in production")
	ErrNegativeDuration        = errors.New("durations must be >= 0")
	ErrRedisRequiresValidURL   = errors.New("REDIS_URL must use the redis:// or rediss:// scheme")
	ErrSeedPathWithDatabaseURL = errors.New("CATALOG_SEED_PATH is only used without DATABASE_URL")
	ErrInvalidCORSOrigin       = errors.New("CORS_ALLOWED_ORIGINS entries must be explicit origins")
)

// Default values for non-secret configuration.
const (
	DefaultPort                 = 8080
	DefaultEnv                  = "development"
	DefaultRateLimitRPM         = 100
	DefaultSearchRateLimitRPM   = 60
	DefaultFeedbackRateLimitRPM = 10
	DefaultCatalogCacheTTL      = 30 * time.Second
	DefaultIdempotencyTTL       = 24 * time.Hour
	DefaultOTelExporter         = "otlp-http"
	DefaultTracingSampleRate    = 0.1
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error
	collect := func(err error) {
		if err != nil {
			loadErrs = append(loadErrs, err)
		}
	}

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, err := getEnvIntOrDefaultMulti([]string{"VENUEFINDER_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if err != nil {
		collect(fmt.Errorf("%w: %w", ErrInvalidPort, err))
	}

	rateLimit, err := getEnvIntOrDefault("RATE_LIMIT_RPM", k, "rate_limit_rpm", DefaultRateLimitRPM)
	collect(err)
	searchLimit, err := getEnvIntOrDefault("SEARCH_RATE_LIMIT_RPM", k, "search_rate_limit_rpm", DefaultSearchRateLimitRPM)
	collect(err)
	feedbackLimit, err := getEnvIntOrDefault("FEEDBACK_RATE_LIMIT_RPM", k, "feedback_rate_limit_rpm", DefaultFeedbackRateLimitRPM)
	collect(err)

	cacheTTL, err := getEnvDurationOrDefault("CATALOG_CACHE_TTL", k, "catalog_cache_ttl", DefaultCatalogCacheTTL)
	collect(err)
	idemTTL, err := getEnvDurationOrDefault("IDEMPOTENCY_TTL", k, "idempotency_ttl", DefaultIdempotencyTTL)
	collect(err)

	sampleRate, err := getEnvFloatOrDefault("TRACING_SAMPLE_RATE", k, "tracing_sample_rate", DefaultTracingSampleRate)
	collect(err)

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:                 port,
		Env:                  getEnvOrDefaultMulti([]string{"VENUEFINDER_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:          getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		CatalogSeedPath:      getEnvOrKoanf("CATALOG_SEED_PATH", k, "catalog_seed_path"),
		ProfileSeedPath:      getEnvOrKoanf("PROFILE_SEED_PATH", k, "profile_seed_path"),
		RedisURL:             getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		CatalogCacheTTL:      cacheTTL,
		JWTSecret:            getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		JWTPreviousSecret:    getEnvOrKoanf("JWT_PREVIOUS_SECRET", k, "jwt_previous_secret"),
		CalibrationPath:      getEnvOrKoanf("CALIBRATION_PATH", k, "calibration_path"),
		CORSAllowedOrigins:   getEnvListOrKoanf("CORS_ALLOWED_ORIGINS", k, "cors_allowed_origins"),
		RateLimitRPM:         rateLimit,
		SearchRateLimitRPM:   searchLimit,
		FeedbackRateLimitRPM: feedbackLimit,
		IdempotencyTTL:       idemTTL,
		TracingEnabled:       getEnvBoolOrKoanf("TRACING_ENABLED", k, "tracing_enabled"),
		OTelExporter:         getEnvOrDefault("OTEL_EXPORTER_TYPE", k.String("otel_exporter"), DefaultOTelExporter),
		OTelEndpoint:         getEnvOrKoanf("OTEL_EXPORTER_OTLP_ENDPOINT", k, "otel_endpoint"),
		TracingSampleRate:    sampleRate,
		ProfilingEnabled:     getEnvBoolOrKoanf("PROFILING_ENABLED", k, "profiling_enabled"),
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// IsProduction reports whether Env names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvListOrKoanf splits a comma-separated environment variable, falling
// back to a YAML list (or comma-separated string) in the file.
func getEnvListOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) []string {
	raw := os.Getenv(envKey)
	if raw == "" {
		if list := k.Strings(koanfKey); len(list) > 0 {
			return trimAll(list)
		}
		raw = k.String(koanfKey)
	}
	return trimAll(strings.Split(raw, ","))
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// getEnvBoolOrKoanf accepts true/1/yes/on and false/0/no/off from the
// environment; anything else falls back to the file value.
func getEnvBoolOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) bool {
	switch strings.ToLower(os.Getenv(envKey)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return k.Bool(koanfKey)
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Unlike the port, an explicit 0 in the file is honoured because it disables a limit.
func getEnvIntOrDefault(envKey string, k *koanf.Koanf, koanfKey string, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", envKey, ErrInvalidNumber)
		}
		return i, nil
	}
	if k.Exists(koanfKey) {
		return k.Int(koanfKey), nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
// Note: A port value of 0 from a YAML file will fall back to the default; port 0 is not supported in YAML files.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer", key)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set, otherwise the koanf value, or default.
func getEnvFloatOrDefault(envKey string, k *koanf.Koanf, koanfKey string, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", envKey, ErrInvalidNumber)
		}
		return f, nil
	}
	if k.Exists(koanfKey) {
		return k.Float64(koanfKey), nil
	}
	return defaultVal, nil
}

// getEnvDurationOrDefault parses Go duration strings ("30s", "5m") from the
// environment or the file.
func getEnvDurationOrDefault(envKey string, k *koanf.Koanf, koanfKey string, defaultVal time.Duration) (time.Duration, error) {
	raw := os.Getenv(envKey)
	if raw == "" {
		if !k.Exists(koanfKey) {
			return defaultVal, nil
		}
		raw = k.String(koanfKey)
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultVal, fmt.Errorf("%s: %w", envKey, ErrInvalidDuration)
	}
	return d, nil
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPort)
	}
	if c.DatabaseURL != "" && c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if c.DatabaseURL != "" && c.CatalogSeedPath != "" {
		errs = append(errs, ErrSeedPathWithDatabaseURL)
	}
	if c.RedisURL != "" && !strings.HasPrefix(c.RedisURL, "redis://") && !strings.HasPrefix(c.RedisURL, "rediss://") {
		errs = append(errs, ErrRedisRequiresValidURL)
	}
	if c.RateLimitRPM < 0 || c.SearchRateLimitRPM < 0 || c.FeedbackRateLimitRPM < 0 {
		errs = append(errs, ErrInvalidRateLimit)
	}
	if c.CatalogCacheTTL < 0 || c.IdempotencyTTL < 0 {
		errs = append(errs, ErrNegativeDuration)
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		errs = append(errs, ErrInvalidSampleRate)
	}
	if c.TracingEnabled && c.OTelExporter != "otlp-http" && c.OTelExporter != "otlp-grpc" {
		errs = append(errs, ErrInvalidExporter)
	}
	if c.ProfilingEnabled && c.IsProduction() {
		errs = append(errs, ErrProfilingInProduction)
	}
	for _, origin := range c.CORSAllowedOrigins {
		if _, err := validate.Origin(origin, !c.IsProduction()); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidCORSOrigin, err))
		}
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                    strconv.Itoa(c.Port),
		"env":                     c.Env,
		"database_url":            maskDatabaseURL(c.DatabaseURL),
		"catalog_seed_path":       c.CatalogSeedPath,
		"profile_seed_path":       c.ProfileSeedPath,
		"redis_url":               maskDatabaseURL(c.RedisURL),
		"catalog_cache_ttl":       c.CatalogCacheTTL.String(),
		"jwt_secret":              maskSecret(c.JWTSecret),
		"jwt_previous_secret":     maskSecret(c.JWTPreviousSecret),
		"calibration_path":        c.CalibrationPath,
		"cors_allowed_origins":    strings.Join(c.CORSAllowedOrigins, ","),
		"rate_limit_rpm":          strconv.Itoa(c.RateLimitRPM),
		"search_rate_limit_rpm":   strconv.Itoa(c.SearchRateLimitRPM),
		"feedback_rate_limit_rpm": strconv.Itoa(c.FeedbackRateLimitRPM),
		"idempotency_ttl":         c.IdempotencyTTL.String(),
		"tracing_enabled":         strconv.FormatBool(c.TracingEnabled),
		"otel_exporter":           c.OTelExporter,
		"otel_endpoint":           c.OTelEndpoint,
		"tracing_sample_rate":     strconv.FormatFloat(c.TracingSampleRate, 'f', -1, 64),
		"profiling_enabled":       strconv.FormatBool(c.ProfilingEnabled),
	}
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a connection URL.
// Works for postgres://, postgresql://, redis:// and rediss:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	// Look for password pattern: user:password@host
	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	// Reconstruct URL with masked password
	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}

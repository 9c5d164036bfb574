package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv string

	BackendURL     string
	RequestTimeout time.Duration

	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenFor      time.Duration

	LogFormat        string
	LogLevel         string
	MetricsNamespace string

	Port               string
	RedisURL           string
	IdempotencyTTL     time.Duration
	CORSAllowedOrigins []string
	MockRateLimit      string
	MockDeclineAbove   *decimal.Decimal

	TracingEnabled       bool
	OTLPEndpoint         string
	TracingSamplingRatio float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:               valueOrDefault(k.String("APP_ENV"), "development"),
		BackendURL:           strings.TrimRight(valueOrDefault(k.String("KIOSK_BACKEND_URL"), "http://127.0.0.1:8000"), "/"),
		RequestTimeout:       parseDuration(k.String("KIOSK_REQUEST_TIMEOUT"), "10s"),
		BreakerMinRequests:   parseInt(k.String("KIOSK_BREAKER_MIN_REQUESTS"), 5),
		BreakerFailureRatio:  parseFloat(k.String("KIOSK_BREAKER_FAILURE_RATIO"), 0.5),
		BreakerOpenFor:       parseDuration(k.String("KIOSK_BREAKER_OPEN_FOR"), "30s"),
		LogFormat:            valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:             valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace:     valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "kiosk"),
		Port:                 valueOrDefault(k.String("PORT"), "8000"),
		RedisURL:             strings.TrimSpace(k.String("REDIS_URL")),
		IdempotencyTTL:       parseDuration(k.String("IDEMPOTENCY_TTL"), "10m"),
		CORSAllowedOrigins:   splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		MockRateLimit:        valueOrDefault(k.String("MOCK_RATE_LIMIT"), "120-M"),
		TracingEnabled:       parseBool(k.String("OBS_ENABLE_TRACING")),
		OTLPEndpoint:         strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingSamplingRatio: parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1),
	}

	if raw := strings.TrimSpace(k.String("MOCK_PAYMENT_DECLINE_ABOVE")); raw != "" {
		limit, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("MOCK_PAYMENT_DECLINE_ABOVE: %w", err)
		}
		cfg.MockDeclineAbove = &limit
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errors.New("KIOSK_BACKEND_URL must be an absolute URL")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("KIOSK_REQUEST_TIMEOUT must be positive")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return errors.New("KIOSK_BREAKER_FAILURE_RATIO must be within (0, 1]")
	}
	if c.BreakerMinRequests < 1 {
		return errors.New("KIOSK_BREAKER_MIN_REQUESTS must be at least 1")
	}
	return nil
}

// HTTPAddr returns the address the development backend should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}

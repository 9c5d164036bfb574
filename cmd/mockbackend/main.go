package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/dinein-kiosk/internal/config"
	"github.com/noah-isme/dinein-kiosk/internal/health"
	"github.com/noah-isme/dinein-kiosk/internal/mockbackend"
	"github.com/noah-isme/dinein-kiosk/internal/obs"
	"github.com/noah-isme/dinein-kiosk/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)
	httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, nil, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "kiosk-mockbackend",
			Endpoint:      cfg.OTLPEndpoint,
			Exporter:      "otlp",
			SamplingRatio: cfg.TracingSamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	redisClient := connectRedis(ctx, cfg.RedisURL, tracingEnabled, logger)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	limiter, err := newLimiter(cfg, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("configure rate limiter")
	}

	srv := mockbackend.NewServer(mockbackend.Options{
		DeclineAbove: cfg.MockDeclineAbove,
		Logger:       logger,
	})
	handler := mockbackend.NewRouter(srv, mockbackend.RouterConfig{
		Logger:         logger,
		Metrics:        httpMetrics,
		Redis:          redisClient,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Limiter:        limiter,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		Tracing:        tracingEnabled,
		Production:     cfg.IsProduction(),
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", httpSrv.Addr).Bool("redis", redisClient != nil).Msg("server starting")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

// connectRedis returns nil when no URL is configured or the server is unreachable;
// the backend then runs without idempotency keys.
func connectRedis(ctx context.Context, url string, tracing bool, logger zerolog.Logger) *redis.Client {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	if tracing {
		if err := redisotel.InstrumentTracing(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis tracing")
		}
	}
	if err := redisotel.InstrumentMetrics(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, continuing without it")
		_ = client.Close()
		return nil
	}
	return client
}

func newLimiter(cfg *config.Config, client *redis.Client) (ratelimit.Limiter, error) {
	window, limit, err := ratelimit.ParseRate(cfg.MockRateLimit)
	if err != nil {
		return nil, err
	}
	if client != nil {
		return ratelimit.Sliding{Client: client, Prefix: "kiosk:ratelimit:", Window: window, Max: limit}, nil
	}
	mem, err := ratelimit.NewMemory(cfg.MockRateLimit)
	if err != nil {
		return nil, err
	}
	return mem, nil
}

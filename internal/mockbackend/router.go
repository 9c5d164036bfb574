package mockbackend

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/dinein-kiosk/internal/backend"
	"github.com/noah-isme/dinein-kiosk/internal/common"
	"github.com/noah-isme/dinein-kiosk/internal/health"
	"github.com/noah-isme/dinein-kiosk/internal/obs"
	"github.com/noah-isme/dinein-kiosk/internal/ratelimit"
	"github.com/noah-isme/dinein-kiosk/internal/security"
)

// RouterConfig carries the shared infrastructure of the router. Redis is
// optional; without it idempotency keys are not enforced and readiness reports
// the store as disabled.
type RouterConfig struct {
	Logger         zerolog.Logger
	Metrics        *obs.HTTPMetrics
	Redis          *redis.Client
	IdempotencyTTL time.Duration
	Limiter        ratelimit.Limiter
	CORSOrigins    []string
	Tracing        bool
	Production     bool
}

// NewRouter mounts the backend endpoints on a chi router.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if cfg.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: cfg.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: cfg.Logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.Production}.Middleware)
	r.Use(security.CORS(cfg.CORSOrigins))

	hh := health.Handler{}
	if cfg.Redis != nil {
		hh.Checker = health.RedisChecker{Client: cfg.Redis}
	}
	r.Get("/health/live", hh.Live)
	r.Get("/health/ready", hh.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(ratelimit.Handler{
				Limiter: cfg.Limiter,
				OnError: func(err error) {
					cfg.Logger.Warn().Err(err).Msg("rate_limiter_unavailable")
				},
			}.Middleware)
		}
		r.Get(backend.PathMenu, s.Menu)
		r.Get(backend.PathOffers, s.Offers)

		r.Group(func(r chi.Router) {
			r.Use(security.BodyLimit{Max: security.DefaultBodyLimit}.Middleware)
			r.Post(backend.PathSelectionLog, s.LogSelection)
			r.With(common.Idem{R: cfg.Redis, TTL: cfg.IdempotencyTTL}.Middleware).Post(backend.PathOrder, s.PlaceOrder)
			r.With(common.Idem{R: cfg.Redis, TTL: cfg.IdempotencyTTL}.Middleware).Post(backend.PathPayment, s.ProcessPayment)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "route not found", nil)
	})
	return r
}

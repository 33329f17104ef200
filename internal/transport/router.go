package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/ndkhanh17/BE-Tacoli/internal/logger"
	"github.com/ndkhanh17/BE-Tacoli/internal/metrics"
	"github.com/ndkhanh17/BE-Tacoli/internal/middleware"
	"github.com/ndkhanh17/BE-Tacoli/internal/order"
	"github.com/ndkhanh17/BE-Tacoli/internal/payment"
	"github.com/ndkhanh17/BE-Tacoli/internal/utils"
)

const serviceName = "tacoli-api"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type RouterConfig struct {
	JWTSecret string
	ClientURL string

	DB       Pinger
	Limiter  *middleware.RateLimiter
	Orders   *order.Handler
	Payments *payment.Handler
}

// NewRouter mounts the REST API. Gateway callbacks sit outside auth and rate
// limiting and always answer 200. Everywhere else authentication is optional
// at the edge and individual routes demand a user or an admin.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(logger.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.CORS(cfg.ClientURL))

	r.Get("/healthz", healthHandler(cfg.DB))
	r.Handle("/metrics", metrics.Handler())

	r.Get("/api/payments/callback/{gateway}", cfg.Payments.Callback)
	r.Post("/api/payments/callback/{gateway}", cfg.Payments.Callback)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		if cfg.Limiter != nil {
			r.Use(cfg.Limiter.Middleware)
		}

		r.Route("/api", func(r chi.Router) {
			r.Route("/orders", func(r chi.Router) {
				o := cfg.Orders

				r.Post("/", o.Create)
				r.Get("/track/{orderNumber}", o.Track)
				r.With(middleware.RequireAuth).Get("/my-orders/{id}", o.GetMine)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(utils.RoleAdmin))
					r.Get("/{id}", o.Get)
					r.Put("/{id}/status", o.UpdateStatus)
				})
			})

			r.Route("/payments", func(r chi.Router) {
				p := cfg.Payments

				r.Post("/", p.Create)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(utils.RoleAdmin))
					r.Get("/admin/stats", p.Stats)
					r.Post("/{id}/refund", p.Refund)
				})

				r.With(middleware.RequireAuth).Get("/{id}", p.Get)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONError(w, "Route not found", http.StatusNotFound)
	})

	return otelhttp.NewHandler(r, serviceName,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := db.PingContext(ctx); err != nil {
				logger.FromCtx(r.Context()).Error("health check failed", zap.Error(err))
				utils.WriteJSONError(w, "Database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		utils.WriteSuccess(w, http.StatusOK, "OK", nil)
	}
}

// Package httptransport assembles the feature routers into the service's
// HTTP surface.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cataloghandler "libris/internal/catalog/handler"
	lendinghandler "libris/internal/lending/handler"
	memberhandler "libris/internal/member/handler"
	"libris/internal/platform/metrics"
	"libris/internal/platform/middleware"
	"libris/internal/platform/ratelimit"
)

const (
	requestTimeout = 30 * time.Second

	apiRateLimit  = 120
	apiRateWindow = time.Minute
)

// Deps are the wired dependencies the router mounts.
type Deps struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	JWTValidator middleware.JWTValidator
	RateLimit    *ratelimit.Middleware
	Lending      *lendinghandler.Handler
	Catalog      *cataloghandler.Handler
	Members      *memberhandler.Handler
}

// NewRouter builds the full route tree. Operational endpoints sit outside
// the API middleware chain; every API route runs through the same
// authentication pass, with per-route role gates inside the feature
// handlers.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(d.Logger))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.Latency(d.Metrics))
		if d.RateLimit != nil {
			r.Use(d.RateLimit.Limit("api", apiRateLimit, apiRateWindow))
		}
		r.Use(middleware.Authenticate(d.JWTValidator, d.Logger))

		d.Members.Register(r)
		d.Catalog.Register(r)
		d.Lending.Register(r)
	})

	return r
}

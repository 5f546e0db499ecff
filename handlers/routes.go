package handlers

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pandamasta/pwcheck/internal/config"
	"github.com/pandamasta/pwcheck/internal/metrics"
	"github.com/pandamasta/pwcheck/middleware"
	"github.com/pandamasta/pwcheck/password"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Config    *config.Config
	Validator *password.Validator
	Store     CheckStore           // nil disables /stats
	Registry  *prometheus.Registry // nil disables /metrics and HTTP metrics
	Logger    *slog.Logger
}

// Routes builds the demo server handler with its middleware chain.
func Routes(d Deps) http.Handler {
	checkTmpl := InitCheckTemplates()
	statsTmpl := InitStatsTemplates()

	limit := func(h http.Handler) http.Handler { return h }
	if d.Config.RateLimit.Limit > 0 {
		limit = middleware.NewRateLimiter(d.Config.RateLimit.Limit, d.Config.RateLimit.Window).Middleware
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", CheckFormHandler(checkTmpl))
	mux.Handle("POST /check", limit(CheckHandler(d.Validator, d.Store, checkTmpl)))
	mux.Handle("POST /api/validate", limit(ValidateAPIHandler(d.Validator, d.Store)))
	mux.HandleFunc("GET /stats", StatsHandler(d.Store, statsTmpl))
	mux.HandleFunc("GET /api/stats", StatsAPIHandler(d.Store))
	mux.HandleFunc("GET /healthz", HealthHandler)

	var inner http.Handler = mux
	if d.Registry != nil && d.Config.Metrics.Enabled {
		mux.Handle("GET "+d.Config.Metrics.Path, promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
		// Wraps the mux directly so it can label by route pattern.
		inner = middleware.NewMetrics(d.Registry, metrics.Namespace, d.Config.Metrics.Path, "/healthz").Middleware(mux)
	}

	return middleware.Chain(inner,
		middleware.Logger(d.Logger),
		middleware.CSRF(d.Config.CSRF),
	)
}

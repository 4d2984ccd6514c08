package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tallysync/internal/platform/metrics"
	"tallysync/pkg/platform/httputil"
	"tallysync/pkg/platform/middleware/identity"
	"tallysync/pkg/platform/middleware/metadata"
	"tallysync/pkg/platform/middleware/request"
)

// Registrar mounts a bounded context's routes.
type Registrar interface {
	Register(r chi.Router)
}

// Deps is everything the router needs. Handlers are mounted behind identity.
type Deps struct {
	Logger         *slog.Logger
	Resolver       identity.Resolver
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
	Handlers       []Registrar

	// RateLimit runs after identity so budgets are per caller. Optional.
	RateLimit func(http.Handler) http.Handler
}

// NewRouter builds the public HTTP surface. /healthz and /metrics are open;
// every /v1 route requires a tenant identity from the gateway.
func NewRouter(d Deps) http.Handler {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	r := chi.NewRouter()
	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(request.Logger(d.Logger))
	r.Use(metadata.ClientMetadata)
	r.Use(metrics.LatencyMiddleware(d.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(d.RequestTimeout))
		r.Use(identity.RequireIdentity(d.Resolver, d.Logger))
		if d.RateLimit != nil {
			r.Use(d.RateLimit)
		}
		for _, h := range d.Handlers {
			h.Register(r)
		}
	})
	return r
}

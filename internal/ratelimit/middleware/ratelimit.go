// Package middleware throttles each caller of the /v1 API. A device that
// replays its offline queue in a tight loop must not starve other witnesses.
package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"tallysync/internal/ratelimit/metrics"
	"tallysync/internal/ratelimit/models"
	dErrors "tallysync/pkg/domain-errors"
	"tallysync/pkg/platform/circuit"
	"tallysync/pkg/platform/httputil"
	"tallysync/pkg/requestcontext"
)

// Limiter admits or refuses one request under key.
type Limiter interface {
	Allow(ctx context.Context, key string, limit models.Limit) (*models.Result, error)
}

// Middleware enforces per-class limits keyed by tenant and subject, so it
// must run after identity resolution. Limiter errors fail open; after
// repeated errors the breaker switches to the fallback until the primary
// recovers.
type Middleware struct {
	primary  Limiter
	fallback Limiter
	breaker  *circuit.Breaker
	limits   map[models.Class]models.Limit
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

func WithFallback(l Limiter) Option {
	return func(m *Middleware) {
		m.fallback = l
	}
}

func WithLimit(class models.Class, limit models.Limit) Option {
	return func(m *Middleware) {
		if limit.Requests > 0 && limit.Window > 0 {
			m.limits[class] = limit
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Middleware) {
		m.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

// WithDisabled turns the middleware into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(primary Limiter, opts ...Option) *Middleware {
	m := &Middleware{
		primary: primary,
		breaker: circuit.New("rate-limit", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(3)),
		limits:  make(map[models.Class]models.Limit),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		m.logger.Info("rate limiting disabled")
	}
	return m
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := models.ClassFor(r.Method)
		limit, ok := m.limits[class]
		if m.disabled || !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := models.Key(class, requestcontext.TenantID(ctx), requestcontext.SubjectID(ctx))
		result, degraded, err := m.check(ctx, key, limit)
		if err != nil {
			m.logger.ErrorContext(ctx, "rate limit check failed",
				"request_id", requestcontext.RequestID(ctx),
				"class", string(class),
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		if degraded {
			w.Header().Set("X-RateLimit-Status", "degraded")
		}
		addHeaders(w, result)
		if !result.Allowed {
			m.metrics.IncRejection(string(class))
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"tenant_id", requestcontext.TenantID(ctx).String(),
				"subject_id", requestcontext.SubjectID(ctx).String(),
				"class", string(class),
			)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result)))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, retry later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// check asks the primary first so the breaker can observe recovery.
func (m *Middleware) check(ctx context.Context, key string, limit models.Limit) (*models.Result, bool, error) {
	result, err := m.primary.Allow(ctx, key, limit)
	if err == nil {
		usePrimary, change := m.breaker.RecordSuccess()
		if change.Closed {
			m.metrics.SetDegraded(false)
			m.logger.InfoContext(ctx, "rate limit store recovered")
		}
		if usePrimary || m.fallback == nil {
			return result, false, nil
		}
	} else {
		m.metrics.IncStoreError()
		useFallback, change := m.breaker.RecordFailure()
		if change.Opened {
			m.metrics.SetDegraded(true)
			m.logger.WarnContext(ctx, "rate limit store unhealthy, enforcing per process", "error", err)
		}
		if !useFallback || m.fallback == nil {
			return nil, false, err
		}
	}

	result, err = m.fallback.Allow(ctx, key, limit)
	return result, true, err
}

func addHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func retryAfterSeconds(result *models.Result) int {
	secs := int(math.Ceil(result.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

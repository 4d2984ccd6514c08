package middleware

//go:generate mockgen -source=ratelimit.go -destination=mocks/mocks.go -package=mocks

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tallysync/internal/ratelimit/metrics"
	"tallysync/internal/ratelimit/middleware/mocks"
	"tallysync/internal/ratelimit/models"
	"tallysync/internal/ratelimit/store/bucket"
	"tallysync/pkg/testutil"
)

type RateLimitSuite struct {
	suite.Suite
	primary  *mocks.MockLimiter
	fallback *bucket.InMemory
	metrics  *metrics.Metrics
	handler  http.Handler
	reached  int
}

func TestRateLimitSuite(t *testing.T) {
	suite.Run(t, new(RateLimitSuite))
}

var writeLimit = models.Limit{Requests: 2, Window: time.Minute}

func (s *RateLimitSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.primary = mocks.NewMockLimiter(ctrl)
	s.fallback = bucket.New()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.reached = 0
	mw := New(s.primary,
		WithFallback(s.fallback),
		WithLimit(models.ClassWrite, writeLimit),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	)
	s.handler = mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.reached++
		w.WriteHeader(http.StatusNoContent)
	}))
}

func (s *RateLimitSuite) submit() *http.Request {
	return testutil.WithIdentity(testutil.NewRequest(s.T(), http.MethodPost, "/v1/tallies"), "t1", "witness-1")
}

func (s *RateLimitSuite) TestAllowedRequestCarriesHeaders() {
	s.primary.EXPECT().Allow(gomock.Any(), "ratelimit:write:t1:witness-1", writeLimit).
		Return(&models.Result{Allowed: true, Limit: 2, Remaining: 1, ResetAt: time.Unix(1773000000, 0)}, nil)

	rr := testutil.DoRequest(s.handler, s.submit())
	s.Equal(http.StatusNoContent, rr.Code)
	s.Equal("2", rr.Header().Get("X-RateLimit-Limit"))
	s.Equal("1", rr.Header().Get("X-RateLimit-Remaining"))
	s.Equal("1773000000", rr.Header().Get("X-RateLimit-Reset"))
	s.Empty(rr.Header().Get("X-RateLimit-Status"))
}

func (s *RateLimitSuite) TestRefusalIs429WithRetryAfter() {
	s.primary.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.Result{Limit: 2, RetryAfter: 1500 * time.Millisecond, ResetAt: time.Now()}, nil)

	rr := testutil.DoRequest(s.handler, s.submit())
	testutil.AssertStatusAndError(s.T(), rr, http.StatusTooManyRequests, "rate_limited")
	s.Equal("2", rr.Header().Get("Retry-After"))
	s.Zero(s.reached)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Rejections.WithLabelValues("write")))
}

func (s *RateLimitSuite) TestUnlimitedClassSkipsTheLimiter() {
	req := testutil.WithIdentity(testutil.NewRequest(s.T(), http.MethodGet, "/v1/tallies/kennedy/1"), "t1", "viewer")
	rr := testutil.DoRequest(s.handler, req)
	s.Equal(http.StatusNoContent, rr.Code)
}

func (s *RateLimitSuite) TestStoreErrorsFailOpenThenDegrade() {
	s.primary.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("redis: connection refused")).Times(7)

	for i := 0; i < 4; i++ {
		rr := testutil.DoRequest(s.handler, s.submit())
		s.Equal(http.StatusNoContent, rr.Code, "fails open before the breaker opens")
		s.Empty(rr.Header().Get("X-RateLimit-Status"))
	}

	// The fifth error opens the breaker; the fallback now enforces the limit.
	for i := 0; i < 2; i++ {
		rr := testutil.DoRequest(s.handler, s.submit())
		s.Equal(http.StatusNoContent, rr.Code)
		s.Equal("degraded", rr.Header().Get("X-RateLimit-Status"))
	}
	rr := testutil.DoRequest(s.handler, s.submit())
	s.Equal(http.StatusTooManyRequests, rr.Code)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Degraded))
	s.Equal(7.0, promtest.ToFloat64(s.metrics.StoreErrors))
}

func (s *RateLimitSuite) TestRecoveryNeedsConsecutiveSuccesses() {
	gomock.InOrder(
		s.primary.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("redis down")).Times(5),
		s.primary.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&models.Result{Allowed: true, Limit: 2, Remaining: 1}, nil).Times(3),
	)
	for i := 0; i < 5; i++ {
		testutil.DoRequest(s.handler, s.submit())
	}

	rr := testutil.DoRequest(s.handler, s.submit())
	s.Equal("degraded", rr.Header().Get("X-RateLimit-Status"), "first success keeps the fallback")
	rr = testutil.DoRequest(s.handler, s.submit())
	s.Equal("degraded", rr.Header().Get("X-RateLimit-Status"))
	rr = testutil.DoRequest(s.handler, s.submit())
	s.Empty(rr.Header().Get("X-RateLimit-Status"), "third success closes the breaker")
	s.Equal(http.StatusNoContent, rr.Code)
	s.Equal(0.0, promtest.ToFloat64(s.metrics.Degraded))
}

func (s *RateLimitSuite) TestDisabledPassesThrough() {
	h := New(s.primary, WithDisabled(true), WithLimit(models.ClassWrite, writeLimit),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))).
		Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))
	rr := testutil.DoRequest(h, s.submit())
	s.Equal(http.StatusNoContent, rr.Code)
}

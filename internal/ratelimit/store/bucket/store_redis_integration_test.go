//go:build integration

package bucket_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tallysync/internal/ratelimit/models"
	"tallysync/internal/ratelimit/store/bucket"
	"tallysync/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *bucket.Redis
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = bucket.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

// TestConcurrentCallersShareOneBudget verifies the script admits exactly
// limit requests however many replicas race.
func (s *RedisStoreSuite) TestConcurrentCallersShareOneBudget() {
	ctx := context.Background()
	limit := models.Limit{Requests: 10, Window: time.Minute}
	const goroutines = 50

	var allowed, denied atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.store.Allow(ctx, "ratelimit:write:t1:witness-1", limit)
			s.Require().NoError(err)
			if res.Allowed {
				allowed.Add(1)
			} else {
				denied.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(10), allowed.Load())
	s.Equal(int32(goroutines-10), denied.Load())
}

func (s *RedisStoreSuite) TestRefusalCarriesRetryAfter() {
	ctx := context.Background()
	limit := models.Limit{Requests: 1, Window: 2 * time.Second}

	first, err := s.store.Allow(ctx, "k", limit)
	s.Require().NoError(err)
	s.True(first.Allowed)
	s.Equal(0, first.Remaining)

	second, err := s.store.Allow(ctx, "k", limit)
	s.Require().NoError(err)
	s.False(second.Allowed)
	s.Positive(second.RetryAfter)
	s.LessOrEqual(second.RetryAfter, 2*time.Second)

	ttl, err := s.redis.Client.PTTL(ctx, "k").Result()
	s.Require().NoError(err)
	s.Positive(ttl, "idle keys expire")
}

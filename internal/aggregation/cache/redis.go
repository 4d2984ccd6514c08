package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"tallysync/internal/aggregation/models"
	id "tallysync/pkg/domain"
	"tallysync/pkg/platform/circuit"
)

const (
	keyPrefix = "summary:"

	// NoGeneration is returned by reads that did not reach Redis. Writes
	// carrying it are dropped.
	NoGeneration int64 = -1

	defaultTTL      = 5 * time.Second
	defaultCooldown = 10 * time.Second
)

// setIfGenerationScript stores a summary only while the tenant generation
// still equals the one observed by the read that missed.
var setIfGenerationScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current ~= tonumber(ARGV[1]) then
  return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// RedisCache is a read-through cache of campaign summaries. Entries are keyed
// by a per-tenant generation counter, so Invalidate is a single INCR and old
// entries simply age out. A summary computed across an Invalidate is never
// stored.
//
// While Redis is failing the breaker opens and reads and writes are skipped
// until the cooldown lets one probe through. Invalidate is always attempted.
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	cooldown  time.Duration
	logger    *slog.Logger
	breaker   *circuit.Breaker
	nextProbe atomic.Int64
}

type Option func(*RedisCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCooldown(d time.Duration) Option {
	return func(c *RedisCache) {
		c.cooldown = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

func NewRedis(client *redis.Client, opts ...Option) *RedisCache {
	c := &RedisCache{
		client:   client,
		ttl:      defaultTTL,
		cooldown: defaultCooldown,
		logger:   slog.Default(),
		breaker:  circuit.New("summary-cache", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(1)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// GetCampaign returns the cached summary, or nil on a miss, together with the
// tenant generation it read. Pass that generation to SetCampaign. While the
// breaker is open it returns (nil, NoGeneration, nil).
func (c *RedisCache) GetCampaign(ctx context.Context, tenantID id.TenantID, key string) (*models.CampaignSummary, int64, error) {
	if !c.allow() {
		return nil, NoGeneration, nil
	}
	gen, err := c.generation(ctx, tenantID)
	if err != nil {
		return nil, NoGeneration, c.fail(ctx, err)
	}
	raw, err := c.client.Get(ctx, summaryKey(tenantID, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.succeed(ctx)
		return nil, gen, nil
	}
	if err != nil {
		return nil, NoGeneration, c.fail(ctx, err)
	}
	c.succeed(ctx)

	var summary models.CampaignSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, gen, fmt.Errorf("decode cached summary: %w", err)
	}
	return &summary, gen, nil
}

// SetCampaign stores summary under gen. The write is dropped when the tenant
// was invalidated after gen was read.
func (c *RedisCache) SetCampaign(ctx context.Context, tenantID id.TenantID, gen int64, key string, summary *models.CampaignSummary) error {
	if gen < 0 || !c.allow() {
		return nil
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	keys := []string{generationKey(tenantID), summaryKey(tenantID, gen, key)}
	if err := setIfGenerationScript.Run(ctx, c.client, keys, gen, raw, c.ttl.Milliseconds()).Err(); err != nil {
		return c.fail(ctx, err)
	}
	c.succeed(ctx)
	return nil
}

// Invalidate bumps the tenant generation so every cached summary misses.
// If it fails, staleness is bounded by the entry TTL.
func (c *RedisCache) Invalidate(ctx context.Context, tenantID id.TenantID) error {
	if err := c.client.Incr(ctx, generationKey(tenantID)).Err(); err != nil {
		return c.fail(ctx, err)
	}
	return nil
}

func (c *RedisCache) generation(ctx context.Context, tenantID id.TenantID) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(tenantID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisCache) allow() bool {
	if !c.breaker.IsOpen() {
		return true
	}
	next := c.nextProbe.Load()
	now := time.Now().UnixNano()
	if now < next {
		return false
	}
	return c.nextProbe.CompareAndSwap(next, now+c.cooldown.Nanoseconds())
}

func (c *RedisCache) fail(ctx context.Context, err error) error {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.nextProbe.Store(time.Now().Add(c.cooldown).UnixNano())
		c.logger.WarnContext(ctx, "summary cache circuit opened", "error", err)
	}
	return fmt.Errorf("summary cache: %w", err)
}

func (c *RedisCache) succeed(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "summary cache circuit closed")
	}
}

// Keys share a {tenant} hash tag so the script touches a single slot.
func generationKey(tenantID id.TenantID) string {
	return fmt.Sprintf("%s{%s}:gen", keyPrefix, tenantID)
}

func summaryKey(tenantID id.TenantID, gen int64, key string) string {
	return fmt.Sprintf("%s{%s}:campaign:%d:%s", keyPrefix, tenantID, gen, key)
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "tallysync/pkg/platform/strings"
)

// Config is the full process configuration, read from the environment so main
// stays lean.
type Config struct {
	Environment string
	Server      Server
	Database    Database
	Redis       RedisConfig
	Kafka       KafkaConfig
	Outbox      Outbox
	RateLimit   RateLimit
	Identity    Identity
	Summary     Summary
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Database selects the tally/voter/station backing store. An empty URL keeps
// everything in memory, which is only suitable for development and tests.
type Database struct {
	URL             string
	Driver          string // "postgres" (lib/pq) or "pgx"
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	StationsFile    string // JSON seed for the in-memory station directory
}

// RedisConfig configures the summary cache. An empty URL disables caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures outbound tally notifications. No brokers disables them.
type KafkaConfig struct {
	Brokers     []string
	Topic       string
	ClientID    string
	Partitions  int32
	Replication int16
}

// Outbox tunes the relay that moves committed tally events to the broker.
// It only runs against Postgres.
type Outbox struct {
	Disabled     bool
	PollInterval time.Duration
	BatchSize    int
}

// RateLimit sets per-caller budgets for /v1. Zero disables a class.
type RateLimit struct {
	Disabled bool
	Window   time.Duration
	Writes   int
	Reads    int
}

// Identity configures how the trust boundary's assertion is read.
type Identity struct {
	// JWTSigningKey switches from gateway headers to HS256 bearer tokens.
	JWTSigningKey string
}

// Summary tunes the aggregation read path.
type Summary struct {
	CacheTTL     time.Duration
	DefaultLimit int
	MaxLimit     int
}

// IsDevelopment reports whether the process runs in the development environment.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		Environment: envOr("TALLYSYNC_ENV", "development"),
		Server: Server{
			Addr: envOr("TALLYSYNC_ADDR", ":8080"),
		},
		Database: Database{
			URL:          os.Getenv("DATABASE_URL"),
			Driver:       envOr("DB_DRIVER", "postgres"),
			AutoMigrate:  os.Getenv("DB_AUTO_MIGRATE") == "true",
			StationsFile: os.Getenv("STATIONS_FILE"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Kafka: KafkaConfig{
			Brokers:  pstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:    envOr("KAFKA_TALLY_TOPIC", "tallysync.tally-events"),
			ClientID: envOr("KAFKA_CLIENT_ID", "tallysync"),
		},
		Outbox: Outbox{
			Disabled: os.Getenv("OUTBOX_DISABLED") == "true",
		},
		RateLimit: RateLimit{
			Disabled: os.Getenv("RATE_LIMIT_DISABLED") == "true",
		},
		Identity: Identity{
			JWTSigningKey: os.Getenv("IDENTITY_JWT_SIGNING_KEY"),
		},
	}

	var err error
	if cfg.Server.RequestTimeout, err = durationOr("TALLYSYNC_REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Server.ShutdownTimeout, err = durationOr("TALLYSYNC_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Database.MaxOpenConns, err = intOr("DB_MAX_OPEN_CONNS", 25); err != nil {
		return Config{}, err
	}
	if cfg.Database.MaxIdleConns, err = intOr("DB_MAX_IDLE_CONNS", 10); err != nil {
		return Config{}, err
	}
	if cfg.Database.ConnMaxLifetime, err = durationOr("DB_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Redis.PoolSize, err = intOr("REDIS_POOL_SIZE", 20); err != nil {
		return Config{}, err
	}
	if cfg.Redis.MinIdleConns, err = intOr("REDIS_MIN_IDLE_CONNS", 2); err != nil {
		return Config{}, err
	}
	if cfg.Redis.DialTimeout, err = durationOr("REDIS_DIAL_TIMEOUT", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Redis.ReadTimeout, err = durationOr("REDIS_READ_TIMEOUT", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.Redis.WriteTimeout, err = durationOr("REDIS_WRITE_TIMEOUT", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	partitions, err := intOr("KAFKA_TALLY_PARTITIONS", 6)
	if err != nil {
		return Config{}, err
	}
	cfg.Kafka.Partitions = int32(partitions)
	replication, err := intOr("KAFKA_TALLY_REPLICATION", 1)
	if err != nil {
		return Config{}, err
	}
	cfg.Kafka.Replication = int16(replication)
	if cfg.Outbox.PollInterval, err = durationOr("OUTBOX_POLL_INTERVAL", time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Outbox.BatchSize, err = intOr("OUTBOX_BATCH_SIZE", 100); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.Window, err = durationOr("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.Writes, err = intOr("RATE_LIMIT_WRITES", 120); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.Reads, err = intOr("RATE_LIMIT_READS", 600); err != nil {
		return Config{}, err
	}
	if cfg.Summary.CacheTTL, err = durationOr("SUMMARY_CACHE_TTL", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Summary.DefaultLimit, err = intOr("SUMMARY_DEFAULT_LIMIT", 20); err != nil {
		return Config{}, err
	}
	if cfg.Summary.MaxLimit, err = intOr("SUMMARY_MAX_LIMIT", 100); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or pgx, got %q", c.Database.Driver)
	}
	if c.Summary.DefaultLimit <= 0 || c.Summary.MaxLimit < c.Summary.DefaultLimit {
		return fmt.Errorf("summary limits invalid: default=%d max=%d", c.Summary.DefaultLimit, c.Summary.MaxLimit)
	}
	if c.Outbox.PollInterval <= 0 || c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("outbox settings invalid: interval=%s batch=%d", c.Outbox.PollInterval, c.Outbox.BatchSize)
	}
	if !c.IsDevelopment() && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required outside development")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"tallysync/internal/aggregation/cache"
	aggHandler "tallysync/internal/aggregation/handler"
	aggMetrics "tallysync/internal/aggregation/metrics"
	aggService "tallysync/internal/aggregation/service"
	"tallysync/internal/events"
	"tallysync/internal/events/outbox"
	"tallysync/internal/platform/config"
	"tallysync/internal/platform/httpserver"
	"tallysync/internal/platform/kafka"
	"tallysync/internal/platform/logger"
	"tallysync/internal/platform/metrics"
	"tallysync/internal/platform/postgres"
	"tallysync/internal/platform/redis"
	rlMetrics "tallysync/internal/ratelimit/metrics"
	rlMiddleware "tallysync/internal/ratelimit/middleware"
	rlModels "tallysync/internal/ratelimit/models"
	"tallysync/internal/ratelimit/store/bucket"
	stationStore "tallysync/internal/station/store"
	tallyHandler "tallysync/internal/tally/handler"
	tallyMetrics "tallysync/internal/tally/metrics"
	tallyService "tallysync/internal/tally/service"
	tallyStore "tallysync/internal/tally/store"
	httptransport "tallysync/internal/transport/http"
	voterHandler "tallysync/internal/voter/handler"
	voterService "tallysync/internal/voter/service"
	voterStore "tallysync/internal/voter/store"
	"tallysync/pkg/platform/middleware/identity"
	"tallysync/pkg/platform/tx"
)

// eventSink publishes directly and delivers outbox rows.
type eventSink interface {
	events.Publisher
	outbox.Sink
}

type stores struct {
	stations aggService.StationDirectory
	tallies  interface {
		tallyService.Store
		aggService.TallyStats
	}
	voters voterService.Store
	db     *sql.DB
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.IsDevelopment())
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	st, err := buildStores(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialise stores", "error", err)
		os.Exit(1)
	}
	if st.db != nil {
		defer st.db.Close()
	}

	publisher, closePublisher, err := buildPublisher(ctx, cfg, log, reg)
	if err != nil {
		log.Error("failed to initialise event publisher", "error", err)
		os.Exit(1)
	}
	defer closePublisher()

	tallyOpts := []tallyService.Option{
		tallyService.WithLogger(log),
		tallyService.WithMetrics(tallyMetrics.New(reg)),
		tallyService.WithPublisher(publisher),
	}
	relayDone := make(chan struct{})
	if st.db != nil && !cfg.Outbox.Disabled {
		runner := tx.NewRunner(st.db)
		store := outbox.NewPostgres(st.db)
		tallyOpts = append(tallyOpts, tallyService.WithOutbox(runner, store))
		relay := outbox.NewRelay(store, publisher, runner,
			outbox.WithRelayLogger(log),
			outbox.WithBatchSize(cfg.Outbox.BatchSize),
			outbox.WithInterval(cfg.Outbox.PollInterval),
			outbox.WithRelayMetrics(reg),
		)
		go func() {
			defer close(relayDone)
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("outbox relay stopped", "error", err)
			}
		}()
		log.Info("tally outbox enabled", "interval", cfg.Outbox.PollInterval, "batch", cfg.Outbox.BatchSize)
	} else {
		close(relayDone)
	}
	aggOpts := []aggService.Option{
		aggService.WithLogger(log),
		aggService.WithMetrics(aggMetrics.New(reg)),
		aggService.WithLimits(cfg.Summary.DefaultLimit, cfg.Summary.MaxLimit),
	}
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	fallbackLimiter := bucket.New()
	var limiter rlMiddleware.Limiter = fallbackLimiter
	if rc != nil {
		limiter = bucket.NewRedis(rc.Client)
		defer rc.Close()
		summaryCache := cache.NewRedis(rc.Client, cache.WithTTL(cfg.Summary.CacheTTL), cache.WithLogger(log))
		tallyOpts = append(tallyOpts, tallyService.WithSummaryInvalidator(summaryCache))
		aggOpts = append(aggOpts, aggService.WithCache(summaryCache))
		log.Info("summary cache enabled", "ttl", cfg.Summary.CacheTTL)
	}

	rateLimit := rlMiddleware.New(limiter,
		rlMiddleware.WithFallback(fallbackLimiter),
		rlMiddleware.WithLimit(rlModels.ClassWrite, rlModels.Limit{Requests: cfg.RateLimit.Writes, Window: cfg.RateLimit.Window}),
		rlMiddleware.WithLimit(rlModels.ClassRead, rlModels.Limit{Requests: cfg.RateLimit.Reads, Window: cfg.RateLimit.Window}),
		rlMiddleware.WithDisabled(cfg.RateLimit.Disabled),
		rlMiddleware.WithLogger(log),
		rlMiddleware.WithMetrics(rlMetrics.New(reg)),
	)

	var resolver identity.Resolver = identity.HeaderResolver{}
	if cfg.Identity.JWTSigningKey != "" {
		resolver = identity.NewJWTResolver(cfg.Identity.JWTSigningKey)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Resolver:       resolver,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      rateLimit.Handler,
		Handlers: []httptransport.Registrar{
			tallyHandler.New(tallyService.New(st.tallies, st.stations, tallyOpts...), log),
			voterHandler.New(voterService.New(st.voters, st.stations, voterService.WithLogger(log)), log),
			aggHandler.New(aggService.New(st.stations, st.tallies, aggOpts...), log),
		},
	})

	srv := httpserver.New(cfg.Server, router)
	log.Info("starting tallysync", "addr", cfg.Server.Addr, "env", cfg.Environment)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	// The publisher is closed by a deferred call, so the relay must stop first.
	<-relayDone
}

// buildStores selects Postgres when DATABASE_URL is set, in-memory otherwise.
func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*stores, error) {
	if cfg.Database.URL == "" {
		stations := stationStore.NewInMemory()
		if cfg.Database.StationsFile != "" {
			var err error
			if stations, err = stationStore.LoadFile(cfg.Database.StationsFile); err != nil {
				return nil, err
			}
		}
		log.Warn("using in-memory stores; data is lost on restart")
		return &stores{
			stations: stations,
			tallies:  tallyStore.NewInMemory(),
			voters:   voterStore.NewInMemory(),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &stores{
		stations: stationStore.NewPostgres(db),
		tallies:  tallyStore.NewPostgres(db),
		voters:   voterStore.NewPostgres(db),
		db:       db,
	}, nil
}

// buildPublisher returns the Kafka publisher when brokers are configured and
// a log-only publisher otherwise.
func buildPublisher(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (eventSink, func(), error) {
	client, err := kafka.NewClient(cfg.Kafka)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return events.NewLogPublisher(log), func() {}, nil
	}
	if err := kafka.EnsureTopic(ctx, client, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
		client.Close()
		return nil, nil, err
	}
	p := events.NewKafkaPublisher(client, cfg.Kafka.Topic, events.WithKafkaLogger(log), events.WithKafkaMetrics(reg))
	return p, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := p.Close(ctx); err != nil {
			log.Warn("failed to flush events", "error", err)
		}
	}, nil
}

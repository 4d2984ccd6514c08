package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"tallysync/internal/aggregation/metrics"
	"tallysync/internal/aggregation/models"
	stationModels "tallysync/internal/station/models"
	tallyModels "tallysync/internal/tally/models"
	id "tallysync/pkg/domain"
	dErrors "tallysync/pkg/domain-errors"
	"tallysync/pkg/platform/sentinel"
	"tallysync/pkg/requestcontext"
)

type StationDirectory interface {
	FindByID(ctx context.Context, tenantID id.TenantID, stationID id.StationID) (*stationModels.Station, error)
	List(ctx context.Context, tenantID id.TenantID, filter stationModels.Filter) ([]*stationModels.Station, error)
}

// TallyStats returns per-station rollups from a single store read. An empty
// stationID covers every station of the tenant.
type TallyStats interface {
	StationStats(ctx context.Context, tenantID id.TenantID, stationID id.StationID) (map[id.StationID]tallyModels.StationTally, error)
}

// Cache holds campaign summaries per tenant and query key. A miss returns a
// nil summary and the tenant generation it observed; SetCampaign stores only
// while that generation is still current.
type Cache interface {
	GetCampaign(ctx context.Context, tenantID id.TenantID, key string) (*models.CampaignSummary, int64, error)
	SetCampaign(ctx context.Context, tenantID id.TenantID, gen int64, key string, summary *models.CampaignSummary) error
}

// Service computes live rollups. It never writes.
type Service struct {
	stations     StationDirectory
	tallies      TallyStats
	cache        Cache
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	defaultLimit int
	maxLimit     int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCache enables read-through caching of campaign summaries.
func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithLimits(defaultLimit, maxLimit int) Option {
	return func(s *Service) {
		s.defaultLimit = defaultLimit
		s.maxLimit = maxLimit
	}
}

func New(stations StationDirectory, tallies TallyStats, opts ...Option) *Service {
	s := &Service{
		stations:     stations,
		tallies:      tallies,
		logger:       slog.Default(),
		tracer:       otel.Tracer("tallysync/internal/aggregation/service"),
		defaultLimit: models.DefaultLimit,
		maxLimit:     models.MaxLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetStationSummary returns the rollup for one station of the tenant.
func (s *Service) GetStationSummary(ctx context.Context, tenantID id.TenantID, stationID id.StationID) (*models.StationSummary, error) {
	ctx, span := s.tracer.Start(ctx, "aggregation.GetStationSummary", trace.WithAttributes(
		attribute.String("tenant_id", tenantID.String()),
		attribute.String("station_id", stationID.String()),
	))
	defer span.End()

	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "tenant is required")
	}

	var (
		station *stationModels.Station
		stats   map[id.StationID]tallyModels.StationTally
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		station, err = s.stations.FindByID(gctx, tenantID, stationID)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.tallies.StationStats(gctx, tenantID, stationID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "polling station not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot failed")
		return nil, s.storageError(err, "failed to load station summary")
	}

	summary := models.Summarize(station, stats[stationID])
	return &summary, nil
}

// GetCampaignSummary returns one page of station rollups plus grand totals
// over every station matching the query's filters.
func (s *Service) GetCampaignSummary(ctx context.Context, tenantID id.TenantID, q models.SummaryQuery) (*models.CampaignSummary, error) {
	q.Normalize(s.defaultLimit, s.maxLimit)
	ctx, span := s.tracer.Start(ctx, "aggregation.GetCampaignSummary", trace.WithAttributes(
		attribute.String("tenant_id", tenantID.String()),
		attribute.Int("page", q.Page),
		attribute.Int("limit", q.Limit),
	))
	defer span.End()

	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "tenant is required")
	}

	key := q.CacheKey()
	cached, gen, storable := s.fromCache(ctx, tenantID, key)
	if cached != nil {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}

	start := time.Now()
	var (
		stations []*stationModels.Station
		stats    map[id.StationID]tallyModels.StationTally
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stations, err = s.stations.List(gctx, tenantID, q.Filter())
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.tallies.StationStats(gctx, tenantID, "")
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot failed")
		return nil, s.storageError(err, "failed to load campaign summary")
	}
	s.metrics.ObserveSnapshot(start)

	summary := paginate(stations, stats, q)
	if storable {
		s.toCache(ctx, tenantID, gen, key, summary)
	}
	return summary, nil
}

func paginate(stations []*stationModels.Station, stats map[id.StationID]tallyModels.StationTally, q models.SummaryQuery) *models.CampaignSummary {
	out := &models.CampaignSummary{
		Items: []models.StationSummary{},
		Total: len(stations),
		Page:  q.Page,
		Limit: q.Limit,
	}
	out.TotalPages = (out.Total + q.Limit - 1) / q.Limit
	offset := (q.Page - 1) * q.Limit
	for i, st := range stations {
		summary := models.Summarize(st, stats[st.ID])
		out.Totals.Add(summary)
		if i >= offset && i < offset+q.Limit {
			out.Items = append(out.Items, summary)
		}
	}
	return out
}

// fromCache reports whether a computed summary may be written back. It may
// not after a failed read, since the generation it saw is unknown.
func (s *Service) fromCache(ctx context.Context, tenantID id.TenantID, key string) (*models.CampaignSummary, int64, bool) {
	if s.cache == nil {
		return nil, 0, false
	}
	cached, gen, err := s.cache.GetCampaign(ctx, tenantID, key)
	if err != nil {
		s.metrics.IncCacheError()
		s.logger.WarnContext(ctx, "summary cache read failed",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID.String(),
			"error", err,
		)
		return nil, 0, false
	}
	if cached == nil {
		s.metrics.IncCacheLookup("miss")
		return nil, gen, true
	}
	s.metrics.IncCacheLookup("hit")
	return cached, gen, false
}

func (s *Service) toCache(ctx context.Context, tenantID id.TenantID, gen int64, key string, summary *models.CampaignSummary) {
	if err := s.cache.SetCampaign(ctx, tenantID, gen, key, summary); err != nil {
		s.metrics.IncCacheError()
		s.logger.WarnContext(ctx, "summary cache write failed",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID.String(),
			"error", err,
		)
	}
}

func (s *Service) storageError(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
}

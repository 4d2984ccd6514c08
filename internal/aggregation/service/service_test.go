package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tallysync/internal/aggregation/metrics"
	"tallysync/internal/aggregation/models"
	"tallysync/internal/aggregation/service/mocks"
	stationModels "tallysync/internal/station/models"
	stationStore "tallysync/internal/station/store"
	tallyModels "tallysync/internal/tally/models"
	tallyStore "tallysync/internal/tally/store"
	id "tallysync/pkg/domain"
	dErrors "tallysync/pkg/domain-errors"
)

type AggregationServiceSuite struct {
	suite.Suite
	ctx      context.Context
	stations *stationStore.InMemory
	tallies  *tallyStore.InMemory
	service  *Service
	now      time.Time
}

func TestAggregationServiceSuite(t *testing.T) {
	suite.Run(t, new(AggregationServiceSuite))
}

func (s *AggregationServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 8, 17, 0, 0, 0, time.UTC)
	s.stations = stationStore.NewInMemory()
	s.tallies = tallyStore.NewInMemory()
	s.service = New(s.stations, s.tallies, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	for _, st := range []*stationModels.Station{
		{TenantID: "t1", ID: "kennedy", Name: "Colegio Kennedy", Department: "Bogotá D.C.", Municipality: "Bogotá", TotalTables: 20},
		{TenantID: "t1", ID: "bolivar", Name: "Plaza Bolívar", Department: "Bogotá D.C.", Municipality: "Bogotá", TotalTables: 4},
		{TenantID: "t1", ID: "envigado", Name: "Escuela Envigado", Department: "Antioquia", Municipality: "Envigado", TotalTables: 6},
		{TenantID: "t1", ID: "vereda", Name: "Vereda El Alto", Department: "Antioquia", Municipality: "Rionegro", TotalTables: 0},
		{TenantID: "t2", ID: "kennedy", Name: "Colegio Kennedy", Department: "Bogotá D.C.", Municipality: "Bogotá", TotalTables: 20},
	} {
		s.Require().NoError(s.stations.Put(st))
	}
}

func (s *AggregationServiceSuite) report(tenant id.TenantID, station id.StationID, table, candidate, total int) tallyModels.TallyReport {
	r := tallyModels.TallyReport{
		TenantID: tenant, StationID: station, TableNumber: table,
		CandidateVotes: candidate, TotalTableVotes: total,
		SubmitterID: "witness-1", ReceivedAt: s.now,
	}
	s.Require().NoError(s.tallies.InsertIfAbsent(s.ctx, &r))
	return r
}

func (s *AggregationServiceSuite) TestStationSummary() {
	s.Run("five of twenty tables is 25 percent", func() {
		for table := 1; table <= 5; table++ {
			s.report("t1", "kennedy", table, 100, 180)
		}

		got, err := s.service.GetStationSummary(s.ctx, "t1", "kennedy")
		s.Require().NoError(err)
		s.Equal(5, got.TablesReported)
		s.Equal(20, got.TotalTables)
		s.Equal(float64(25), got.Percentage)
		s.Equal(500, got.CandidateVotes)
		s.Equal(400, got.OpponentVotes)
		s.False(got.Approximate)
	})

	s.Run("open conflict moves a table to pending", func() {
		stored, err := s.tallies.Get(s.ctx, "t1", "kennedy", 1)
		s.Require().NoError(err)
		incoming := *stored
		incoming.CandidateVotes = 90
		s.Require().NoError(s.tallies.AppendConflict(s.ctx, tallyModels.NewConflictRecord(*stored, incoming, s.now)))

		got, err := s.service.GetStationSummary(s.ctx, "t1", "kennedy")
		s.Require().NoError(err)
		s.Equal(4, got.TablesReported)
		s.Equal(1, got.TablesPending)
		s.Equal(400, got.CandidateVotes)
		s.Equal(float64(20), got.Percentage)
	})

	s.Run("resolution returns the table to reported", func() {
		n, err := s.tallies.ResolveConflicts(s.ctx, "t1", "kennedy", 1, tallyModels.Resolution{ReviewerID: "reviewer-1", ResolvedAt: s.now})
		s.Require().NoError(err)
		s.Equal(1, n)

		got, err := s.service.GetStationSummary(s.ctx, "t1", "kennedy")
		s.Require().NoError(err)
		s.Equal(5, got.TablesReported)
		s.Zero(got.TablesPending)
	})

	s.Run("other tenant sees its own station only", func() {
		got, err := s.service.GetStationSummary(s.ctx, "t2", "kennedy")
		s.Require().NoError(err)
		s.Zero(got.TablesReported)
		s.Zero(got.CandidateVotes)
	})

	s.Run("zero tables is flagged approximate", func() {
		got, err := s.service.GetStationSummary(s.ctx, "t1", "vereda")
		s.Require().NoError(err)
		s.Zero(got.Percentage)
		s.True(got.Approximate)
	})

	s.Run("unknown station", func() {
		_, err := s.service.GetStationSummary(s.ctx, "t1", "nowhere")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AggregationServiceSuite) TestCampaignSummary() {
	s.report("t1", "kennedy", 1, 100, 180)
	s.report("t1", "kennedy", 2, 50, 60)
	s.report("t1", "envigado", 1, 30, 40)
	s.report("t2", "kennedy", 1, 999, 999)

	s.Run("ordered by name with grand totals", func() {
		got, err := s.service.GetCampaignSummary(s.ctx, "t1", models.SummaryQuery{})
		s.Require().NoError(err)
		s.Equal(4, got.Total)
		s.Equal(1, got.Page)
		s.Equal(models.DefaultLimit, got.Limit)
		s.Equal(1, got.TotalPages)
		names := make([]string, 0, len(got.Items))
		for _, it := range got.Items {
			names = append(names, it.Name)
		}
		s.Equal([]string{"Colegio Kennedy", "Escuela Envigado", "Plaza Bolívar", "Vereda El Alto"}, names)
		s.Equal(180, got.Totals.CandidateVotes)
		s.Equal(100, got.Totals.OpponentVotes)
		s.Equal(3, got.Totals.TablesReported)
		s.Equal(30, got.Totals.TotalTables)
		s.Equal(float64(10), got.Totals.Percentage)
	})

	s.Run("filters are case-insensitive", func() {
		got, err := s.service.GetCampaignSummary(s.ctx, "t1", models.SummaryQuery{Department: "antioquia", NameContains: "ENVI"})
		s.Require().NoError(err)
		s.Require().Len(got.Items, 1)
		s.Equal(id.StationID("envigado"), got.Items[0].StationID)
		s.Equal(1, got.Totals.Stations)
	})

	s.Run("totals cover every page", func() {
		got, err := s.service.GetCampaignSummary(s.ctx, "t1", models.SummaryQuery{Page: 2, Limit: 3})
		s.Require().NoError(err)
		s.Equal(4, got.Total)
		s.Equal(2, got.TotalPages)
		s.Require().Len(got.Items, 1)
		s.Equal("Vereda El Alto", got.Items[0].Name)
		s.Equal(180, got.Totals.CandidateVotes)
	})

	s.Run("page past the end is empty", func() {
		got, err := s.service.GetCampaignSummary(s.ctx, "t1", models.SummaryQuery{Page: 9, Limit: 3})
		s.Require().NoError(err)
		s.NotNil(got.Items)
		s.Empty(got.Items)
	})

	s.Run("limit is clamped", func() {
		got, err := s.service.GetCampaignSummary(s.ctx, "t1", models.SummaryQuery{Limit: 1000})
		s.Require().NoError(err)
		s.Equal(models.MaxLimit, got.Limit)
	})

	s.Run("tenant isolation", func() {
		got, err := s.service.GetCampaignSummary(s.ctx, "t2", models.SummaryQuery{})
		s.Require().NoError(err)
		s.Equal(1, got.Total)
		s.Equal(999, got.Totals.CandidateVotes)
	})

	s.Run("missing tenant", func() {
		_, err := s.service.GetCampaignSummary(s.ctx, "", models.SummaryQuery{})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AggregationServiceSuite) TestCampaignSummaryLargeTenant() {
	for i := 0; i < 250; i++ {
		s.Require().NoError(s.stations.Put(&stationModels.Station{
			TenantID: "t3", ID: id.StationID(fmt.Sprintf("st-%03d", i)), Name: fmt.Sprintf("Puesto %03d", i), TotalTables: 1,
		}))
	}
	got, err := s.service.GetCampaignSummary(s.ctx, "t3", models.SummaryQuery{Page: 3, Limit: 100})
	s.Require().NoError(err)
	s.Equal(250, got.Total)
	s.Equal(3, got.TotalPages)
	s.Require().Len(got.Items, 50)
	s.Equal("Puesto 200", got.Items[0].Name)
}

func (s *AggregationServiceSuite) TestCache() {
	ctrl := gomock.NewController(s.T())
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	s.Run("hit skips the store", func() {
		cache := mocks.NewMockCache(ctrl)
		stations := mocks.NewMockStationDirectory(ctrl)
		tallies := mocks.NewMockTallyStats(ctrl)
		cached := &models.CampaignSummary{Total: 7, Page: 1, Limit: 20}
		cache.EXPECT().GetCampaign(gomock.Any(), id.TenantID("t1"), gomock.Any()).Return(cached, int64(3), nil)

		svc := New(stations, tallies, WithCache(cache), WithMetrics(m))
		got, err := svc.GetCampaignSummary(s.ctx, "t1", models.SummaryQuery{})
		s.Require().NoError(err)
		s.Same(cached, got)
		s.Equal(float64(1), promtest.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	})

	s.Run("miss stores under the generation it read", func() {
		cache := mocks.NewMockCache(ctrl)
		cache.EXPECT().GetCampaign(gomock.Any(), id.TenantID("t1"), gomock.Any()).Return(nil, int64(7), nil)
		cache.EXPECT().SetCampaign(gomock.Any(), id.TenantID("t1"), int64(7), gomock.Any(), gomock.Any()).Return(nil)

		svc := New(s.stations, s.tallies, WithCache(cache), WithMetrics(m))
		got, err := svc.GetCampaignSummary(s.ctx, "t1", models.SummaryQuery{})
		s.Require().NoError(err)
		s.Equal(4, got.Total)
		s.Equal(float64(1), promtest.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	})

	s.Run("failed read falls back to the store without writing back", func() {
		cache := mocks.NewMockCache(ctrl)
		cache.EXPECT().GetCampaign(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, int64(-1), errors.New("connection refused"))

		svc := New(s.stations, s.tallies, WithCache(cache), WithMetrics(m))
		got, err := svc.GetCampaignSummary(s.ctx, "t1", models.SummaryQuery{})
		s.Require().NoError(err)
		s.Equal(4, got.Total)
		s.Equal(float64(1), promtest.ToFloat64(m.CacheErrors))
	})

	s.Run("failed write is counted", func() {
		cache := mocks.NewMockCache(ctrl)
		cache.EXPECT().GetCampaign(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, int64(0), nil)
		cache.EXPECT().SetCampaign(gomock.Any(), gomock.Any(), int64(0), gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

		svc := New(s.stations, s.tallies, WithCache(cache), WithMetrics(m))
		_, err := svc.GetCampaignSummary(s.ctx, "t1", models.SummaryQuery{})
		s.Require().NoError(err)
		s.Equal(float64(2), promtest.ToFloat64(m.CacheErrors))
	})
}

func (s *AggregationServiceSuite) TestStoreFailures() {
	ctrl := gomock.NewController(s.T())
	stations := mocks.NewMockStationDirectory(ctrl)
	tallies := mocks.NewMockTallyStats(ctrl)
	svc := New(stations, tallies)

	s.Run("unavailable", func() {
		stations.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
		tallies.EXPECT().StationStats(gomock.Any(), id.TenantID("t1"), id.StationID("")).Return(nil, errors.New("connection reset"))
		_, err := svc.GetCampaignSummary(s.ctx, "t1", models.SummaryQuery{})
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("deadline", func() {
		stations.EXPECT().FindByID(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, context.DeadlineExceeded)
		tallies.EXPECT().StationStats(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
		_, err := svc.GetStationSummary(s.ctx, "t1", "kennedy")
		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}

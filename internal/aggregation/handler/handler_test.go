package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tallysync/internal/aggregation/handler/mocks"
	"tallysync/internal/aggregation/models"
	id "tallysync/pkg/domain"
	dErrors "tallysync/pkg/domain-errors"
	"tallysync/pkg/testutil"
)

type SummaryHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  http.Handler
}

func TestSummaryHandlerSuite(t *testing.T) {
	suite.Run(t, new(SummaryHandlerSuite))
}

func (s *SummaryHandlerSuite) SetupTest() {
	s.service = mocks.NewMockService(gomock.NewController(s.T()))
	r := chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	s.router = r
}

func (s *SummaryHandlerSuite) get(path string) *http.Request {
	return testutil.WithIdentity(testutil.NewRequest(s.T(), http.MethodGet, path), "t1", "viewer")
}

func (s *SummaryHandlerSuite) TestList() {
	s.Run("query parameters reach the service", func() {
		want := models.SummaryQuery{Page: 2, Limit: 10, Department: "Antioquia", Municipality: "Envigado", NameContains: "escuela"}
		s.service.EXPECT().GetCampaignSummary(gomock.Any(), id.TenantID("t1"), want).
			Return(&models.CampaignSummary{Items: []models.StationSummary{}, Total: 11, Page: 2, Limit: 10, TotalPages: 2}, nil)

		rr := testutil.DoRequest(s.router, s.get("/v1/summaries/stations?page=2&limit=10&department=Antioquia&municipality=Envigado&name=escuela"))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[models.CampaignSummary](s.T(), rr)
		s.Equal(11, resp.Total)
		s.Equal(2, resp.TotalPages)
	})

	s.Run("defaults are left to the service", func() {
		s.service.EXPECT().GetCampaignSummary(gomock.Any(), gomock.Any(), models.SummaryQuery{}).
			Return(&models.CampaignSummary{Items: []models.StationSummary{}, Page: 1, Limit: 20}, nil)
		rr := testutil.DoRequest(s.router, s.get("/v1/summaries/stations"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "limit", float64(20))
	})

	s.Run("malformed page", func() {
		rr := testutil.DoRequest(s.router, s.get("/v1/summaries/stations?page=two"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("negative limit", func() {
		rr := testutil.DoRequest(s.router, s.get("/v1/summaries/stations?limit=-1"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *SummaryHandlerSuite) TestGet() {
	s.Run("found", func() {
		s.service.EXPECT().GetStationSummary(gomock.Any(), id.TenantID("t1"), id.StationID("kennedy")).
			Return(&models.StationSummary{StationID: "kennedy", TotalTables: 20, TablesReported: 5, Percentage: 25}, nil)
		rr := testutil.DoRequest(s.router, s.get("/v1/summaries/stations/kennedy"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "percentage", float64(25))
	})

	s.Run("unknown station", func() {
		s.service.EXPECT().GetStationSummary(gomock.Any(), gomock.Any(), id.StationID("nowhere")).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "polling station not found"))
		rr := testutil.DoRequest(s.router, s.get("/v1/summaries/stations/nowhere"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

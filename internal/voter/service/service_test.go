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

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	stationModels "tallysync/internal/station/models"
	stationStore "tallysync/internal/station/store"
	"tallysync/internal/voter/models"
	"tallysync/internal/voter/service/mocks"
	"tallysync/internal/voter/store"
	dErrors "tallysync/pkg/domain-errors"
	"tallysync/pkg/requestcontext"
)

type VoterServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	service *Service
	first   time.Time
}

func TestVoterServiceSuite(t *testing.T) {
	suite.Run(t, new(VoterServiceSuite))
}

func (s *VoterServiceSuite) SetupTest() {
	stations := stationStore.NewInMemory()
	s.Require().NoError(stations.Put(&stationModels.Station{TenantID: "t1", ID: "kennedy", Name: "Colegio Kennedy", TotalTables: 2}))
	s.Require().NoError(stations.Put(&stationModels.Station{TenantID: "t2", ID: "bolivar", Name: "Plaza Bolívar", TotalTables: 4}))
	s.store = store.NewInMemory()
	s.service = New(s.store, stations, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.first = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *VoterServiceSuite) at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func ana(phone string) models.SubmitVoterRequest {
	return models.SubmitVoterRequest{NationalID: "123", FirstName: "Ana", LastName: "Rojas", Phone: phone, StationID: "kennedy"}
}

func (s *VoterServiceSuite) TestResyncUpdatesPhone() {
	out, err := s.service.SubmitVoter(s.at(s.first), "t1", "registrar-1", ana("3001112233"))
	s.Require().NoError(err)
	s.Equal(models.OutcomeCreated, out.Kind)

	out, err = s.service.SubmitVoter(s.at(s.first.Add(time.Hour)), "t1", "registrar-2", ana("3009998877"))
	s.Require().NoError(err)
	s.Equal(models.OutcomeUpdated, out.Kind)
	s.Equal("3009998877", out.Record.Phone)
	s.Equal(s.first, out.Record.CreatedAt)

	got, err := s.service.GetVoter(context.Background(), "t1", "123")
	s.Require().NoError(err)
	s.Equal("3009998877", got.Phone)

	n, err := s.store.CountByTenant(context.Background(), "t1")
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *VoterServiceSuite) TestStationOfAnotherTenantIsRejected() {
	req := ana("")
	req.StationID = "bolivar"
	_, err := s.service.SubmitVoter(s.at(s.first), "t1", "registrar-1", req)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	n, err := s.store.CountByTenant(context.Background(), "t1")
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *VoterServiceSuite) TestValidationAndIdentity() {
	_, err := s.service.SubmitVoter(s.at(s.first), "t1", "registrar-1", models.SubmitVoterRequest{NationalID: "123"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.SubmitVoter(s.at(s.first), "", "registrar-1", ana(""))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.service.GetVoter(context.Background(), "t2", "123")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *VoterServiceSuite) TestStoreFailureIsUnavailable() {
	ctrl := gomock.NewController(s.T())
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil, false, errors.New("connection refused"))
	stations := mocks.NewMockStationDirectory(ctrl)
	stations.EXPECT().FindByID(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&stationModels.Station{TenantID: "t1", ID: "kennedy", TotalTables: 2}, nil)
	svc := New(st, stations)

	_, err := svc.SubmitVoter(s.at(s.first), "t1", "registrar-1", ana(""))
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *VoterServiceSuite) TestStationRemovedBeforeUpsert() {
	ctrl := gomock.NewController(s.T())
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil, false, fmt.Errorf("upsert voter: %w", store.ErrUnknownStation))
	stations := mocks.NewMockStationDirectory(ctrl)
	stations.EXPECT().FindByID(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&stationModels.Station{TenantID: "t1", ID: "kennedy", TotalTables: 2}, nil)
	svc := New(st, stations)

	_, err := svc.SubmitVoter(s.at(s.first), "t1", "registrar-1", ana(""))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

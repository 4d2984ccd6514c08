package service

import (
	"context"
	"errors"
	"log/slog"

	stationModels "tallysync/internal/station/models"
	"tallysync/internal/voter/models"
	"tallysync/internal/voter/store"
	id "tallysync/pkg/domain"
	dErrors "tallysync/pkg/domain-errors"
	"tallysync/pkg/platform/sentinel"
	"tallysync/pkg/requestcontext"
)

type Store interface {
	Upsert(ctx context.Context, record *models.VoterRecord) (*models.VoterRecord, bool, error)
	FindByNationalID(ctx context.Context, tenantID id.TenantID, nationalID id.NationalID) (*models.VoterRecord, error)
}

type StationDirectory interface {
	FindByID(ctx context.Context, tenantID id.TenantID, stationID id.StationID) (*stationModels.Station, error)
}

// Service registers voters collected in the field. Unlike tallies, voter
// contact data is a plain keyed upsert: the last sync wins.
type Service struct {
	store    Store
	stations StationDirectory
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, stations StationDirectory, opts ...Option) *Service {
	s := &Service{store: store, stations: stations, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitVoter validates and upserts one registration.
func (s *Service) SubmitVoter(ctx context.Context, tenantID id.TenantID, registrarID id.SubjectID, req models.SubmitVoterRequest) (*models.VoterOutcome, error) {
	if tenantID.IsNil() || registrarID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "tenant and registrar are required")
	}
	req.Normalize()
	nationalID, stationID, err := req.Validate()
	if err != nil {
		return nil, err
	}
	if stationID != "" {
		// Lookup is tenant scoped: another tenant's station is unknown here.
		if _, err := s.stations.FindByID(ctx, tenantID, stationID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeValidation, "station_id does not exist")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load polling station")
		}
	}

	now := requestcontext.Now(ctx).UTC()
	record := &models.VoterRecord{
		TenantID:        tenantID,
		NationalID:      nationalID,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		Email:           req.Email,
		StationID:       stationID,
		RegistrarID:     registrarID,
		ConsentAccepted: req.ConsentAccepted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	stored, inserted, err := s.store.Upsert(ctx, record)
	if errors.Is(err, store.ErrUnknownStation) {
		return nil, dErrors.New(dErrors.CodeValidation, "station_id does not exist")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store voter")
	}

	kind := models.OutcomeUpdated
	if inserted {
		kind = models.OutcomeCreated
	}
	s.logger.InfoContext(ctx, "voter synced",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenantID.String(),
		"outcome", string(kind),
	)
	return &models.VoterOutcome{Kind: kind, Record: stored}, nil
}

func (s *Service) GetVoter(ctx context.Context, tenantID id.TenantID, nationalID id.NationalID) (*models.VoterRecord, error) {
	v, err := s.store.FindByNationalID(ctx, tenantID, nationalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "voter not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read voter")
	}
	return v, nil
}

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

	"tallysync/internal/events"
	stationModels "tallysync/internal/station/models"
	"tallysync/internal/tally/conflict"
	"tallysync/internal/tally/metrics"
	"tallysync/internal/tally/models"
	"tallysync/internal/tally/store"
	id "tallysync/pkg/domain"
	dErrors "tallysync/pkg/domain-errors"
	"tallysync/pkg/platform/sentinel"
	"tallysync/pkg/requestcontext"
)

// Store is the durable tally store. InsertIfAbsent reports a taken key as
// *store.AlreadyExistsError carrying the stored report.
type Store interface {
	Get(ctx context.Context, tenantID id.TenantID, stationID id.StationID, tableNumber int) (*models.TallyReport, error)
	InsertIfAbsent(ctx context.Context, report *models.TallyReport) error
	AppendConflict(ctx context.Context, record *models.ConflictRecord) error
	ListConflicts(ctx context.Context, tenantID id.TenantID, filter models.ConflictFilter) ([]*models.ConflictRecord, error)
	ResolveConflicts(ctx context.Context, tenantID id.TenantID, stationID id.StationID, tableNumber int, res models.Resolution) (int, error)
}

type StationDirectory interface {
	FindByID(ctx context.Context, tenantID id.TenantID, stationID id.StationID) (*stationModels.Station, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Transactor runs fn in one database transaction carried on ctx.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SummaryInvalidator drops cached rollups for a tenant.
type SummaryInvalidator interface {
	Invalidate(ctx context.Context, tenantID id.TenantID) error
}

var errNothingToResolve = errors.New("no open conflicts")

// Service ingests tally reports. A report is written once; later submissions
// for the same table are either duplicates or conflicts, never overwrites.
type Service struct {
	store       Store
	stations    StationDirectory
	logger      *slog.Logger
	metrics     *metrics.Metrics
	publisher   Publisher
	tx          Transactor
	outbox      Publisher
	invalidator SummaryInvalidator
	tracer      trace.Tracer
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

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithOutbox commits every tally event in the same transaction as the write
// it describes. The outbox replaces the publisher.
func WithOutbox(tx Transactor, outbox Publisher) Option {
	return func(s *Service) {
		s.tx = tx
		s.outbox = outbox
	}
}

func WithSummaryInvalidator(inv SummaryInvalidator) Option {
	return func(s *Service) {
		s.invalidator = inv
	}
}

func New(store Store, stations StationDirectory, opts ...Option) *Service {
	s := &Service{
		store:     store,
		stations:  stations,
		logger:    slog.Default(),
		publisher: events.Nop{},
		tracer:    otel.Tracer("tallysync/internal/tally/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitTally validates the report and performs at most one write: the
// report itself when the table has none, or a conflict record when the
// stored counts differ. Validation failures return *models.ValidationError
// wrapped with CodeValidation; store failures return CodeUnavailable and the
// whole submission is safe to retry.
func (s *Service) SubmitTally(ctx context.Context, tenantID id.TenantID, submitterID id.SubjectID, req models.SubmitTallyRequest) (*models.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "tally.SubmitTally", trace.WithAttributes(
		attribute.String("tenant_id", tenantID.String()),
		attribute.String("station_id", req.StationID.String()),
		attribute.Int("table_number", req.TableNumber),
	))
	defer span.End()
	start := time.Now()
	defer s.metrics.ObserveSubmit(start)

	if tenantID.IsNil() || submitterID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "tenant and submitter are required")
	}

	req.Normalize()
	if verr := req.ValidateShape(); verr != nil {
		return nil, s.rejected(ctx, span, verr)
	}
	station, err := s.stations.FindByID(ctx, tenantID, req.StationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.rejected(ctx, span, models.UnknownStation(req.StationID))
		}
		return nil, s.storageError(span, err, "failed to load polling station")
	}
	if verr := models.ValidateTable(req.TableNumber, station.TotalTables); verr != nil {
		return nil, s.rejected(ctx, span, verr)
	}

	incoming := &models.TallyReport{
		TenantID:        tenantID,
		StationID:       req.StationID,
		TableNumber:     req.TableNumber,
		CandidateVotes:  req.CandidateVotes,
		TotalTableVotes: req.TotalTableVotes,
		ImageRef:        req.ImageRef,
		Observations:    req.Observations,
		SubmitterID:     submitterID,
		ReceivedAt:      requestcontext.Now(ctx).UTC(),
	}

	var outcome *models.Outcome
	existing, err := s.store.Get(ctx, tenantID, req.StationID, req.TableNumber)
	switch {
	case errors.Is(err, store.ErrNotFound):
		outcome, err = s.insert(ctx, incoming)
		if err != nil {
			return nil, s.storageError(span, err, "failed to store tally")
		}
	case err != nil:
		return nil, s.storageError(span, err, "failed to read tally")
	default:
		outcome = s.classify(ctx, existing, incoming)
	}

	span.SetAttributes(attribute.String("outcome", string(outcome.Kind)))
	s.metrics.IncSubmission(string(outcome.Kind), requestcontext.Device(ctx))
	return outcome, nil
}

func (s *Service) insert(ctx context.Context, incoming *models.TallyReport) (*models.Outcome, error) {
	accepted := events.Event{
		Type:            events.TallyAccepted,
		TenantID:        incoming.TenantID,
		StationID:       incoming.StationID,
		TableNumber:     incoming.TableNumber,
		CandidateVotes:  incoming.CandidateVotes,
		TotalTableVotes: incoming.TotalTableVotes,
		ActorID:         incoming.SubmitterID,
		OccurredAt:      incoming.ReceivedAt,
	}
	err := s.commit(ctx, accepted, func(ctx context.Context) error {
		return s.store.InsertIfAbsent(ctx, incoming)
	})
	if err == nil {
		s.logger.InfoContext(ctx, "tally accepted",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", incoming.TenantID.String(),
			"station_id", incoming.StationID.String(),
			"table_number", incoming.TableNumber,
		)
		s.invalidate(ctx, incoming.TenantID)
		return &models.Outcome{Kind: models.OutcomeCreated, Record: incoming}, nil
	}

	// Another submission for the same table committed between our read and
	// our insert. Classify against what it stored; no further retries.
	var exists *store.AlreadyExistsError
	if errors.As(err, &exists) {
		s.metrics.IncInsertRace()
		s.logger.DebugContext(ctx, "lost tally insert race",
			"request_id", requestcontext.RequestID(ctx),
			"key", incoming.Key().String(),
		)
		return s.classify(ctx, exists.Current, incoming), nil
	}
	return nil, err
}

func (s *Service) classify(ctx context.Context, existing, incoming *models.TallyReport) *models.Outcome {
	if conflict.Classify(*existing, *incoming) == conflict.Identical {
		return &models.Outcome{Kind: models.OutcomeDuplicate, Record: existing}
	}

	diffs := conflict.Diff(*existing, *incoming)
	record := models.NewConflictRecord(*existing, *incoming, incoming.ReceivedAt)
	outcome := &models.Outcome{Kind: models.OutcomeConflict, Record: existing, Incoming: incoming}
	event := events.Event{
		Type:            events.TallyConflictDetected,
		TenantID:        existing.TenantID,
		StationID:       existing.StationID,
		TableNumber:     existing.TableNumber,
		CandidateVotes:  existing.CandidateVotes,
		TotalTableVotes: existing.TotalTableVotes,
		IncomingVotes:   &incoming.CandidateVotes,
		IncomingTotal:   &incoming.TotalTableVotes,
		ConflictID:      record.ID.String(),
		ActorID:         incoming.SubmitterID,
		OccurredAt:      incoming.ReceivedAt,
	}

	err := s.commit(ctx, event, func(ctx context.Context) error {
		return s.store.AppendConflict(ctx, record)
	})
	if err != nil {
		// Losing the audit entry is tolerated; the stored report is intact.
		s.metrics.IncConflictWriteFailure()
		s.logger.WarnContext(ctx, "failed to record tally conflict",
			"request_id", requestcontext.RequestID(ctx),
			"key", incoming.Key().String(),
			"diff", conflict.Summary(diffs),
			"error", err,
		)
		// Consumers still learn about the conflict, without a record to link.
		event.ConflictID = ""
		s.publish(ctx, event)
	} else {
		conflictID := record.ID.String()
		outcome.ConflictID = &conflictID
		s.invalidate(ctx, existing.TenantID)
	}

	s.logger.WarnContext(ctx, "tally conflict detected",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", existing.TenantID.String(),
		"station_id", existing.StationID.String(),
		"table_number", existing.TableNumber,
		"diff", conflict.Summary(diffs),
	)
	return outcome
}

// GetTally returns the accepted report for a table.
func (s *Service) GetTally(ctx context.Context, tenantID id.TenantID, stationID id.StationID, tableNumber int) (*models.TallyReport, error) {
	report, err := s.store.Get(ctx, tenantID, stationID, tableNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "tally not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read tally")
	}
	return report, nil
}

// ListConflicts returns the review queue, newest first.
func (s *Service) ListConflicts(ctx context.Context, tenantID id.TenantID, filter models.ConflictFilter) ([]*models.ConflictRecord, error) {
	records, err := s.store.ListConflicts(ctx, tenantID, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list conflicts")
	}
	return records, nil
}

// ResolveConflicts lets a reviewer confirm the stored count of a table after
// checking the paper record. Every open conflict of the table is stamped;
// the stored report itself is never modified.
func (s *Service) ResolveConflicts(ctx context.Context, tenantID id.TenantID, reviewerID id.SubjectID, stationID id.StationID, tableNumber int, note string) (*models.ResolutionResult, error) {
	ctx, span := s.tracer.Start(ctx, "tally.ResolveConflicts", trace.WithAttributes(
		attribute.String("tenant_id", tenantID.String()),
		attribute.String("station_id", stationID.String()),
		attribute.Int("table_number", tableNumber),
	))
	defer span.End()

	if reviewerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "reviewer is required")
	}
	if len(note) > models.MaxObservationsLength {
		return nil, dErrors.New(dErrors.CodeValidation, "note is too long")
	}

	report, err := s.GetTally(ctx, tenantID, stationID, tableNumber)
	if err != nil {
		return nil, err
	}

	resolvedAt := requestcontext.Now(ctx).UTC()
	resolved := events.Event{
		Type:            events.TallyConflictResolved,
		TenantID:        tenantID,
		StationID:       stationID,
		TableNumber:     tableNumber,
		CandidateVotes:  report.CandidateVotes,
		TotalTableVotes: report.TotalTableVotes,
		ActorID:         reviewerID,
		OccurredAt:      resolvedAt,
	}
	var n int
	err = s.commit(ctx, resolved, func(ctx context.Context) error {
		var err error
		n, err = s.store.ResolveConflicts(ctx, tenantID, stationID, tableNumber, models.Resolution{
			ReviewerID: reviewerID,
			Note:       note,
			ResolvedAt: resolvedAt,
		})
		if err == nil && n == 0 {
			return errNothingToResolve
		}
		return err
	})
	if errors.Is(err, errNothingToResolve) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no open conflicts for table")
	}
	if err != nil {
		return nil, s.storageError(span, err, "failed to resolve conflicts")
	}

	s.metrics.AddConflictsResolved(n)
	s.logger.InfoContext(ctx, "tally conflicts resolved",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenantID.String(),
		"station_id", stationID.String(),
		"table_number", tableNumber,
		"resolved", n,
		"reviewer_id", reviewerID.String(),
	)
	s.invalidate(ctx, tenantID)
	return &models.ResolutionResult{Report: report, Resolved: n, ResolvedAt: resolvedAt}, nil
}

func (s *Service) rejected(ctx context.Context, span trace.Span, verr *models.ValidationError) error {
	s.metrics.IncValidationFailure(string(verr.Kind))
	span.SetAttributes(attribute.String("outcome", "rejected"))
	s.logger.InfoContext(ctx, "tally rejected",
		"request_id", requestcontext.RequestID(ctx),
		"kind", string(verr.Kind),
		"field", verr.Field,
		"reason", verr.Message,
	)
	return dErrors.Wrap(verr, dErrors.CodeValidation, verr.Error())
}

func (s *Service) storageError(span trace.Span, err error, msg string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
}

// commit runs write and records event. With an outbox both land in one
// transaction; otherwise the event is published best effort once write
// succeeds.
func (s *Service) commit(ctx context.Context, event events.Event, write func(ctx context.Context) error) error {
	if s.outbox == nil {
		if err := write(ctx); err != nil {
			return err
		}
		s.publish(ctx, event)
		return nil
	}
	event.RequestID = requestcontext.RequestID(ctx)
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := write(ctx); err != nil {
			return err
		}
		return s.outbox.Publish(ctx, event)
	})
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	sink := s.publisher
	if s.outbox != nil {
		sink = s.outbox
	}
	if err := sink.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish tally event",
			"request_id", event.RequestID,
			"type", string(event.Type),
			"error", err,
		)
	}
}

func (s *Service) invalidate(ctx context.Context, tenantID id.TenantID) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, tenantID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate summary cache",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID.String(),
			"error", err,
		)
	}
}

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tallysync/internal/tally/models"
	id "tallysync/pkg/domain"
	dErrors "tallysync/pkg/domain-errors"
	"tallysync/pkg/platform/httputil"
	"tallysync/pkg/platform/middleware/identity"
	"tallysync/pkg/requestcontext"
)

// Service defines the tally operations exposed over HTTP.
type Service interface {
	SubmitTally(ctx context.Context, tenantID id.TenantID, submitterID id.SubjectID, req models.SubmitTallyRequest) (*models.Outcome, error)
	GetTally(ctx context.Context, tenantID id.TenantID, stationID id.StationID, tableNumber int) (*models.TallyReport, error)
	ListConflicts(ctx context.Context, tenantID id.TenantID, filter models.ConflictFilter) ([]*models.ConflictRecord, error)
	ResolveConflicts(ctx context.Context, tenantID id.TenantID, reviewerID id.SubjectID, stationID id.StationID, tableNumber int, note string) (*models.ResolutionResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts tally routes. Identity middleware must already run on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/tallies", h.HandleSubmit)
	r.Get("/v1/tallies/conflicts", h.HandleListConflicts)
	r.Get("/v1/tallies/{stationID}/{tableNumber}", h.HandleGet)
	r.With(identity.RequireRole(identity.RoleReviewer, h.logger)).
		Post("/v1/tallies/{stationID}/{tableNumber}/resolve", h.HandleResolve)
}

// HandleSubmit handles POST /v1/tallies. Created is 201, duplicate 200 and
// conflict 409 with both versions in the body.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenantID := requestcontext.TenantID(ctx)
	submitterID := requestcontext.SubjectID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitTallyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.service.SubmitTally(ctx, tenantID, submitterID, req.ToModel())
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			httputil.WriteJSON(w, http.StatusBadRequest, &ValidationResponse{
				Error:            string(dErrors.CodeValidation),
				ErrorDescription: verr.Error(),
				Kind:             string(verr.Kind),
				Field:            verr.Field,
			})
			return
		}
		h.logger.ErrorContext(ctx, "tally submission failed",
			"request_id", requestID,
			"tenant_id", tenantID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusOK
	switch outcome.Kind {
	case models.OutcomeCreated:
		status = http.StatusCreated
	case models.OutcomeConflict:
		status = http.StatusConflict
	}
	httputil.WriteJSON(w, status, FromOutcome(outcome))
}

// HandleGet handles GET /v1/tallies/{stationID}/{tableNumber}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stationID, tableNumber, err := tableFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	report, err := h.service.GetTally(ctx, requestcontext.TenantID(ctx), stationID, tableNumber)
	if err != nil {
		h.logUnexpected(ctx, "failed to get tally", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromReport(report))
}

// HandleListConflicts handles GET /v1/tallies/conflicts?station_id=&status=open|all.
func (h *Handler) HandleListConflicts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := models.ConflictFilter{OpenOnly: true}
	switch q.Get("status") {
	case "", "open":
	case "all":
		filter.OpenOnly = false
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "status must be open or all"))
		return
	}
	if raw := q.Get("station_id"); raw != "" {
		stationID, err := id.ParseStationID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.StationID = stationID
	}

	records, err := h.service.ListConflicts(ctx, requestcontext.TenantID(ctx), filter)
	if err != nil {
		h.logUnexpected(ctx, "failed to list conflicts", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromConflicts(records))
}

// HandleResolve handles POST /v1/tallies/{stationID}/{tableNumber}/resolve.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	stationID, tableNumber, err := tableFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ResolveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.ResolveConflicts(ctx, requestcontext.TenantID(ctx), requestcontext.SubjectID(ctx), stationID, tableNumber, req.Note)
	if err != nil {
		h.logUnexpected(ctx, "failed to resolve conflicts", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &ResolveResponse{
		Tally:      FromReport(result.Report),
		Resolved:   result.Resolved,
		ResolvedAt: result.ResolvedAt,
	})
}

func tableFromPath(r *http.Request) (id.StationID, int, error) {
	stationID, err := id.ParseStationID(chi.URLParam(r, "stationID"))
	if err != nil {
		return "", 0, err
	}
	tableNumber, err := strconv.Atoi(chi.URLParam(r, "tableNumber"))
	if err != nil || tableNumber < 1 {
		return "", 0, dErrors.New(dErrors.CodeBadRequest, "table number must be a positive integer")
	}
	return stationID, tableNumber, nil
}

// logUnexpected logs failures the caller cannot fix.
func (h *Handler) logUnexpected(ctx context.Context, msg string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotFound, dErrors.CodeValidation, dErrors.CodeBadRequest:
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

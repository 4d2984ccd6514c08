package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tallysync/internal/aggregation/models"
	id "tallysync/pkg/domain"
	dErrors "tallysync/pkg/domain-errors"
	"tallysync/pkg/platform/httputil"
	"tallysync/pkg/requestcontext"
)

type Service interface {
	GetStationSummary(ctx context.Context, tenantID id.TenantID, stationID id.StationID) (*models.StationSummary, error)
	GetCampaignSummary(ctx context.Context, tenantID id.TenantID, q models.SummaryQuery) (*models.CampaignSummary, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/summaries/stations", h.HandleList)
	r.Get("/v1/summaries/stations/{stationID}", h.HandleGet)
}

// HandleList handles GET /v1/summaries/stations?page&limit&department&municipality&name.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	summary, err := h.service.GetCampaignSummary(ctx, requestcontext.TenantID(ctx), q)
	if err != nil {
		h.logUnexpected(ctx, "failed to build campaign summary", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// HandleGet handles GET /v1/summaries/stations/{stationID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stationID, err := id.ParseStationID(chi.URLParam(r, "stationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	summary, err := h.service.GetStationSummary(ctx, requestcontext.TenantID(ctx), stationID)
	if err != nil {
		h.logUnexpected(ctx, "failed to build station summary", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// parseQuery rejects malformed numbers; out-of-range values are clamped by
// the service.
func parseQuery(v url.Values) (models.SummaryQuery, error) {
	q := models.SummaryQuery{
		Department:   v.Get("department"),
		Municipality: v.Get("municipality"),
		NameContains: v.Get("name"),
	}
	var err error
	if q.Page, err = intParam(v, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(v, "limit"); err != nil {
		return q, err
	}
	return q, nil
}

func intParam(v url.Values, name string) (int, error) {
	raw := v.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" must be a non-negative integer")
	}
	return n, nil
}

func (h *Handler) logUnexpected(ctx context.Context, msg string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotFound, dErrors.CodeBadRequest, dErrors.CodeUnauthorized:
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tallysync/internal/voter/models"
	id "tallysync/pkg/domain"
	dErrors "tallysync/pkg/domain-errors"
	"tallysync/pkg/platform/httputil"
	"tallysync/pkg/requestcontext"
)

// Service defines the voter registry operations exposed over HTTP.
type Service interface {
	SubmitVoter(ctx context.Context, tenantID id.TenantID, registrarID id.SubjectID, req models.SubmitVoterRequest) (*models.VoterOutcome, error)
	GetVoter(ctx context.Context, tenantID id.TenantID, nationalID id.NationalID) (*models.VoterRecord, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/voters", h.HandleSubmit)
	r.Get("/v1/voters/{nationalID}", h.HandleGet)
}

// HandleSubmit handles POST /v1/voters: 201 on first sync, 200 on update.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitVoterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	outcome, err := h.service.SubmitVoter(ctx, requestcontext.TenantID(ctx), requestcontext.SubjectID(ctx), req.ToModel())
	if err != nil {
		h.logUnexpected(ctx, "voter submission failed", err)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if outcome.Kind == models.OutcomeCreated {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, &SubmitResponse{Outcome: string(outcome.Kind), Voter: FromRecord(outcome.Record)})
}

// HandleGet handles GET /v1/voters/{nationalID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nationalID, err := id.ParseNationalID(chi.URLParam(r, "nationalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	voter, err := h.service.GetVoter(ctx, requestcontext.TenantID(ctx), nationalID)
	if err != nil {
		h.logUnexpected(ctx, "failed to get voter", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(voter))
}

func (h *Handler) logUnexpected(ctx context.Context, msg string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotFound, dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeUnauthorized:
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

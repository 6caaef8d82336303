package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "ecomlens/internal/errors"
	"ecomlens/internal/operations"
	"ecomlens/internal/services"
	apiv1 "ecomlens/pkg/contracts/api/v1"
)

// RunHandler handles analysis run HTTP requests.
type RunHandler struct {
	service  *services.RunService
	logger   *slog.Logger
	validate *validator.Validate
}

// NewRunHandler creates a run handler.
func NewRunHandler(service *services.RunService, logger *slog.Logger) *RunHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RunHandler{
		service:  service,
		logger:   logger.With(slog.String("handler", "runs")),
		validate: validator.New(),
	}
}

// startRunPayload binds the v1 contract type for chi/render.
type startRunPayload struct {
	apiv1.StartRunRequest
}

// Bind implements the render.Binder interface.
func (p *startRunPayload) Bind(req *http.Request) error {
	return nil
}

// decisionPayload binds the v1 contract type for chi/render.
type decisionPayload struct {
	apiv1.DecisionRequest
}

// Bind implements the render.Binder interface.
func (p *decisionPayload) Bind(req *http.Request) error {
	return nil
}

// StartRun handles POST /api/runs.
func (h *RunHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	var req startRunPayload
	if err := render.Bind(r, &req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.InvalidRequestWithError(err)))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(validationDetails(err)))
		return
	}

	id, err := h.service.StartRun(operations.OperationRequest{
		Domain:     req.Domain,
		Format:     req.Format,
		Parameters: req.Parameters,
	})
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "run started", slog.String("run_id", id))
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, apiv1.RunStartedResponse{ID: id, Status: "running"})
}

// GetRun handles GET /api/runs/{id}.
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	summary, err := h.service.Status(id)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// ListRuns handles GET /api/runs.
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.List())
}

// SubmitDecision handles POST /api/runs/{id}/checkpoint.
func (h *RunHandler) SubmitDecision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req decisionPayload
	if err := render.Bind(r, &req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.InvalidRequestWithError(err)))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(validationDetails(err)))
		return
	}

	decision := operations.Decision{
		Action:   operations.DecisionAction(req.Action),
		Params:   req.Params,
		Explicit: true,
	}
	if err := h.service.SubmitDecision(id, decision); err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "checkpoint decision submitted",
		slog.String("run_id", id),
		slog.String("action", req.Action))
	render.JSON(w, r, apiv1.DecisionResponse{ID: id, Decision: req.Action})
}

func (h *RunHandler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if apiErr, ok := err.(*apierrors.APIError); ok {
		render.Render(w, r, apierrors.NewErrorResponse(apiErr))
		return
	}
	h.logger.ErrorContext(r.Context(), "run service error", slog.String("error", err.Error()))
	render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrInternalServer))
}

func validationDetails(err error) *apierrors.APIError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.NewValidationError(err.Error())
	}
	fields := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: fe.Tag(),
		})
	}
	return apierrors.NewValidationErrors(fields)
}

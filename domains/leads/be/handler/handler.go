package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/aggregate"
	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/export"
	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/service"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/httpx"
	platformlogging "github.com/simple-easy-sites/simple-sales-crm/platform/go/logging"
)

const (
	problemTypeValidation     = "https://simple-sales-crm.app/problems/validation-error"
	problemTypeUnauthorized   = "https://simple-sales-crm.app/problems/unauthorized"
	problemTypeNotFound       = "https://simple-sales-crm.app/problems/not-found"
	problemTypeRemote         = "https://simple-sales-crm.app/problems/store-unavailable"
	problemTypeConfirmation   = "https://simple-sales-crm.app/problems/confirmation-required"
	problemTypeInternal       = "https://simple-sales-crm.app/problems/internal-error"
	problemTypeInvalidRequest = "https://simple-sales-crm.app/problems/invalid-request"
)

type operation string

const (
	listOperation      operation = "leadsList"
	createOperation    operation = "leadsCreate"
	getOperation       operation = "leadsGet"
	updateOperation    operation = "leadsUpdate"
	deleteOperation    operation = "leadsDelete"
	addNoteOperation   operation = "leadsAddNote"
	logUpdateOperation operation = "leadsLogUpdate"
	pipelineOperation  operation = "leadsPipeline"
	exportOperation    operation = "leadsExport"
	dashboardOperation operation = "dashboardGet"
)

// ExportRecorder counts served exports by format.
type ExportRecorder interface {
	RecordExport(format string)
}

// Options tunes the handler. Zero values fall back to UTC and time.Now.
type Options struct {
	Location *time.Location
	Now      func() time.Time
	Exports  ExportRecorder
}

// Handler wires the leads service to the HTTP API.
type Handler struct {
	svc     service.Service
	logger  *zap.Logger
	loc     *time.Location
	now     func() time.Time
	exports ExportRecorder
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger, opts Options) *Handler {
	if svc == nil {
		panic("leads service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	h := &Handler{svc: svc, logger: logger, loc: opts.Location, now: opts.Now, exports: opts.Exports}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Routes mounts the leads endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/statuses", h.Statuses)
	r.Get("/dashboard", h.Dashboard)
	r.Route("/leads", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/pipeline", h.Pipeline)
		r.Get("/export", h.Export)
		r.Route("/{leadId}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/notes", h.AddNote)
			r.Post("/updates", h.LogUpdate)
		})
	})
}

func (h *Handler) Statuses(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, buildStatusesResponse())
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, sortState, err := parseTableQuery(r)
	if err != nil {
		h.writeError(ctx, w, err, listOperation)
		return
	}

	leads, err := h.svc.List(ctx)
	if err != nil {
		h.writeError(ctx, w, err, listOperation)
		return
	}

	rows := aggregate.Sort(aggregate.Apply(leads, filter), sortState)
	httpx.WriteJSON(w, http.StatusOK, leadListResponse{
		Items:   toLeadResponses(rows),
		Total:   len(leads),
		Matched: len(rows),
		Sort:    sortPayload{Key: sortState.Key, Direction: sortState.Direction},
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body LeadRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeProblem(ctx, w, h.buildProblem("Invalid request body", err.Error(), problemTypeInvalidRequest, http.StatusBadRequest, nil), createOperation, err)
		return
	}

	created, err := h.svc.Create(ctx, service.CreateInput{LeadInput: body.ToLeadInput(), InitialNote: body.InitialNote})
	if err != nil {
		h.writeError(ctx, w, err, createOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/leads/%s", created.ID.String()))
	httpx.WriteJSON(w, http.StatusCreated, ToLeadResponse(created))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.leadID(w, r, getOperation)
	if !ok {
		return
	}

	lead, err := h.svc.Get(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err, getOperation)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ToLeadResponse(lead))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.leadID(w, r, updateOperation)
	if !ok {
		return
	}

	var body LeadRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeProblem(ctx, w, h.buildProblem("Invalid request body", err.Error(), problemTypeInvalidRequest, http.StatusBadRequest, nil), updateOperation, err)
		return
	}

	updated, err := h.svc.Update(ctx, id, body.ToLeadInput())
	if err != nil {
		h.writeError(ctx, w, err, updateOperation)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ToLeadResponse(updated))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.leadID(w, r, deleteOperation)
	if !ok {
		return
	}

	if r.URL.Query().Get("confirm") != "true" {
		problem := h.buildProblem("Confirmation required", "deleting a lead requires confirm=true", problemTypeConfirmation, http.StatusPreconditionRequired, nil)
		h.writeProblem(ctx, w, problem, deleteOperation, errors.New("delete not confirmed"))
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		h.writeError(ctx, w, err, deleteOperation)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.leadID(w, r, addNoteOperation)
	if !ok {
		return
	}

	var body noteRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeProblem(ctx, w, h.buildProblem("Invalid request body", err.Error(), problemTypeInvalidRequest, http.StatusBadRequest, nil), addNoteOperation, err)
		return
	}

	lead, err := h.svc.AddNote(ctx, id, body.Text)
	if err != nil {
		h.writeError(ctx, w, err, addNoteOperation)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ToLeadResponse(lead))
}

func (h *Handler) LogUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.leadID(w, r, logUpdateOperation)
	if !ok {
		return
	}

	var body logUpdateRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeProblem(ctx, w, h.buildProblem("Invalid request body", err.Error(), problemTypeInvalidRequest, http.StatusBadRequest, nil), logUpdateOperation, err)
		return
	}

	lead, err := h.svc.LogUpdate(ctx, id, body.toServiceInput())
	if err != nil {
		h.writeError(ctx, w, err, logUpdateOperation)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ToLeadResponse(lead))
}

func (h *Handler) Pipeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, sortState, err := parseTableQuery(r)
	if err != nil {
		h.writeError(ctx, w, err, pipelineOperation)
		return
	}

	leads, err := h.svc.List(ctx)
	if err != nil {
		h.writeError(ctx, w, err, pipelineOperation)
		return
	}

	groups := aggregate.Pipeline(aggregate.Sort(aggregate.Apply(leads, filter), sortState))
	httpx.WriteJSON(w, http.StatusOK, toPipelineResponse(groups))
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(ctx, w, &aggregate.QueryError{Fields: map[string][]string{"format": {err.Error()}}}, exportOperation)
		return
	}

	filter, sortState, err := parseTableQuery(r)
	if err != nil {
		h.writeError(ctx, w, err, exportOperation)
		return
	}

	leads, err := h.svc.List(ctx)
	if err != nil {
		h.writeError(ctx, w, err, exportOperation)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, aggregate.Sort(aggregate.Apply(leads, filter), sortState)); err != nil {
		h.writeError(ctx, w, err, exportOperation)
		return
	}

	if h.exports != nil {
		h.exports.RecordExport(string(format))
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, format.Filename()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, err := aggregate.ParseLimit(r.URL.Query())
	if err != nil {
		h.writeError(ctx, w, err, dashboardOperation)
		return
	}

	leads, err := h.svc.List(ctx)
	if err != nil {
		h.writeError(ctx, w, err, dashboardOperation)
		return
	}

	now := h.now()
	httpx.WriteJSON(w, http.StatusOK, toDashboardResponse(
		aggregate.Summarize(leads, now, h.loc),
		aggregate.TopFunding(leads, limit),
		aggregate.AtRisk(leads, limit),
		aggregate.UpcomingCallbacks(leads, limit, now, h.loc),
	))
}

func parseTableQuery(r *http.Request) (aggregate.Filter, aggregate.SortState, error) {
	values := r.URL.Query()

	filter, err := aggregate.ParseFilter(values)
	if err != nil {
		return aggregate.Filter{}, aggregate.SortState{}, err
	}
	sortState, err := aggregate.ParseSort(values)
	if err != nil {
		return aggregate.Filter{}, aggregate.SortState{}, err
	}
	return filter, sortState, nil
}

func (h *Handler) leadID(w http.ResponseWriter, r *http.Request, op operation) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "leadId"))
	if err != nil {
		problem := h.buildProblem("Resource not found", "lead not found", problemTypeNotFound, http.StatusNotFound, nil)
		h.writeProblem(r.Context(), w, problem, op, err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, op operation) {
	httpx.WriteProblem(w, h.problemForError(ctx, err, op))
}

func (h *Handler) writeProblem(ctx context.Context, w http.ResponseWriter, problem httpx.ProblemDetails, op operation, cause error) {
	h.logOutcome(ctx, problem.Status, op, cause)
	httpx.WriteProblem(w, problem)
}

func (h *Handler) problemForError(ctx context.Context, err error, op operation) httpx.ProblemDetails {
	status, title, detail, problemType, fields := h.classifyError(err)
	h.logOutcome(ctx, status, op, err)
	return h.buildProblem(title, detail, problemType, status, fields)
}

func (h *Handler) logOutcome(ctx context.Context, status int, op operation, err error) {
	logger := h.loggerFrom(ctx)
	fieldsForLog := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", status),
		zap.Error(err),
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("leads operation failed", fieldsForLog...)
	case status == http.StatusNotFound:
		logger.Info("leads resource not found", fieldsForLog...)
	default:
		logger.Warn("leads request rejected", fieldsForLog...)
	}
}

func (h *Handler) classifyError(err error) (status int, title, detail, problemType string, fieldErrors map[string][]string) {
	var validationErr *service.ValidationError
	var queryErr *aggregate.QueryError
	var remoteErr *service.RemoteError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest,
			"Validation failed",
			"one or more fields are invalid",
			problemTypeValidation,
			validationErr.Fields
	case errors.As(err, &queryErr):
		return http.StatusBadRequest,
			"Invalid query parameters",
			"one or more query parameters are invalid",
			problemTypeValidation,
			queryErr.Fields
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized,
			"Unauthorized",
			"a signed-in agent is required",
			problemTypeUnauthorized,
			nil
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound,
			"Resource not found",
			"lead not found",
			problemTypeNotFound,
			nil
	case errors.As(err, &remoteErr):
		return http.StatusBadGateway,
			"Store unavailable",
			fmt.Sprintf("could not %s", remoteErr.Op),
			problemTypeRemote,
			nil
	default:
		return http.StatusInternalServerError,
			"Internal server error",
			"an unexpected error occurred",
			problemTypeInternal,
			nil
	}
}

func (h *Handler) buildProblem(title, detail, problemType string, status int, fieldErrors map[string][]string) httpx.ProblemDetails {
	problem := httpx.ProblemDetails{
		Title:  title,
		Status: status,
	}

	if detail != "" {
		problem.Detail = &detail
	}
	if problemType != "" {
		problem.Type = &problemType
	}

	if len(fieldErrors) > 0 {
		copied := make(map[string][]string, len(fieldErrors))
		for field, messages := range fieldErrors {
			copied[field] = append([]string(nil), messages...)
		}
		problem.Errors = &copied
	}

	return problem
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}

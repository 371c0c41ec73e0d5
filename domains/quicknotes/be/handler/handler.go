package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	leadhandler "github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/handler"
	leadservice "github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/service"
	"github.com/simple-easy-sites/simple-sales-crm/domains/quicknotes/be/service"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/httpx"
	platformlogging "github.com/simple-easy-sites/simple-sales-crm/platform/go/logging"
)

const (
	problemTypeValidation     = "https://simple-sales-crm.app/problems/validation-error"
	problemTypeUnauthorized   = "https://simple-sales-crm.app/problems/unauthorized"
	problemTypeNotFound       = "https://simple-sales-crm.app/problems/not-found"
	problemTypeConflict       = "https://simple-sales-crm.app/problems/quick-note-not-pending"
	problemTypeRemote         = "https://simple-sales-crm.app/problems/store-unavailable"
	problemTypeConfirmation   = "https://simple-sales-crm.app/problems/confirmation-required"
	problemTypeInternal       = "https://simple-sales-crm.app/problems/internal-error"
	problemTypeInvalidRequest = "https://simple-sales-crm.app/problems/invalid-request"
)

type operation string

const (
	listOperation    operation = "quickNotesList"
	createOperation  operation = "quickNotesCreate"
	editOperation    operation = "quickNotesEdit"
	deleteOperation  operation = "quickNotesDelete"
	convertOperation operation = "quickNotesConvert"
)

type quickNoteRequest struct {
	Text string `json:"text"`
}

type quickNoteResponse struct {
	ID              uuid.UUID      `json:"id"`
	Text            string         `json:"text"`
	Status          service.Status `json:"status"`
	ConvertedLeadID *uuid.UUID     `json:"convertedLeadId,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

type quickNoteListResponse struct {
	Items   []quickNoteResponse `json:"items"`
	Pending int                 `json:"pending"`
}

// conversionResponse carries QuickNote only when the note was marked
// converted. Warning is set when the lead exists but the note stayed pending.
type conversionResponse struct {
	Lead      leadhandler.LeadResponse `json:"lead"`
	QuickNote *quickNoteResponse       `json:"quickNote,omitempty"`
	Warning   *string                  `json:"warning,omitempty"`
}

func toQuickNoteResponse(note service.QuickNote) quickNoteResponse {
	return quickNoteResponse{
		ID:              note.ID,
		Text:            note.Text,
		Status:          note.Status,
		ConvertedLeadID: note.ConvertedLeadID,
		CreatedAt:       note.CreatedAt,
		UpdatedAt:       note.UpdatedAt,
	}
}

// Handler wires the quick notes service to the HTTP API.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("quick notes service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the quick note endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/quick-notes", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Patch("/{quickNoteId}", h.Edit)
		r.Delete("/{quickNoteId}", h.Delete)
		r.Post("/{quickNoteId}/convert", h.Convert)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	notes, err := h.svc.List(ctx)
	if err != nil {
		h.writeError(ctx, w, err, listOperation)
		return
	}

	resp := quickNoteListResponse{Items: make([]quickNoteResponse, 0, len(notes))}
	for _, note := range notes {
		if note.Pending() {
			resp.Pending++
		}
		resp.Items = append(resp.Items, toQuickNoteResponse(note))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body quickNoteRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeProblem(ctx, w, h.buildProblem("Invalid request body", err.Error(), problemTypeInvalidRequest, http.StatusBadRequest, nil), createOperation, err)
		return
	}

	note, err := h.svc.Create(ctx, body.Text)
	if err != nil {
		h.writeError(ctx, w, err, createOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/quick-notes/%s", note.ID.String()))
	httpx.WriteJSON(w, http.StatusCreated, toQuickNoteResponse(note))
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.quickNoteID(w, r, editOperation)
	if !ok {
		return
	}

	var body quickNoteRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeProblem(ctx, w, h.buildProblem("Invalid request body", err.Error(), problemTypeInvalidRequest, http.StatusBadRequest, nil), editOperation, err)
		return
	}

	note, err := h.svc.Edit(ctx, id, body.Text)
	if err != nil {
		h.writeError(ctx, w, err, editOperation)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toQuickNoteResponse(note))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.quickNoteID(w, r, deleteOperation)
	if !ok {
		return
	}

	if r.URL.Query().Get("confirm") != "true" {
		problem := h.buildProblem("Confirmation required", "deleting a quick note requires confirm=true", problemTypeConfirmation, http.StatusPreconditionRequired, nil)
		h.writeProblem(ctx, w, problem, deleteOperation, errors.New("delete not confirmed"))
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		h.writeError(ctx, w, err, deleteOperation)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.quickNoteID(w, r, convertOperation)
	if !ok {
		return
	}

	var body leadhandler.LeadRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeProblem(ctx, w, h.buildProblem("Invalid request body", err.Error(), problemTypeInvalidRequest, http.StatusBadRequest, nil), convertOperation, err)
		return
	}

	result, err := h.svc.Convert(ctx, id, service.ConvertInput{Lead: body.ToLeadInput(), InitialNote: body.InitialNote})

	var partial *service.PartialConversionError
	if errors.As(err, &partial) {
		h.loggerFrom(ctx).Warn("quick note conversion incomplete",
			zap.String("operation", string(convertOperation)),
			zap.String("lead_id", partial.Lead.ID.String()),
			zap.Error(err),
		)
		warning := "the lead was created but the quick note is still pending"
		w.Header().Set("Location", fmt.Sprintf("/api/v1/leads/%s", partial.Lead.ID.String()))
		httpx.WriteJSON(w, http.StatusCreated, conversionResponse{Lead: leadhandler.ToLeadResponse(partial.Lead), Warning: &warning})
		return
	}
	if err != nil {
		h.writeError(ctx, w, err, convertOperation)
		return
	}

	note := toQuickNoteResponse(result.QuickNote)
	w.Header().Set("Location", fmt.Sprintf("/api/v1/leads/%s", result.Lead.ID.String()))
	httpx.WriteJSON(w, http.StatusCreated, conversionResponse{Lead: leadhandler.ToLeadResponse(result.Lead), QuickNote: &note})
}

func (h *Handler) quickNoteID(w http.ResponseWriter, r *http.Request, op operation) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "quickNoteId"))
	if err != nil {
		problem := h.buildProblem("Resource not found", "quick note not found", problemTypeNotFound, http.StatusNotFound, nil)
		h.writeProblem(r.Context(), w, problem, op, err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, op operation) {
	status, title, detail, problemType, fields := h.classifyError(err)
	h.writeProblem(ctx, w, h.buildProblem(title, detail, problemType, status, fields), op, err)
}

func (h *Handler) writeProblem(ctx context.Context, w http.ResponseWriter, problem httpx.ProblemDetails, op operation, cause error) {
	logger := h.loggerFrom(ctx)
	fieldsForLog := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", problem.Status),
		zap.Error(cause),
	}

	switch {
	case problem.Status >= http.StatusInternalServerError:
		logger.Error("quick notes operation failed", fieldsForLog...)
	case problem.Status == http.StatusNotFound:
		logger.Info("quick note not found", fieldsForLog...)
	default:
		logger.Warn("quick notes request rejected", fieldsForLog...)
	}

	httpx.WriteProblem(w, problem)
}

func (h *Handler) classifyError(err error) (status int, title, detail, problemType string, fieldErrors map[string][]string) {
	var validationErr *service.ValidationError
	var leadValidationErr *leadservice.ValidationError
	var remoteErr *service.RemoteError
	var leadRemoteErr *leadservice.RemoteError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "Validation failed", "one or more fields are invalid", problemTypeValidation, validationErr.Fields
	case errors.As(err, &leadValidationErr):
		return http.StatusBadRequest, "Validation failed", "the lead form has invalid fields", problemTypeValidation, leadValidationErr.Fields
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized", "a signed-in agent is required", problemTypeUnauthorized, nil
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Resource not found", "quick note not found", problemTypeNotFound, nil
	case errors.Is(err, service.ErrNotPending):
		return http.StatusConflict, "Quick note already converted", "only pending quick notes can be deleted or converted", problemTypeConflict, nil
	case errors.As(err, &remoteErr):
		return http.StatusBadGateway, "Store unavailable", fmt.Sprintf("could not %s", remoteErr.Op), problemTypeRemote, nil
	case errors.As(err, &leadRemoteErr):
		return http.StatusBadGateway, "Store unavailable", fmt.Sprintf("could not %s", leadRemoteErr.Op), problemTypeRemote, nil
	default:
		return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", problemTypeInternal, nil
	}
}

func (h *Handler) buildProblem(title, detail, problemType string, status int, fieldErrors map[string][]string) httpx.ProblemDetails {
	problem := httpx.ProblemDetails{Title: title, Status: status}
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

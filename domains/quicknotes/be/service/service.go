package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	leadmodel "github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
	leadservice "github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/service"
	"github.com/simple-easy-sites/simple-sales-crm/domains/quicknotes/be/repo"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/persistence"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/requesttrace"
)

// MaxTextLength bounds the text of a quick note in characters.
const MaxTextLength = 5000

// Status is the lifecycle stage of a quick note.
type Status string

const (
	StatusPending   Status = persistence.QuickNotePending
	StatusConverted Status = persistence.QuickNoteConverted

	// StatusConverting is reserved and never written.
	StatusConverting Status = persistence.QuickNoteConverting
)

// QuickNote is a scratch entry that can later become a lead.
type QuickNote struct {
	ID              uuid.UUID  `json:"id"`
	AgentID         string     `json:"agentId"`
	Text            string     `json:"text"`
	Status          Status     `json:"status"`
	ConvertedLeadID *uuid.UUID `json:"convertedLeadId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Pending reports whether the note can still be deleted or converted.
func (q QuickNote) Pending() bool {
	return q.Status == StatusPending
}

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// RemoteError wraps a failure reported by the store.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// PartialConversionError reports a lead that was created while the quick note
// could not be marked converted. The lead exists and the note stays pending.
type PartialConversionError struct {
	Lead leadmodel.Lead
	Err  error
}

func (e *PartialConversionError) Error() string {
	return fmt.Sprintf("lead %s created but quick note not marked converted: %v", e.Lead.ID, e.Err)
}

func (e *PartialConversionError) Unwrap() error {
	return e.Err
}

// Domain sentinel errors.
var (
	ErrNotFound        = errors.New("quick note not found")
	ErrNotPending      = errors.New("quick note is not pending")
	ErrUnauthenticated = leadservice.ErrUnauthenticated
)

// Conversion outcomes reported to the ConversionRecorder.
const (
	ConversionSucceeded = "succeeded"
	ConversionPartial   = "partial"
	ConversionFailed    = "failed"
)

// ConversionRecorder receives the outcome of every conversion attempt that reached lead creation.
type ConversionRecorder interface {
	RecordQuickNoteConversion(result string)
}

// LeadCreator creates the lead a quick note converts into.
type LeadCreator interface {
	Create(ctx context.Context, input leadservice.CreateInput) (leadmodel.Lead, error)
}

// ConvertInput is the lead form submitted from a quick note. A blank
// InitialNote falls back to the quick note text.
type ConvertInput struct {
	Lead        leadservice.LeadInput
	InitialNote *string
}

// Conversion is the outcome of a successful Convert.
type Conversion struct {
	QuickNote QuickNote
	Lead      leadmodel.Lead
}

// Service defines the business operations for quick notes.
type Service interface {
	List(ctx context.Context) ([]QuickNote, error)
	Create(ctx context.Context, text string) (QuickNote, error)
	Edit(ctx context.Context, id uuid.UUID, text string) (QuickNote, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Convert(ctx context.Context, id uuid.UUID, input ConvertInput) (Conversion, error)
}

type service struct {
	repo        repo.Repository
	leads       LeadCreator
	conversions ConversionRecorder
}

// New constructs a quick notes Service. Conversions create leads through leads.
func New(r repo.Repository, leads LeadCreator, conversions ConversionRecorder) Service {
	if r == nil {
		panic("quick notes repository is required")
	}
	if leads == nil {
		panic("lead creator is required")
	}
	return &service{repo: r, leads: leads, conversions: conversions}
}

func (s *service) List(ctx context.Context) ([]QuickNote, error) {
	agentID, ok := requesttrace.FromContextOrAnonymous(ctx).Agent()
	if !ok {
		return []QuickNote{}, nil
	}

	records, err := s.repo.List(ctx, agentID)
	if err != nil {
		return nil, mapPersistenceError("list quick notes", err)
	}

	notes := make([]QuickNote, 0, len(records))
	for _, record := range records {
		notes = append(notes, mapQuickNote(record))
	}
	return notes, nil
}

func (s *service) Create(ctx context.Context, text string) (QuickNote, error) {
	agentID, err := requireAgent(ctx)
	if err != nil {
		return QuickNote{}, err
	}

	trimmed, err := validateText(text)
	if err != nil {
		return QuickNote{}, err
	}

	record, err := s.repo.Create(ctx, agentID, trimmed)
	if err != nil {
		return QuickNote{}, mapPersistenceError("create quick note", err)
	}
	return mapQuickNote(record), nil
}

// Edit replaces the text. The note returns to pending whatever its status was.
func (s *service) Edit(ctx context.Context, id uuid.UUID, text string) (QuickNote, error) {
	agentID, err := requireAgent(ctx)
	if err != nil {
		return QuickNote{}, err
	}

	trimmed, err := validateText(text)
	if err != nil {
		return QuickNote{}, err
	}
	if id == uuid.Nil {
		return QuickNote{}, ErrNotFound
	}

	record, err := s.repo.UpdateText(ctx, agentID, id, trimmed)
	if err != nil {
		return QuickNote{}, mapPersistenceError("edit quick note", err)
	}
	return mapQuickNote(record), nil
}

// Delete removes a pending note. Converted notes are kept as the audit trail of their lead.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	agentID, err := requireAgent(ctx)
	if err != nil {
		return err
	}
	if id == uuid.Nil {
		return ErrNotFound
	}

	current, err := s.repo.Get(ctx, agentID, id)
	if err != nil {
		return mapPersistenceError("delete quick note", err)
	}
	if !mapQuickNote(current).Pending() {
		return ErrNotPending
	}

	if err := s.repo.Delete(ctx, agentID, id); err != nil {
		return mapPersistenceError("delete quick note", err)
	}
	return nil
}

// Convert creates a lead from a pending note and then marks the note
// converted. The two writes are not atomic: a failure of the second one
// returns a *PartialConversionError carrying the created lead.
func (s *service) Convert(ctx context.Context, id uuid.UUID, input ConvertInput) (Conversion, error) {
	agentID, err := requireAgent(ctx)
	if err != nil {
		return Conversion{}, err
	}
	if id == uuid.Nil {
		return Conversion{}, ErrNotFound
	}

	record, err := s.repo.Get(ctx, agentID, id)
	if err != nil {
		return Conversion{}, mapPersistenceError("convert quick note", err)
	}
	note := mapQuickNote(record)
	if !note.Pending() {
		return Conversion{}, ErrNotPending
	}

	initialNote := note.Text
	if input.InitialNote != nil && strings.TrimSpace(*input.InitialNote) != "" {
		initialNote = *input.InitialNote
	}

	lead, err := s.leads.Create(ctx, leadservice.CreateInput{
		LeadInput:         input.Lead,
		InitialNote:       &initialNote,
		SourceQuickNoteID: &note.ID,
	})
	if err != nil {
		s.record(ConversionFailed)
		return Conversion{}, err
	}

	marked, err := s.repo.MarkConverted(ctx, agentID, id, lead.ID)
	if err != nil {
		s.record(ConversionPartial)
		return Conversion{}, &PartialConversionError{Lead: lead, Err: mapPersistenceError("mark quick note converted", err)}
	}

	s.record(ConversionSucceeded)
	return Conversion{QuickNote: mapQuickNote(marked), Lead: lead}, nil
}

func (s *service) record(result string) {
	if s.conversions != nil {
		s.conversions.RecordQuickNoteConversion(result)
	}
}

func validateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		return "", &ValidationError{Fields: FieldErrors{"text": {"text cannot be empty"}}}
	case utf8.RuneCountInString(trimmed) > MaxTextLength:
		return "", &ValidationError{Fields: FieldErrors{"text": {fmt.Sprintf("text must be at most %d characters", MaxTextLength)}}}
	}
	return trimmed, nil
}

func mapQuickNote(record persistence.QuickNote) QuickNote {
	return QuickNote{
		ID:              record.QuickNoteID,
		AgentID:         record.AgentID,
		Text:            record.Text,
		Status:          Status(record.Status),
		ConvertedLeadID: record.ConvertedLeadID,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
}

func requireAgent(ctx context.Context) (string, error) {
	agentID, ok := requesttrace.FromContextOrAnonymous(ctx).Agent()
	if !ok {
		return "", ErrUnauthenticated
	}
	return agentID, nil
}

func mapPersistenceError(op string, err error) error {
	if errors.Is(err, persistence.ErrQuickNoteNotFound) {
		return ErrNotFound
	}
	return &RemoteError{Op: op, Err: err}
}

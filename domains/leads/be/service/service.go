package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/repo"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/persistence"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/requesttrace"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid. No remote call
// has been made when it is returned.
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

// Domain sentinel errors.
var (
	ErrNotFound        = errors.New("lead not found")
	ErrUnauthenticated = errors.New("a signed-in agent is required")
)

// Lead events reported to the EventRecorder.
const (
	EventCreated      = "created"
	EventUpdated      = "updated"
	EventDeleted      = "deleted"
	EventNoteAdded    = "note_added"
	EventUpdateLogged = "update_logged"
)

// EventRecorder receives one event per mutation confirmed by the store.
type EventRecorder interface {
	RecordLeadEvent(event string)
}

// PositionInput describes one existing advance on the lead form.
type PositionInput struct {
	ID               *uuid.UUID
	LenderName       string  `validate:"required,max=200"`
	OriginalAmount   float64 `validate:"gte=0"`
	CurrentBalance   float64 `validate:"gte=0"`
	PaymentFrequency string
}

// LeadInput carries the editable lead fields shared by create and update.
// Blank enum values take their defaults; blank callback values clear the schedule.
type LeadInput struct {
	MerchantName         string          `validate:"required,max=200"`
	BusinessName         string          `validate:"required,max=200"`
	MainPhoneNumber      string          `validate:"required,phone"`
	SecondaryPhoneNumber *string         `validate:"omitempty,phone"`
	Email                *string         `validate:"omitempty,email"`
	Location             string          `validate:"max=500"`
	MonthlyRevenue       float64         `validate:"gte=0"`
	AmountLookingFor     float64         `validate:"gte=0"`
	NumberOfPositions    int             `validate:"gte=0"`
	Positions            []PositionInput `validate:"dive"`
	// PositionBalances is the legacy free-text form, parsed only when Positions is empty.
	PositionBalances    *string
	HasDefaults         bool
	NumberOfDefaults    *int
	DefaultsDescription *string
	DocumentStatus      string
	DocumentType        string
	DocumentNotes       string
	Status              string
	CallbackDate        string
	CallbackTime        string
}

// CreateInput is a new lead plus its optional first note.
type CreateInput struct {
	LeadInput
	InitialNote *string
	// SourceQuickNoteID stamps the initial note when the lead comes from a quick note.
	SourceQuickNoteID *uuid.UUID
}

// CallbackInput replaces the callback schedule wholesale. An empty Date clears it.
type CallbackInput struct {
	Date string
	Time string
}

// LogUpdateInput is the combined note, callback and status change of the update dialog.
// Nil fields are left untouched.
type LogUpdateInput struct {
	Note     *string
	Callback *CallbackInput
	Status   *string
}

// Config tunes the service. Zero values fall back to UTC, the US region and time.Now.
type Config struct {
	Location    *time.Location
	PhoneRegion string
	Now         func() time.Time
	Events      EventRecorder
}

// Service defines the business operations for the leads domain.
type Service interface {
	List(ctx context.Context) ([]model.Lead, error)
	Get(ctx context.Context, id uuid.UUID) (model.Lead, error)
	Create(ctx context.Context, input CreateInput) (model.Lead, error)
	Update(ctx context.Context, id uuid.UUID, input LeadInput) (model.Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddNote(ctx context.Context, id uuid.UUID, text string) (model.Lead, error)
	LogUpdate(ctx context.Context, id uuid.UUID, input LogUpdateInput) (model.Lead, error)
}

type service struct {
	repo      repo.Repository
	validator *inputValidator
	loc       *time.Location
	now       func() time.Time
	events    EventRecorder
}

// New constructs a leads Service instance backed by the provided repository.
func New(r repo.Repository, cfg Config) Service {
	if r == nil {
		panic("leads repository is required")
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		repo:      r,
		validator: newInputValidator(cfg.PhoneRegion),
		loc:       loc,
		now:       now,
		events:    cfg.Events,
	}
}

func (s *service) List(ctx context.Context) ([]model.Lead, error) {
	agentID, ok := requesttrace.FromContextOrAnonymous(ctx).Agent()
	if !ok {
		return []model.Lead{}, nil
	}

	records, err := s.repo.List(ctx, agentID)
	if err != nil {
		return nil, mapPersistenceError("list leads", err)
	}

	leads := make([]model.Lead, 0, len(records))
	for _, record := range records {
		leads = append(leads, mapLead(record))
	}
	return leads, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (model.Lead, error) {
	agentID, err := requireAgent(ctx)
	if err != nil {
		return model.Lead{}, err
	}
	if id == uuid.Nil {
		return model.Lead{}, ErrNotFound
	}

	record, err := s.repo.Get(ctx, agentID, id)
	if err != nil {
		return model.Lead{}, mapPersistenceError("get lead", err)
	}
	return mapLead(record), nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (model.Lead, error) {
	agentID, err := requireAgent(ctx)
	if err != nil {
		return model.Lead{}, err
	}

	fields, err := s.buildFields(input.LeadInput)
	if err != nil {
		return model.Lead{}, err
	}

	now := s.now()
	notes := []persistence.NoteRecord{}
	if input.InitialNote != nil {
		if text := strings.TrimSpace(*input.InitialNote); text != "" {
			note := model.NewNote(agentID, text, now)
			note.SourceQuickNoteID = input.SourceQuickNoteID
			notes = append(notes, toNoteRecord(note))
		}
	}

	record, err := s.repo.Create(ctx, persistence.CreateLeadParams{
		AgentID:      agentID,
		Fields:       fields,
		CreationDate: model.DateOf(now.In(s.loc)).In(time.UTC),
		Notes:        notes,
	})
	if err != nil {
		return model.Lead{}, mapPersistenceError("create lead", err)
	}

	s.record(EventCreated)
	return mapLead(record), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input LeadInput) (model.Lead, error) {
	agentID, err := requireAgent(ctx)
	if err != nil {
		return model.Lead{}, err
	}
	if id == uuid.Nil {
		return model.Lead{}, ErrNotFound
	}

	fields, err := s.buildFields(input)
	if err != nil {
		return model.Lead{}, err
	}

	record, err := s.repo.Update(ctx, agentID, id, fields)
	if err != nil {
		return model.Lead{}, mapPersistenceError("update lead", err)
	}

	s.record(EventUpdated)
	return mapLead(record), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	agentID, err := requireAgent(ctx)
	if err != nil {
		return err
	}
	if id == uuid.Nil {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, agentID, id); err != nil {
		return mapPersistenceError("delete lead", err)
	}

	s.record(EventDeleted)
	return nil
}

func (s *service) AddNote(ctx context.Context, id uuid.UUID, text string) (model.Lead, error) {
	agentID, err := requireAgent(ctx)
	if err != nil {
		return model.Lead{}, err
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return model.Lead{}, newValidationError(map[string]string{"note": "note cannot be empty"})
	}
	if id == uuid.Nil {
		return model.Lead{}, ErrNotFound
	}

	current, err := s.repo.Get(ctx, agentID, id)
	if err != nil {
		return model.Lead{}, mapPersistenceError("add note", err)
	}

	lead := mapLead(current)
	notes := lead.PrependNote(model.NewNote(agentID, trimmed, s.now()))

	record, err := s.repo.Patch(ctx, agentID, id, persistence.PatchLeadParams{Notes: toNoteRecords(notes)})
	if err != nil {
		return model.Lead{}, mapPersistenceError("add note", err)
	}

	s.record(EventNoteAdded)
	return mapLead(record), nil
}

func (s *service) LogUpdate(ctx context.Context, id uuid.UUID, input LogUpdateInput) (model.Lead, error) {
	agentID, err := requireAgent(ctx)
	if err != nil {
		return model.Lead{}, err
	}

	fieldErrors := FieldErrors{}
	params := persistence.PatchLeadParams{}

	var noteText string
	if input.Note != nil {
		noteText = strings.TrimSpace(*input.Note)
	}

	if input.Callback != nil {
		date, clock := parseCallback(input.Callback.Date, input.Callback.Time, fieldErrors)
		params.Callback = &persistence.CallbackParams{Date: toDateColumn(date), Time: toClockColumn(clock)}
	}

	if input.Status != nil {
		status, parseErr := model.ParseLeadStatus(*input.Status)
		if parseErr != nil {
			fieldErrors.add("status", parseErr.Error())
		} else {
			value := string(status)
			params.Status = &value
		}
	}

	if noteText == "" && input.Callback == nil && input.Status == nil {
		fieldErrors.add("payload", "a note, callback or status change is required")
	}

	if len(fieldErrors) > 0 {
		return model.Lead{}, &ValidationError{Fields: fieldErrors}
	}
	if id == uuid.Nil {
		return model.Lead{}, ErrNotFound
	}

	if noteText != "" {
		current, getErr := s.repo.Get(ctx, agentID, id)
		if getErr != nil {
			return model.Lead{}, mapPersistenceError("log update", getErr)
		}
		lead := mapLead(current)
		params.Notes = toNoteRecords(lead.PrependNote(model.NewNote(agentID, noteText, s.now())))
	}

	record, err := s.repo.Patch(ctx, agentID, id, params)
	if err != nil {
		return model.Lead{}, mapPersistenceError("log update", err)
	}

	s.record(EventUpdateLogged)
	return mapLead(record), nil
}

// buildFields validates the input and applies the defaults of every optional field.
func (s *service) buildFields(input LeadInput) (persistence.LeadFields, error) {
	input = normalizeInput(input)
	fieldErrors := s.validator.validate(input)

	documentStatus, err := parseOrDefault(input.DocumentStatus, model.DefaultDocumentStatus, model.ParseDocumentStatus)
	if err != nil {
		fieldErrors.add("documentStatus", err.Error())
	}
	documentType, err := parseOrDefault(input.DocumentType, model.DefaultDocumentType, model.ParseDocumentType)
	if err != nil {
		fieldErrors.add("documentType", err.Error())
	}
	status, err := parseOrDefault(input.Status, model.DefaultStatus, model.ParseLeadStatus)
	if err != nil {
		fieldErrors.add("status", err.Error())
	}

	positions := buildPositions(input, fieldErrors)
	numberOfPositions := input.NumberOfPositions
	if len(positions) > 0 {
		numberOfPositions = len(positions)
	}

	var numberOfDefaults *int
	var defaultsDescription *string
	if input.HasDefaults {
		if input.NumberOfDefaults == nil || *input.NumberOfDefaults <= 0 {
			fieldErrors.add("numberOfDefaults", "numberOfDefaults must be a positive number when hasDefaults is true")
		} else {
			n := *input.NumberOfDefaults
			numberOfDefaults = &n
		}
		if input.DefaultsDescription == nil || *input.DefaultsDescription == "" {
			fieldErrors.add("defaultsDescription", "defaultsDescription is required when hasDefaults is true")
		} else {
			d := *input.DefaultsDescription
			defaultsDescription = &d
		}
	}

	callbackDate, callbackTime := parseCallback(input.CallbackDate, input.CallbackTime, fieldErrors)

	if len(fieldErrors) > 0 {
		return persistence.LeadFields{}, &ValidationError{Fields: fieldErrors}
	}

	return persistence.LeadFields{
		MerchantName:         input.MerchantName,
		BusinessName:         input.BusinessName,
		MainPhoneNumber:      input.MainPhoneNumber,
		SecondaryPhoneNumber: input.SecondaryPhoneNumber,
		Email:                input.Email,
		Location:             input.Location,
		MonthlyRevenue:       input.MonthlyRevenue,
		AmountLookingFor:     input.AmountLookingFor,
		NumberOfPositions:    numberOfPositions,
		Positions:            toPositionRecords(positions),
		HasDefaults:          input.HasDefaults,
		NumberOfDefaults:     numberOfDefaults,
		DefaultsDescription:  defaultsDescription,
		DocumentStatus:       string(documentStatus),
		DocumentType:         string(documentType),
		DocumentNotes:        input.DocumentNotes,
		Status:               string(status),
		CallbackDate:         toDateColumn(callbackDate),
		CallbackTime:         toClockColumn(callbackTime),
	}, nil
}

func normalizeInput(input LeadInput) LeadInput {
	input.MerchantName = strings.TrimSpace(input.MerchantName)
	input.BusinessName = strings.TrimSpace(input.BusinessName)
	input.MainPhoneNumber = strings.TrimSpace(input.MainPhoneNumber)
	input.SecondaryPhoneNumber = trimOptional(input.SecondaryPhoneNumber)
	input.Email = trimOptional(input.Email)
	if input.Email != nil {
		email := strings.ToLower(*input.Email)
		input.Email = &email
	}
	input.Location = strings.TrimSpace(input.Location)
	input.DefaultsDescription = trimOptional(input.DefaultsDescription)
	input.DocumentNotes = strings.TrimSpace(input.DocumentNotes)
	input.CallbackDate = strings.TrimSpace(input.CallbackDate)
	input.CallbackTime = strings.TrimSpace(input.CallbackTime)

	positions := make([]PositionInput, len(input.Positions))
	for i, p := range input.Positions {
		p.LenderName = strings.TrimSpace(p.LenderName)
		positions[i] = p
	}
	input.Positions = positions
	return input
}

func buildPositions(input LeadInput, fieldErrors FieldErrors) []model.Position {
	if len(input.Positions) == 0 {
		if input.PositionBalances == nil || strings.TrimSpace(*input.PositionBalances) == "" {
			return nil
		}
		return model.ParseLegacyPositions(*input.PositionBalances)
	}

	positions := make([]model.Position, 0, len(input.Positions))
	for i, p := range input.Positions {
		frequency, err := model.ParsePaymentFrequency(p.PaymentFrequency)
		if err != nil {
			fieldErrors.add(fmt.Sprintf("positions[%d].paymentFrequency", i), err.Error())
		}
		id := uuid.New()
		if p.ID != nil && *p.ID != uuid.Nil {
			id = *p.ID
		}
		positions = append(positions, model.Position{
			ID:               id,
			LenderName:       p.LenderName,
			OriginalAmount:   p.OriginalAmount,
			CurrentBalance:   p.CurrentBalance,
			PaymentFrequency: frequency,
		})
	}
	return positions
}

// parseCallback validates a callback pair. A time without a date is rejected.
func parseCallback(rawDate, rawTime string, fieldErrors FieldErrors) (*model.Date, *model.ClockTime) {
	rawDate = strings.TrimSpace(rawDate)
	rawTime = strings.TrimSpace(rawTime)

	var date *model.Date
	if rawDate != "" {
		parsed, err := model.ParseDate(rawDate)
		if err != nil {
			fieldErrors.add("callbackDate", err.Error())
		} else {
			date = &parsed
		}
	}

	var clock *model.ClockTime
	if rawTime != "" {
		if rawDate == "" {
			fieldErrors.add("callbackTime", "callbackTime requires callbackDate")
			return nil, nil
		}
		parsed, err := model.ParseClockTime(rawTime)
		if err != nil {
			fieldErrors.add("callbackTime", err.Error())
		} else {
			clock = &parsed
		}
	}

	return date, clock
}

func parseOrDefault[T ~string](raw string, fallback T, parse func(string) (T, error)) (T, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return parse(strings.TrimSpace(raw))
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func requireAgent(ctx context.Context) (string, error) {
	agentID, ok := requesttrace.FromContextOrAnonymous(ctx).Agent()
	if !ok {
		return "", ErrUnauthenticated
	}
	return agentID, nil
}

func (s *service) record(event string) {
	if s.events != nil {
		s.events.RecordLeadEvent(event)
	}
}

func mapPersistenceError(op string, err error) error {
	switch {
	case errors.Is(err, persistence.ErrLeadNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError(map[string]string{"payload": "the lead violates a stored constraint"})
	default:
		return &RemoteError{Op: op, Err: err}
	}
}

func newValidationError(fields map[string]string) error {
	fe := FieldErrors{}
	for key, message := range fields {
		fe.add(key, message)
	}
	return &ValidationError{Fields: fe}
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}

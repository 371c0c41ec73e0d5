package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const LeadsTable = "leads"

// ErrLeadNotFound indicates no lead matched the id for the owning agent.
var ErrLeadNotFound = errors.New("lead not found")

const leadColumns = `lead_id, agent_id, merchant_name, business_name, main_phone_number,
        secondary_phone_number, email, location, monthly_revenue, amount_looking_for,
        number_of_positions, positions, has_defaults, number_of_defaults, defaults_description,
        document_status, document_type, document_notes, status, callback_date, callback_time,
        creation_date, notes, created_at, updated_at`

// NoteRecord is one element of the notes JSONB column.
type NoteRecord struct {
	ID                uuid.UUID  `json:"id"`
	Timestamp         time.Time  `json:"timestamp"`
	Text              string     `json:"text"`
	AgentID           string     `json:"agentId"`
	SourceQuickNoteID *uuid.UUID `json:"sourceQuickNoteId,omitempty"`
}

// PositionRecord is one element of the positions JSONB column.
type PositionRecord struct {
	ID               uuid.UUID `json:"id"`
	LenderName       string    `json:"lenderName"`
	OriginalAmount   float64   `json:"originalAmount"`
	CurrentBalance   float64   `json:"currentBalance"`
	PaymentFrequency string    `json:"paymentFrequency"`
}

// Lead represents a row in the leads table.
type Lead struct {
	LeadID               uuid.UUID
	AgentID              string
	MerchantName         string
	BusinessName         string
	MainPhoneNumber      string
	SecondaryPhoneNumber *string
	Email                *string
	Location             string
	MonthlyRevenue       float64
	AmountLookingFor     float64
	NumberOfPositions    int
	Positions            []PositionRecord
	HasDefaults          bool
	NumberOfDefaults     *int
	DefaultsDescription  *string
	DocumentStatus       string
	DocumentType         string
	DocumentNotes        string
	Status               string
	CallbackDate         *time.Time
	CallbackTime         *string
	CreationDate         time.Time
	Notes                []NoteRecord
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// LeadFields are the columns written on both insert and full update.
type LeadFields struct {
	MerchantName         string
	BusinessName         string
	MainPhoneNumber      string
	SecondaryPhoneNumber *string
	Email                *string
	Location             string
	MonthlyRevenue       float64
	AmountLookingFor     float64
	NumberOfPositions    int
	Positions            []PositionRecord
	HasDefaults          bool
	NumberOfDefaults     *int
	DefaultsDescription  *string
	DocumentStatus       string
	DocumentType         string
	DocumentNotes        string
	Status               string
	CallbackDate         *time.Time
	CallbackTime         *string
}

// CreateLeadParams captures the fields required to insert a lead.
type CreateLeadParams struct {
	AgentID      string
	Fields       LeadFields
	CreationDate time.Time
	Notes        []NoteRecord
}

// CallbackParams replaces the callback schedule wholesale.
type CallbackParams struct {
	Date *time.Time
	Time *string
}

// PatchLeadParams lists the columns a targeted update replaces. Nil fields are
// left untouched.
type PatchLeadParams struct {
	Notes    []NoteRecord
	Callback *CallbackParams
	Status   *string
}

// LeadStore exposes persistence helpers for the leads table. Every statement
// is scoped by the owning agent.
type LeadStore struct {
	pool *pgxpool.Pool
}

// NewLeadStore returns a store bound to pool.
func NewLeadStore(pool *pgxpool.Pool) (*LeadStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &LeadStore{pool: pool}, nil
}

// ListLeads returns every lead owned by agentID, newest creation date first.
func (s *LeadStore) ListLeads(ctx context.Context, agentID string) ([]Lead, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE agent_id = $1
        ORDER BY creation_date DESC, created_at DESC
    `, leadColumns, LeadsTable), agentID)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, scanErr := scanLead(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan lead: %w", scanErr)
		}
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}

	return leads, nil
}

// GetLead returns a single lead owned by agentID.
func (s *LeadStore) GetLead(ctx context.Context, agentID string, id uuid.UUID) (Lead, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE lead_id = $1 AND agent_id = $2
    `, leadColumns, LeadsTable), id, agentID)

	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrLeadNotFound
		}
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}

	return lead, nil
}

// CreateLead inserts a lead and returns the row as stored.
func (s *LeadStore) CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error) {
	if strings.TrimSpace(params.AgentID) == "" {
		return Lead{}, errors.New("agent id is required")
	}

	f := params.Fields
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (
            agent_id, merchant_name, business_name, main_phone_number, secondary_phone_number,
            email, location, monthly_revenue, amount_looking_for, number_of_positions, positions,
            has_defaults, number_of_defaults, defaults_description, document_status, document_type,
            document_notes, status, callback_date, callback_time, creation_date, notes
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
        RETURNING %s
    `, LeadsTable, leadColumns),
		params.AgentID,
		f.MerchantName,
		f.BusinessName,
		f.MainPhoneNumber,
		f.SecondaryPhoneNumber,
		f.Email,
		f.Location,
		f.MonthlyRevenue,
		f.AmountLookingFor,
		f.NumberOfPositions,
		nonNilPositions(f.Positions),
		f.HasDefaults,
		f.NumberOfDefaults,
		f.DefaultsDescription,
		f.DocumentStatus,
		f.DocumentType,
		f.DocumentNotes,
		f.Status,
		f.CallbackDate,
		f.CallbackTime,
		params.CreationDate,
		nonNilNotes(params.Notes),
	)

	lead, err := scanLead(row)
	if err != nil {
		if isCheckViolation(err) {
			return Lead{}, fmt.Errorf("insert lead: %w: %v", ErrConstraintViolation, err)
		}
		return Lead{}, fmt.Errorf("insert lead: %w", err)
	}

	return lead, nil
}

// UpdateLead replaces the editable columns of a lead. creation_date and notes
// are never written here.
func (s *LeadStore) UpdateLead(ctx context.Context, agentID string, id uuid.UUID, f LeadFields) (Lead, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s
        SET merchant_name = $3,
            business_name = $4,
            main_phone_number = $5,
            secondary_phone_number = $6,
            email = $7,
            location = $8,
            monthly_revenue = $9,
            amount_looking_for = $10,
            number_of_positions = $11,
            positions = $12,
            has_defaults = $13,
            number_of_defaults = $14,
            defaults_description = $15,
            document_status = $16,
            document_type = $17,
            document_notes = $18,
            status = $19,
            callback_date = $20,
            callback_time = $21,
            updated_at = NOW()
        WHERE lead_id = $1 AND agent_id = $2
        RETURNING %s
    `, LeadsTable, leadColumns),
		id,
		agentID,
		f.MerchantName,
		f.BusinessName,
		f.MainPhoneNumber,
		f.SecondaryPhoneNumber,
		f.Email,
		f.Location,
		f.MonthlyRevenue,
		f.AmountLookingFor,
		f.NumberOfPositions,
		nonNilPositions(f.Positions),
		f.HasDefaults,
		f.NumberOfDefaults,
		f.DefaultsDescription,
		f.DocumentStatus,
		f.DocumentType,
		f.DocumentNotes,
		f.Status,
		f.CallbackDate,
		f.CallbackTime,
	)

	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrLeadNotFound
		}
		if isCheckViolation(err) {
			return Lead{}, fmt.Errorf("update lead: %w: %v", ErrConstraintViolation, err)
		}
		return Lead{}, fmt.Errorf("update lead: %w", err)
	}

	return lead, nil
}

// PatchLead applies the provided columns in one statement and returns the
// updated row.
func (s *LeadStore) PatchLead(ctx context.Context, agentID string, id uuid.UUID, params PatchLeadParams) (Lead, error) {
	args := []any{id, agentID}
	setParts := []string{}

	if params.Notes != nil {
		args = append(args, params.Notes)
		setParts = append(setParts, fmt.Sprintf("notes = $%d", len(args)))
	}
	if params.Callback != nil {
		args = append(args, params.Callback.Date)
		setParts = append(setParts, fmt.Sprintf("callback_date = $%d", len(args)))
		args = append(args, params.Callback.Time)
		setParts = append(setParts, fmt.Sprintf("callback_time = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		setParts = append(setParts, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(setParts) == 0 {
		return Lead{}, errors.New("no fields to update")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s
        SET %s, updated_at = NOW()
        WHERE lead_id = $1 AND agent_id = $2
        RETURNING %s
    `, LeadsTable, strings.Join(setParts, ", "), leadColumns), args...)

	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrLeadNotFound
		}
		if isCheckViolation(err) {
			return Lead{}, fmt.Errorf("patch lead: %w: %v", ErrConstraintViolation, err)
		}
		return Lead{}, fmt.Errorf("patch lead: %w", err)
	}

	return lead, nil
}

// DeleteLead removes a lead owned by agentID.
func (s *LeadStore) DeleteLead(ctx context.Context, agentID string, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrLeadNotFound
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE lead_id = $1 AND agent_id = $2`, LeadsTable), id, agentID)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}

	return nil
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead

	if err := row.Scan(
		&lead.LeadID,
		&lead.AgentID,
		&lead.MerchantName,
		&lead.BusinessName,
		&lead.MainPhoneNumber,
		&lead.SecondaryPhoneNumber,
		&lead.Email,
		&lead.Location,
		&lead.MonthlyRevenue,
		&lead.AmountLookingFor,
		&lead.NumberOfPositions,
		&lead.Positions,
		&lead.HasDefaults,
		&lead.NumberOfDefaults,
		&lead.DefaultsDescription,
		&lead.DocumentStatus,
		&lead.DocumentType,
		&lead.DocumentNotes,
		&lead.Status,
		&lead.CallbackDate,
		&lead.CallbackTime,
		&lead.CreationDate,
		&lead.Notes,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return Lead{}, err
	}

	lead.Notes = nonNilNotes(lead.Notes)
	lead.Positions = nonNilPositions(lead.Positions)
	return lead, nil
}

func nonNilNotes(notes []NoteRecord) []NoteRecord {
	if notes == nil {
		return []NoteRecord{}
	}
	return notes
}

func nonNilPositions(positions []PositionRecord) []PositionRecord {
	if positions == nil {
		return []PositionRecord{}
	}
	return positions
}

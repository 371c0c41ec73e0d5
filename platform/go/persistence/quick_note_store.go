package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const QuickNotesTable = "quick_notes"

// Quick note status values stored in the status column.
const (
	QuickNotePending    = "pending"
	QuickNoteConverting = "converting"
	QuickNoteConverted  = "converted"
)

// ErrQuickNoteNotFound indicates no quick note matched the id for the owning agent.
var ErrQuickNoteNotFound = errors.New("quick note not found")

const quickNoteColumns = `quick_note_id, agent_id, text, status, converted_lead_id, created_at, updated_at`

// QuickNote represents a row in the quick_notes table.
type QuickNote struct {
	QuickNoteID     uuid.UUID
	AgentID         string
	Text            string
	Status          string
	ConvertedLeadID *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// QuickNoteStore exposes persistence helpers for the quick_notes table.
type QuickNoteStore struct {
	pool *pgxpool.Pool
}

// NewQuickNoteStore returns a store bound to pool.
func NewQuickNoteStore(pool *pgxpool.Pool) (*QuickNoteStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &QuickNoteStore{pool: pool}, nil
}

// ListQuickNotes returns every quick note owned by agentID, newest first.
func (s *QuickNoteStore) ListQuickNotes(ctx context.Context, agentID string) ([]QuickNote, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE agent_id = $1
        ORDER BY created_at DESC
    `, quickNoteColumns, QuickNotesTable), agentID)
	if err != nil {
		return nil, fmt.Errorf("list quick notes: %w", err)
	}
	defer rows.Close()

	notes := make([]QuickNote, 0)
	for rows.Next() {
		note, scanErr := scanQuickNote(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan quick note: %w", scanErr)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quick notes: %w", err)
	}

	return notes, nil
}

// GetQuickNote returns a single quick note owned by agentID.
func (s *QuickNoteStore) GetQuickNote(ctx context.Context, agentID string, id uuid.UUID) (QuickNote, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE quick_note_id = $1 AND agent_id = $2
    `, quickNoteColumns, QuickNotesTable), id, agentID)

	return scanQuickNoteResult(row, "get quick note")
}

// CreateQuickNote inserts a pending quick note.
func (s *QuickNoteStore) CreateQuickNote(ctx context.Context, agentID, text string) (QuickNote, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (agent_id, text, status)
        VALUES ($1, $2, $3)
        RETURNING %s
    `, QuickNotesTable, quickNoteColumns), agentID, text, QuickNotePending)

	note, err := scanQuickNote(row)
	if err != nil {
		return QuickNote{}, fmt.Errorf("insert quick note: %w", err)
	}
	return note, nil
}

// UpdateQuickNoteText replaces the text and returns the note to pending.
func (s *QuickNoteStore) UpdateQuickNoteText(ctx context.Context, agentID string, id uuid.UUID, text string) (QuickNote, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s
        SET text = $3, status = $4, converted_lead_id = NULL, updated_at = NOW()
        WHERE quick_note_id = $1 AND agent_id = $2
        RETURNING %s
    `, QuickNotesTable, quickNoteColumns), id, agentID, text, QuickNotePending)

	return scanQuickNoteResult(row, "update quick note")
}

// MarkQuickNoteConverted records the lead a pending quick note became. A note
// that is not pending matches no row.
func (s *QuickNoteStore) MarkQuickNoteConverted(ctx context.Context, agentID string, id, leadID uuid.UUID) (QuickNote, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s
        SET status = $3, converted_lead_id = $4, updated_at = NOW()
        WHERE quick_note_id = $1 AND agent_id = $2 AND status = $5
        RETURNING %s
    `, QuickNotesTable, quickNoteColumns), id, agentID, QuickNoteConverted, leadID, QuickNotePending)

	return scanQuickNoteResult(row, "mark quick note converted")
}

// DeleteQuickNote removes a quick note owned by agentID regardless of status.
func (s *QuickNoteStore) DeleteQuickNote(ctx context.Context, agentID string, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE quick_note_id = $1 AND agent_id = $2`, QuickNotesTable), id, agentID)
	if err != nil {
		return fmt.Errorf("delete quick note: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrQuickNoteNotFound
	}

	return nil
}

func scanQuickNoteResult(row pgx.Row, op string) (QuickNote, error) {
	note, err := scanQuickNote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return QuickNote{}, ErrQuickNoteNotFound
		}
		return QuickNote{}, fmt.Errorf("%s: %w", op, err)
	}
	return note, nil
}

func scanQuickNote(row pgx.Row) (QuickNote, error) {
	var note QuickNote

	if err := row.Scan(
		&note.QuickNoteID,
		&note.AgentID,
		&note.Text,
		&note.Status,
		&note.ConvertedLeadID,
		&note.CreatedAt,
		&note.UpdatedAt,
	); err != nil {
		return QuickNote{}, err
	}

	return note, nil
}

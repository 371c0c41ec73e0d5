// Package model holds the lead entity, its enumerations and the helpers that
// keep its cross-field invariants intact.
package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Lead is a merchant tracked by a single agent.
type Lead struct {
	ID                   uuid.UUID
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
	Positions            []Position
	HasDefaults          bool
	NumberOfDefaults     *int
	DefaultsDescription  *string
	DocumentStatus       DocumentStatus
	DocumentType         DocumentType
	DocumentNotes        string
	Status               LeadStatus
	CallbackDate         *Date
	CallbackTime         *ClockTime
	CreationDate         Date
	Notes                []Note
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Note is an immutable entry in a lead's history.
type Note struct {
	ID                uuid.UUID  `json:"id"`
	Timestamp         time.Time  `json:"timestamp"`
	Text              string     `json:"text"`
	AgentID           string     `json:"agentId"`
	SourceQuickNoteID *uuid.UUID `json:"sourceQuickNoteId,omitempty"`
}

// NewNote stamps a note authored by agentID at now.
func NewNote(agentID, text string, now time.Time) Note {
	return Note{
		ID:        uuid.New(),
		Timestamp: now.UTC(),
		Text:      text,
		AgentID:   agentID,
	}
}

// NotesNewestFirst returns a copy of the notes ordered by timestamp, most
// recent first. Storage order is not relied upon.
func (l Lead) NotesNewestFirst() []Note {
	notes := append([]Note(nil), l.Notes...)
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Timestamp.After(notes[j].Timestamp)
	})
	return notes
}

// PrependNote returns the notes with n placed first.
func (l Lead) PrependNote(n Note) []Note {
	notes := make([]Note, 0, len(l.Notes)+1)
	notes = append(notes, n)
	return append(notes, l.Notes...)
}

// LatestNote returns the most recent note, if any.
func (l Lead) LatestNote() (Note, bool) {
	notes := l.NotesNewestFirst()
	if len(notes) == 0 {
		return Note{}, false
	}
	return notes[0], true
}

// NormalizeDefaults clears the dependent defaults fields when HasDefaults is
// false.
func (l *Lead) NormalizeDefaults() {
	if !l.HasDefaults {
		l.NumberOfDefaults = nil
		l.DefaultsDescription = nil
	}
}

// DefaultsCount returns the number of defaults, treating absent as zero.
func (l Lead) DefaultsCount() int {
	if !l.HasDefaults || l.NumberOfDefaults == nil {
		return 0
	}
	return *l.NumberOfDefaults
}

// CallbackAt combines the callback date and time in loc. A missing time is
// midnight. The boolean is false when no callback is scheduled.
func (l Lead) CallbackAt(loc *time.Location) (time.Time, bool) {
	if l.CallbackDate == nil || l.CallbackDate.IsZero() {
		return time.Time{}, false
	}
	at := l.CallbackDate.In(loc)
	if l.CallbackTime != nil {
		at = at.Add(time.Duration(l.CallbackTime.Hour)*time.Hour + time.Duration(l.CallbackTime.Minute)*time.Minute)
	}
	return at, true
}

// TotalOriginal sums the original amounts of every position.
func (l Lead) TotalOriginal() float64 {
	var total float64
	for _, p := range l.Positions {
		total += p.OriginalAmount
	}
	return total
}

// TotalRemaining sums the current balances of every position.
func (l Lead) TotalRemaining() float64 {
	var total float64
	for _, p := range l.Positions {
		total += p.CurrentBalance
	}
	return total
}

// Package book keeps an agent's quick notes in memory between calls.
package book

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	leadmodel "github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
	"github.com/simple-easy-sites/simple-sales-crm/domains/quicknotes/be/service"
)

// ErrBusy is returned when an operation starts while another one is in flight.
var ErrBusy = errors.New("another quick note operation is in progress")

// LeadSink receives leads created by a conversion so a lead cache can include them.
type LeadSink interface {
	Add(lead leadmodel.Lead)
}

// QuickNoteBook caches the result of List and folds every confirmed mutation into it.
type QuickNoteBook struct {
	svc   service.Service
	leads LeadSink

	mu      sync.RWMutex
	notes   []service.QuickNote
	loaded  bool
	loading bool
	lastErr error
}

// NewQuickNoteBook returns an empty book backed by svc. leads may be nil.
func NewQuickNoteBook(svc service.Service, leads LeadSink) *QuickNoteBook {
	if svc == nil {
		panic("quick notes service is required")
	}
	return &QuickNoteBook{svc: svc, leads: leads}
}

// QuickNotes returns a copy of the cached collection, newest first.
func (b *QuickNoteBook) QuickNotes() []service.QuickNote {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]service.QuickNote(nil), b.notes...)
}

// Pending returns the cached notes that are still waiting for conversion.
func (b *QuickNoteBook) Pending() []service.QuickNote {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pending := make([]service.QuickNote, 0, len(b.notes))
	for _, note := range b.notes {
		if note.Pending() {
			pending = append(pending, note)
		}
	}
	return pending
}

// Loading reports whether an operation is in flight.
func (b *QuickNoteBook) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}

// Loaded reports whether Refresh has succeeded at least once.
func (b *QuickNoteBook) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loaded
}

// Err returns the failure of the last operation.
func (b *QuickNoteBook) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastErr
}

// Refresh replaces the cache with the agent's current quick notes.
func (b *QuickNoteBook) Refresh(ctx context.Context) error {
	if err := b.begin(); err != nil {
		return err
	}

	notes, err := b.svc.List(ctx)
	b.finish(err, func() {
		b.notes = notes
		b.loaded = true
	})
	return err
}

// Create captures a new note at the top of the list.
func (b *QuickNoteBook) Create(ctx context.Context, text string) (service.QuickNote, error) {
	if err := b.begin(); err != nil {
		return service.QuickNote{}, err
	}

	note, err := b.svc.Create(ctx, text)
	b.finish(err, func() {
		b.notes = append([]service.QuickNote{note}, b.notes...)
	})
	return note, err
}

// Edit replaces the text of a note.
func (b *QuickNoteBook) Edit(ctx context.Context, id uuid.UUID, text string) (service.QuickNote, error) {
	if err := b.begin(); err != nil {
		return service.QuickNote{}, err
	}

	note, err := b.svc.Edit(ctx, id, text)
	b.finish(err, func() { b.put(note) })
	return note, err
}

// Delete removes a pending note.
func (b *QuickNoteBook) Delete(ctx context.Context, id uuid.UUID) error {
	if err := b.begin(); err != nil {
		return err
	}

	err := b.svc.Delete(ctx, id)
	b.finish(err, func() {
		if i := b.indexOf(id); i >= 0 {
			b.notes = append(b.notes[:i:i], b.notes[i+1:]...)
		}
	})
	return err
}

// Convert turns a note into a lead. On a partial conversion the created lead
// still reaches the lead sink while the cached note keeps its pending status.
func (b *QuickNoteBook) Convert(ctx context.Context, id uuid.UUID, input service.ConvertInput) (service.Conversion, error) {
	if err := b.begin(); err != nil {
		return service.Conversion{}, err
	}

	result, err := b.svc.Convert(ctx, id, input)

	var partial *service.PartialConversionError
	switch {
	case err == nil:
		b.addLead(result.Lead)
	case errors.As(err, &partial):
		b.addLead(partial.Lead)
	}

	b.finish(err, func() { b.put(result.QuickNote) })
	return result, err
}

func (b *QuickNoteBook) addLead(lead leadmodel.Lead) {
	if b.leads != nil {
		b.leads.Add(lead)
	}
}

func (b *QuickNoteBook) put(note service.QuickNote) {
	if i := b.indexOf(note.ID); i >= 0 {
		b.notes[i] = note
		return
	}
	b.notes = append([]service.QuickNote{note}, b.notes...)
}

func (b *QuickNoteBook) begin() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loading {
		return ErrBusy
	}
	b.loading = true
	return nil
}

func (b *QuickNoteBook) finish(err error, apply func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	b.lastErr = err
	if err == nil {
		apply()
	}
}

func (b *QuickNoteBook) indexOf(id uuid.UUID) int {
	for i, note := range b.notes {
		if note.ID == id {
			return i
		}
	}
	return -1
}

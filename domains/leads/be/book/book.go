// Package book keeps an agent's leads in memory between calls. The cache only
// changes from responses the store has confirmed.
package book

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/service"
)

// ErrBusy is returned when an operation starts while another one is in flight.
var ErrBusy = errors.New("another lead operation is in progress")

// LeadBook caches the result of List and folds every successful mutation into it.
type LeadBook struct {
	svc service.Service

	mu      sync.RWMutex
	leads   []model.Lead
	loaded  bool
	loading bool
	lastErr error
}

// NewLeadBook returns an empty book backed by svc.
func NewLeadBook(svc service.Service) *LeadBook {
	if svc == nil {
		panic("leads service is required")
	}
	return &LeadBook{svc: svc}
}

// Leads returns a copy of the cached collection.
func (b *LeadBook) Leads() []model.Lead {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]model.Lead(nil), b.leads...)
}

// Lead returns the cached lead with id.
func (b *LeadBook) Lead(id uuid.UUID) (model.Lead, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := b.indexOf(id); i >= 0 {
		return b.leads[i], true
	}
	return model.Lead{}, false
}

// Loading reports whether an operation is in flight.
func (b *LeadBook) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}

// Loaded reports whether Refresh has succeeded at least once.
func (b *LeadBook) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loaded
}

// Err returns the failure of the last operation, or nil when it succeeded.
func (b *LeadBook) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastErr
}

// Refresh replaces the cache with the agent's current leads.
func (b *LeadBook) Refresh(ctx context.Context) error {
	if err := b.begin(); err != nil {
		return err
	}

	leads, err := b.svc.List(ctx)
	b.finish(err, func() {
		b.leads = leads
		b.loaded = true
	})
	return err
}

// Create adds a lead and places it first, matching the newest-first listing.
func (b *LeadBook) Create(ctx context.Context, input service.CreateInput) (model.Lead, error) {
	if err := b.begin(); err != nil {
		return model.Lead{}, err
	}

	lead, err := b.svc.Create(ctx, input)
	b.finish(err, func() {
		b.leads = append([]model.Lead{lead}, b.leads...)
	})
	return lead, err
}

// Update replaces the editable fields of a lead.
func (b *LeadBook) Update(ctx context.Context, id uuid.UUID, input service.LeadInput) (model.Lead, error) {
	return b.replace(func() (model.Lead, error) { return b.svc.Update(ctx, id, input) })
}

// AddNote prepends a note to a lead.
func (b *LeadBook) AddNote(ctx context.Context, id uuid.UUID, text string) (model.Lead, error) {
	return b.replace(func() (model.Lead, error) { return b.svc.AddNote(ctx, id, text) })
}

// LogUpdate applies a combined note, callback and status change.
func (b *LeadBook) LogUpdate(ctx context.Context, id uuid.UUID, input service.LogUpdateInput) (model.Lead, error) {
	return b.replace(func() (model.Lead, error) { return b.svc.LogUpdate(ctx, id, input) })
}

// Delete removes a lead.
func (b *LeadBook) Delete(ctx context.Context, id uuid.UUID) error {
	if err := b.begin(); err != nil {
		return err
	}

	err := b.svc.Delete(ctx, id)
	b.finish(err, func() {
		if i := b.indexOf(id); i >= 0 {
			b.leads = append(b.leads[:i:i], b.leads[i+1:]...)
		}
	})
	return err
}

// Add folds in a lead created outside the book, such as by a quick note conversion.
func (b *LeadBook) Add(lead model.Lead) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(lead.ID); i >= 0 {
		b.leads[i] = lead
		return
	}
	b.leads = append([]model.Lead{lead}, b.leads...)
}

func (b *LeadBook) replace(call func() (model.Lead, error)) (model.Lead, error) {
	if err := b.begin(); err != nil {
		return model.Lead{}, err
	}

	lead, err := call()
	b.finish(err, func() {
		if i := b.indexOf(lead.ID); i >= 0 {
			b.leads[i] = lead
			return
		}
		b.leads = append([]model.Lead{lead}, b.leads...)
	})
	return lead, err
}

func (b *LeadBook) begin() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loading {
		return ErrBusy
	}
	b.loading = true
	return nil
}

// finish records the outcome and applies the cache change only on success.
func (b *LeadBook) finish(err error, apply func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	b.lastErr = err
	if err == nil {
		apply()
	}
}

func (b *LeadBook) indexOf(id uuid.UUID) int {
	for i, lead := range b.leads {
		if lead.ID == id {
			return i
		}
	}
	return -1
}

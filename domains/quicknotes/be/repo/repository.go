package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/simple-easy-sites/simple-sales-crm/platform/go/persistence"
)

// Repository defines the persistence operations required by the quick notes service.
type Repository interface {
	List(ctx context.Context, agentID string) ([]persistence.QuickNote, error)
	Get(ctx context.Context, agentID string, id uuid.UUID) (persistence.QuickNote, error)
	Create(ctx context.Context, agentID, text string) (persistence.QuickNote, error)
	UpdateText(ctx context.Context, agentID string, id uuid.UUID, text string) (persistence.QuickNote, error)
	MarkConverted(ctx context.Context, agentID string, id, leadID uuid.UUID) (persistence.QuickNote, error)
	Delete(ctx context.Context, agentID string, id uuid.UUID) error
}

type postgresRepository struct {
	store *persistence.QuickNoteStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.QuickNoteStore) Repository {
	if store == nil {
		panic("quick note store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) List(ctx context.Context, agentID string) ([]persistence.QuickNote, error) {
	return r.store.ListQuickNotes(ctx, agentID)
}

func (r *postgresRepository) Get(ctx context.Context, agentID string, id uuid.UUID) (persistence.QuickNote, error) {
	return r.store.GetQuickNote(ctx, agentID, id)
}

func (r *postgresRepository) Create(ctx context.Context, agentID, text string) (persistence.QuickNote, error) {
	return r.store.CreateQuickNote(ctx, agentID, text)
}

func (r *postgresRepository) UpdateText(ctx context.Context, agentID string, id uuid.UUID, text string) (persistence.QuickNote, error) {
	return r.store.UpdateQuickNoteText(ctx, agentID, id, text)
}

func (r *postgresRepository) MarkConverted(ctx context.Context, agentID string, id, leadID uuid.UUID) (persistence.QuickNote, error) {
	return r.store.MarkQuickNoteConverted(ctx, agentID, id, leadID)
}

func (r *postgresRepository) Delete(ctx context.Context, agentID string, id uuid.UUID) error {
	return r.store.DeleteQuickNote(ctx, agentID, id)
}

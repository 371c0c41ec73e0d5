package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/simple-easy-sites/simple-sales-crm/platform/go/persistence"
)

// Repository defines the persistence operations required by the leads service.
// Every method is scoped by the owning agent.
type Repository interface {
	List(ctx context.Context, agentID string) ([]persistence.Lead, error)
	Get(ctx context.Context, agentID string, id uuid.UUID) (persistence.Lead, error)
	Create(ctx context.Context, params persistence.CreateLeadParams) (persistence.Lead, error)
	Update(ctx context.Context, agentID string, id uuid.UUID, fields persistence.LeadFields) (persistence.Lead, error)
	Patch(ctx context.Context, agentID string, id uuid.UUID, params persistence.PatchLeadParams) (persistence.Lead, error)
	Delete(ctx context.Context, agentID string, id uuid.UUID) error
}

type postgresRepository struct {
	store *persistence.LeadStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.LeadStore) Repository {
	if store == nil {
		panic("lead store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) List(ctx context.Context, agentID string) ([]persistence.Lead, error) {
	return r.store.ListLeads(ctx, agentID)
}

func (r *postgresRepository) Get(ctx context.Context, agentID string, id uuid.UUID) (persistence.Lead, error) {
	return r.store.GetLead(ctx, agentID, id)
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateLeadParams) (persistence.Lead, error) {
	return r.store.CreateLead(ctx, params)
}

func (r *postgresRepository) Update(ctx context.Context, agentID string, id uuid.UUID, fields persistence.LeadFields) (persistence.Lead, error) {
	return r.store.UpdateLead(ctx, agentID, id, fields)
}

func (r *postgresRepository) Patch(ctx context.Context, agentID string, id uuid.UUID, params persistence.PatchLeadParams) (persistence.Lead, error) {
	return r.store.PatchLead(ctx, agentID, id, params)
}

func (r *postgresRepository) Delete(ctx context.Context, agentID string, id uuid.UUID) error {
	return r.store.DeleteLead(ctx, agentID, id)
}

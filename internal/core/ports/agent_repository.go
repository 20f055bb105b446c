package ports

import (
	"context"
	"time"

	"github.com/mejarc/agent-onboarding/internal/core/domain"
)

// ListAgentsFilter carries the query parameters for the admin agent listing.
type ListAgentsFilter struct {
	Status string // optional: filter by registration status
	Search string // optional: partial match on business name or owner name/email
	Page   int    // 1-based
	Limit  int    // max rows per page (capped at 100 by service)
}

// AgentRepository defines persistence for the Agent aggregate. Implementations
// must write the aggregate (agent + embedded profile/bio/KYC records) atomically
// so concurrent readers observe either the old or the new combination.
type AgentRepository interface {
	// Create inserts a new agent. It must enforce the one-agent-per-user
	// invariant and return domain.ErrAgentExists when a concurrent or prior
	// Create for the same user already won.
	Create(ctx context.Context, agent *domain.Agent) error
	FindByID(ctx context.Context, id string) (*domain.Agent, error)
	FindByUserID(ctx context.Context, userID string) (*domain.Agent, error)
	// Update replaces the stored aggregate with the given one.
	Update(ctx context.Context, agent *domain.Agent) error
	// SoftDelete stamps the tombstone instead of removing the document.
	SoftDelete(ctx context.Context, id string, at time.Time) error
	// List returns a page of agents matching filter and the total count,
	// newest first.
	List(ctx context.Context, filter ListAgentsFilter) ([]*domain.Agent, int64, error)
}

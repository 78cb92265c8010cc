package record

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the port exposed by both the main hospital store and the pharmacy
// microservice store. Calls are synchronous; callers supply timeouts through
// the context.
type Store interface {
	// List returns all records of a type for a tenant; when since is non-nil
	// only records modified after it are returned
	List(ctx context.Context, tenantID uuid.UUID, t Type, since *time.Time) ([]Record, error)
	// ListByIDs returns the records with the given store-assigned identifiers
	ListByIDs(ctx context.Context, tenantID uuid.UUID, t Type, ids []string) ([]Record, error)
	// Create inserts a record into the store
	Create(ctx context.Context, rec Record) error
	// Update overwrites an existing record in the store
	Update(ctx context.Context, rec Record) error
}

// Writer applies a record to its owning store. Writers must tolerate being
// invoked more than once with equivalent data (at-least-once semantics
// inherited from the upstream bus).
type Writer interface {
	// Apply creates or updates the record in the owning store
	Apply(ctx context.Context, rec Record) error
}

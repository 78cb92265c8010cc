package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
)

// ConflictFilter defines filter criteria for listing conflicts
type ConflictFilter struct {
	// RecordType filters by record type (optional)
	RecordType *record.Type
	// Status filters by conflict status (optional)
	Status *ConflictStatus
	// ConflictType filters by conflict type (optional)
	ConflictType *ConflictType
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}

// ConflictRepository persists sync conflicts
type ConflictRepository interface {
	// Save creates or updates a conflict
	Save(ctx context.Context, conflict *Conflict) error
	// FindByID finds a conflict by id within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Conflict, error)
	// FindPending returns all pending conflicts for a tenant
	FindPending(ctx context.Context, tenantID uuid.UUID) ([]*Conflict, error)
	// CountPending counts pending conflicts for a tenant
	CountPending(ctx context.Context, tenantID uuid.UUID) (int64, error)
	// FindAll finds conflicts matching the filter
	FindAll(ctx context.Context, tenantID uuid.UUID, filter ConflictFilter) ([]*Conflict, int64, error)
	// Stats returns grouped conflict counts for a tenant
	Stats(ctx context.Context, tenantID uuid.UUID) (*Statistics, error)
}

// AuditRepository persists resolution audit entries. Entries are write-once.
type AuditRepository interface {
	// Append inserts an audit entry
	Append(ctx context.Context, entry *AuditEntry) error
	// FindByConflictID returns the audit entries for a conflict
	FindByConflictID(ctx context.Context, tenantID, conflictID uuid.UUID) ([]*AuditEntry, error)
}

// WatermarkRepository persists the per-service incremental sync watermark
type WatermarkRepository interface {
	// Get returns the watermark for a service, or nil when no sync has run
	Get(ctx context.Context, serviceName string) (*Watermark, error)
	// Advance moves the watermark forward to the given time
	Advance(ctx context.Context, serviceName string, to time.Time) error
}

package sync

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
)

// AuditEntry is a write-once log row capturing the full context of a conflict
// resolution: both pre-resolution snapshots and the resolved outcome.
type AuditEntry struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	ConflictID      uuid.UUID
	RecordID        string
	RecordType      record.Type
	Strategy        ResolutionStrategy
	MainSnapshot    record.Record
	ServiceSnapshot record.Record
	ResolvedValue   record.Record
	ResolvedBy      string
	ResolvedAt      time.Time
}

// NewAuditEntry creates an audit entry from a resolved conflict
func NewAuditEntry(c *Conflict) *AuditEntry {
	entry := &AuditEntry{
		ID:              uuid.New(),
		TenantID:        c.TenantID,
		ConflictID:      c.ID,
		RecordID:        c.RecordID,
		RecordType:      c.RecordType,
		MainSnapshot:    c.MainSnapshot,
		ServiceSnapshot: c.ServiceSnapshot,
		ResolvedBy:      c.ResolvedBy,
		ResolvedAt:      time.Now(),
	}
	if c.Strategy != nil {
		entry.Strategy = *c.Strategy
	}
	if c.ResolvedValue != nil {
		entry.ResolvedValue = *c.ResolvedValue
	}
	if c.ResolvedAt != nil {
		entry.ResolvedAt = *c.ResolvedAt
	}
	return entry
}

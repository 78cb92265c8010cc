package sync

import (
	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// Event types published by the sync subsystem
const (
	EventTypeConflictDetected = "sync.conflict_detected"
	EventTypeConflictResolved = "sync.conflict_resolved"
	EventTypeSyncCompleted    = "sync.completed"
	EventTypeRecordRetired    = "sync.record_retired"
)

// ConflictDetectedEvent is published when the orchestrator raises a conflict
type ConflictDetectedEvent struct {
	shared.BaseDomainEvent
	ConflictID   uuid.UUID    `json:"conflict_id"`
	RecordType   record.Type  `json:"record_type"`
	ConflictType ConflictType `json:"conflict_type"`
}

// NewConflictDetectedEvent creates a ConflictDetectedEvent for a new conflict
func NewConflictDetectedEvent(c *Conflict) *ConflictDetectedEvent {
	return &ConflictDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConflictDetected, c.RecordType.String(), c.RecordID, c.TenantID),
		ConflictID:      c.ID,
		RecordType:      c.RecordType,
		ConflictType:    c.ConflictType,
	}
}

// ConflictResolvedEvent is published after a conflict reaches a terminal state
type ConflictResolvedEvent struct {
	shared.BaseDomainEvent
	ConflictID uuid.UUID          `json:"conflict_id"`
	RecordType record.Type        `json:"record_type"`
	Strategy   ResolutionStrategy `json:"strategy"`
	Status     ConflictStatus     `json:"status"`
	ResolvedBy string             `json:"resolved_by"`
}

// NewConflictResolvedEvent creates a ConflictResolvedEvent for a resolved conflict
func NewConflictResolvedEvent(c *Conflict) *ConflictResolvedEvent {
	evt := &ConflictResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConflictResolved, c.RecordType.String(), c.RecordID, c.TenantID),
		ConflictID:      c.ID,
		RecordType:      c.RecordType,
		Status:          c.Status,
		ResolvedBy:      c.ResolvedBy,
	}
	if c.Strategy != nil {
		evt.Strategy = *c.Strategy
	}
	return evt
}

// RecordRetiredEvent is the audit trace for upstream deletion, expiration and
// cancellation notifications. The sync service does not act on these beyond
// recording that they happened.
type RecordRetiredEvent struct {
	shared.BaseDomainEvent
	RecordType record.Type `json:"record_type"`
	Reason     string      `json:"reason"`
}

// NewRecordRetiredEvent creates a RecordRetiredEvent
func NewRecordRetiredEvent(tenantID uuid.UUID, t record.Type, recordID, reason string) *RecordRetiredEvent {
	return &RecordRetiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecordRetired, t.String(), recordID, tenantID),
		RecordType:      t,
		Reason:          reason,
	}
}

// SyncCompletedEvent is published when a full or incremental pass finishes
type SyncCompletedEvent struct {
	shared.BaseDomainEvent
	Mode      string `json:"mode"`
	Total     int    `json:"total"`
	Synced    int    `json:"synced"`
	Conflicts int    `json:"conflicts"`
}

// NewSyncCompletedEvent creates a SyncCompletedEvent summarizing a pass
func NewSyncCompletedEvent(tenantID uuid.UUID, mode string, total, synced, conflicts int) *SyncCompletedEvent {
	return &SyncCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSyncCompleted, "sync_run", mode, tenantID),
		Mode:            mode,
		Total:           total,
		Synced:          synced,
		Conflicts:       conflicts,
	}
}

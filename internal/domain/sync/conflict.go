package sync

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// ConflictType tags the kind of divergence detected between the two stores
type ConflictType string

const (
	ConflictTypeDataMismatch     ConflictType = "data_mismatch"
	ConflictTypeDeletionConflict ConflictType = "deletion_conflict"
	ConflictTypeCreationConflict ConflictType = "creation_conflict"
)

// IsValid checks if the conflict type is valid
func (t ConflictType) IsValid() bool {
	switch t {
	case ConflictTypeDataMismatch, ConflictTypeDeletionConflict, ConflictTypeCreationConflict:
		return true
	}
	return false
}

// ConflictStatus represents the resolution state of a conflict
type ConflictStatus string

const (
	ConflictStatusPending      ConflictStatus = "pending"
	ConflictStatusResolved     ConflictStatus = "resolved"
	ConflictStatusAutoResolved ConflictStatus = "auto_resolved"
)

// ResolutionStrategy is the closed set of ways a conflict can be resolved
type ResolutionStrategy string

const (
	StrategyMainWins         ResolutionStrategy = "main_wins"
	StrategyMicroserviceWins ResolutionStrategy = "microservice_wins"
	StrategyMerge            ResolutionStrategy = "merge"
	StrategyManual           ResolutionStrategy = "manual"
)

// IsValid checks if the strategy is valid
func (s ResolutionStrategy) IsValid() bool {
	switch s {
	case StrategyMainWins, StrategyMicroserviceWins, StrategyMerge, StrategyManual:
		return true
	}
	return false
}

// String returns the string representation
func (s ResolutionStrategy) String() string {
	return string(s)
}

// Conflict represents a detected divergence between the main-store and
// microservice-store versions of a record. It is created by the sync
// orchestrator and transitions to a terminal status exclusively through the
// conflict resolution engine. Terminal conflicts are never mutated again;
// outcomes are recorded as appended audit entries.
type Conflict struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	RecordID        string
	RecordType      record.Type
	ConflictType    ConflictType
	MainSnapshot    record.Record
	ServiceSnapshot record.Record
	Strategy        *ResolutionStrategy
	ResolvedValue   *record.Record
	Status          ConflictStatus
	CreatedAt       time.Time
	ResolvedAt      *time.Time
	ResolvedBy      string
}

// NewConflict creates a pending conflict from the two store snapshots
func NewConflict(tenantID uuid.UUID, recordType record.Type, recordID string, conflictType ConflictType, mainSnapshot, serviceSnapshot record.Record) *Conflict {
	return &Conflict{
		ID:              uuid.New(),
		TenantID:        tenantID,
		RecordID:        recordID,
		RecordType:      recordType,
		ConflictType:    conflictType,
		MainSnapshot:    mainSnapshot,
		ServiceSnapshot: serviceSnapshot,
		Status:          ConflictStatusPending,
		CreatedAt:       time.Now(),
	}
}

// IsTerminal returns true once the conflict has been resolved
func (c *Conflict) IsTerminal() bool {
	return c.Status == ConflictStatusResolved || c.Status == ConflictStatusAutoResolved
}

// MarkResolved transitions a pending conflict to resolved
func (c *Conflict) MarkResolved(strategy ResolutionStrategy, resolvedValue record.Record, resolvedBy string) error {
	return c.markTerminal(ConflictStatusResolved, strategy, resolvedValue, resolvedBy)
}

// MarkAutoResolved transitions a pending conflict to auto_resolved
func (c *Conflict) MarkAutoResolved(strategy ResolutionStrategy, resolvedValue record.Record, resolvedBy string) error {
	return c.markTerminal(ConflictStatusAutoResolved, strategy, resolvedValue, resolvedBy)
}

func (c *Conflict) markTerminal(status ConflictStatus, strategy ResolutionStrategy, resolvedValue record.Record, resolvedBy string) error {
	if c.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Conflict is already resolved")
	}
	if !strategy.IsValid() {
		return ErrUnsupportedStrategy
	}
	now := time.Now()
	c.Status = status
	c.Strategy = &strategy
	c.ResolvedValue = &resolvedValue
	c.ResolvedAt = &now
	c.ResolvedBy = resolvedBy
	return nil
}

// Statistics holds grouped conflict counts for a tenant
type Statistics struct {
	Total          int64            `json:"total"`
	Pending        int64            `json:"pending"`
	ByRecordType   map[string]int64 `json:"by_record_type"`
	ByConflictType map[string]int64 `json:"by_conflict_type"`
	ByStrategy     map[string]int64 `json:"by_strategy"`
}

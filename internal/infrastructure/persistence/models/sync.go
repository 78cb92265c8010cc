package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/sync"
)

// recordSnapshot is the JSONB shape used to persist record snapshots inside
// conflicts and audit entries: the type tag plus the raw entity payload.
type recordSnapshot struct {
	Type    record.Type     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func marshalSnapshot(rec record.Record) (string, error) {
	payload, err := rec.MarshalPayload()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(recordSnapshot{Type: rec.Type, Payload: payload})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalSnapshot(data string) (record.Record, error) {
	if data == "" {
		return record.Record{}, fmt.Errorf("empty record snapshot")
	}
	var snap recordSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return record.Record{}, err
	}
	return record.UnmarshalPayload(snap.Type, snap.Payload)
}

// ConflictModel is the persistence model for the Conflict domain entity.
type ConflictModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_conflicts_tenant,priority:1"`
	RecordID        string     `gorm:"type:varchar(64);not null;index"`
	RecordType      string     `gorm:"type:varchar(30);not null;index"`
	ConflictType    string     `gorm:"type:varchar(30);not null;index"`
	MainSnapshot    string     `gorm:"type:jsonb;not null"`
	ServiceSnapshot string     `gorm:"type:jsonb;not null"`
	Strategy        *string    `gorm:"type:varchar(30)"`
	ResolvedValue   *string    `gorm:"type:jsonb"`
	Status          string     `gorm:"type:varchar(20);not null;index"`
	CreatedAt       time.Time  `gorm:"not null;index"`
	ResolvedAt      *time.Time ``
	ResolvedBy      string     `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (ConflictModel) TableName() string {
	return "sync_conflicts"
}

// ToDomain converts the persistence model to a domain Conflict entity.
func (m *ConflictModel) ToDomain() (*sync.Conflict, error) {
	mainSnap, err := unmarshalSnapshot(m.MainSnapshot)
	if err != nil {
		return nil, fmt.Errorf("conflict %s: main snapshot: %w", m.ID, err)
	}
	svcSnap, err := unmarshalSnapshot(m.ServiceSnapshot)
	if err != nil {
		return nil, fmt.Errorf("conflict %s: service snapshot: %w", m.ID, err)
	}

	c := &sync.Conflict{
		ID:              m.ID,
		TenantID:        m.TenantID,
		RecordID:        m.RecordID,
		RecordType:      record.Type(m.RecordType),
		ConflictType:    sync.ConflictType(m.ConflictType),
		MainSnapshot:    mainSnap,
		ServiceSnapshot: svcSnap,
		Status:          sync.ConflictStatus(m.Status),
		CreatedAt:       m.CreatedAt,
		ResolvedAt:      m.ResolvedAt,
		ResolvedBy:      m.ResolvedBy,
	}
	if m.Strategy != nil {
		strategy := sync.ResolutionStrategy(*m.Strategy)
		c.Strategy = &strategy
	}
	if m.ResolvedValue != nil {
		resolved, err := unmarshalSnapshot(*m.ResolvedValue)
		if err != nil {
			return nil, fmt.Errorf("conflict %s: resolved value: %w", m.ID, err)
		}
		c.ResolvedValue = &resolved
	}
	return c, nil
}

// FromDomain populates the persistence model from a domain Conflict entity.
func (m *ConflictModel) FromDomain(c *sync.Conflict) error {
	mainSnap, err := marshalSnapshot(c.MainSnapshot)
	if err != nil {
		return err
	}
	svcSnap, err := marshalSnapshot(c.ServiceSnapshot)
	if err != nil {
		return err
	}

	m.ID = c.ID
	m.TenantID = c.TenantID
	m.RecordID = c.RecordID
	m.RecordType = c.RecordType.String()
	m.ConflictType = string(c.ConflictType)
	m.MainSnapshot = mainSnap
	m.ServiceSnapshot = svcSnap
	m.Status = string(c.Status)
	m.CreatedAt = c.CreatedAt
	m.ResolvedAt = c.ResolvedAt
	m.ResolvedBy = c.ResolvedBy

	m.Strategy = nil
	if c.Strategy != nil {
		strategy := c.Strategy.String()
		m.Strategy = &strategy
	}
	m.ResolvedValue = nil
	if c.ResolvedValue != nil {
		resolved, err := marshalSnapshot(*c.ResolvedValue)
		if err != nil {
			return err
		}
		m.ResolvedValue = &resolved
	}
	return nil
}

// AuditEntryModel is the persistence model for the AuditEntry domain entity.
// Rows are insert-only.
type AuditEntryModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID        uuid.UUID `gorm:"type:uuid;not null;index"`
	ConflictID      uuid.UUID `gorm:"type:uuid;not null;index"`
	RecordID        string    `gorm:"type:varchar(64);not null"`
	RecordType      string    `gorm:"type:varchar(30);not null"`
	Strategy        string    `gorm:"type:varchar(30);not null"`
	MainSnapshot    string    `gorm:"type:jsonb;not null"`
	ServiceSnapshot string    `gorm:"type:jsonb;not null"`
	ResolvedValue   string    `gorm:"type:jsonb;not null"`
	ResolvedBy      string    `gorm:"type:varchar(100);not null"`
	ResolvedAt      time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "sync_resolution_audit"
}

// ToDomain converts the persistence model to a domain AuditEntry.
func (m *AuditEntryModel) ToDomain() (*sync.AuditEntry, error) {
	mainSnap, err := unmarshalSnapshot(m.MainSnapshot)
	if err != nil {
		return nil, fmt.Errorf("audit entry %s: main snapshot: %w", m.ID, err)
	}
	svcSnap, err := unmarshalSnapshot(m.ServiceSnapshot)
	if err != nil {
		return nil, fmt.Errorf("audit entry %s: service snapshot: %w", m.ID, err)
	}
	resolved, err := unmarshalSnapshot(m.ResolvedValue)
	if err != nil {
		return nil, fmt.Errorf("audit entry %s: resolved value: %w", m.ID, err)
	}

	return &sync.AuditEntry{
		ID:              m.ID,
		TenantID:        m.TenantID,
		ConflictID:      m.ConflictID,
		RecordID:        m.RecordID,
		RecordType:      record.Type(m.RecordType),
		Strategy:        sync.ResolutionStrategy(m.Strategy),
		MainSnapshot:    mainSnap,
		ServiceSnapshot: svcSnap,
		ResolvedValue:   resolved,
		ResolvedBy:      m.ResolvedBy,
		ResolvedAt:      m.ResolvedAt,
	}, nil
}

// FromDomain populates the persistence model from a domain AuditEntry.
func (m *AuditEntryModel) FromDomain(e *sync.AuditEntry) error {
	mainSnap, err := marshalSnapshot(e.MainSnapshot)
	if err != nil {
		return err
	}
	svcSnap, err := marshalSnapshot(e.ServiceSnapshot)
	if err != nil {
		return err
	}
	resolved, err := marshalSnapshot(e.ResolvedValue)
	if err != nil {
		return err
	}

	m.ID = e.ID
	m.TenantID = e.TenantID
	m.ConflictID = e.ConflictID
	m.RecordID = e.RecordID
	m.RecordType = e.RecordType.String()
	m.Strategy = e.Strategy.String()
	m.MainSnapshot = mainSnap
	m.ServiceSnapshot = svcSnap
	m.ResolvedValue = resolved
	m.ResolvedBy = e.ResolvedBy
	m.ResolvedAt = e.ResolvedAt
	return nil
}

// WatermarkModel is the persistence model for the incremental sync watermark.
// One row per service.
type WatermarkModel struct {
	ServiceName  string    `gorm:"type:varchar(100);primary_key"`
	LastSyncedAt time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (WatermarkModel) TableName() string {
	return "sync_watermarks"
}

// ToDomain converts the persistence model to a domain Watermark.
func (m *WatermarkModel) ToDomain() *sync.Watermark {
	return &sync.Watermark{
		ServiceName:  m.ServiceName,
		LastSyncedAt: m.LastSyncedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

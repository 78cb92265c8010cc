package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/validation"
)

// QuarantinedRecordModel is the persistence model for the QuarantinedRecord
// domain entity.
type QuarantinedRecordModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_quarantine_tenant,priority:1"`
	RecordType       string     `gorm:"type:varchar(30);not null;index"`
	RecordID         string     `gorm:"type:varchar(100);not null;index"`
	RawPayload       string     `gorm:"type:jsonb;not null"`
	Errors           string     `gorm:"type:jsonb;not null"`
	Disposition      string     `gorm:"type:varchar(20);not null;index"`
	CorrectedPayload *string    `gorm:"type:jsonb"`
	QuarantinedAt    time.Time  `gorm:"not null;index"`
	ReviewedAt       *time.Time `gorm:"index"`
	ReviewedBy       string     `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (QuarantinedRecordModel) TableName() string {
	return "quarantined_records"
}

// ToDomain converts the persistence model to a domain QuarantinedRecord.
func (m *QuarantinedRecordModel) ToDomain() *validation.QuarantinedRecord {
	q := &validation.QuarantinedRecord{
		ID:            m.ID,
		TenantID:      m.TenantID,
		RecordType:    record.Type(m.RecordType),
		RecordID:      m.RecordID,
		RawPayload:    []byte(m.RawPayload),
		Disposition:   validation.Disposition(m.Disposition),
		QuarantinedAt: m.QuarantinedAt,
		ReviewedAt:    m.ReviewedAt,
		ReviewedBy:    m.ReviewedBy,
	}
	if m.Errors != "" {
		var errs []string
		if err := json.Unmarshal([]byte(m.Errors), &errs); err == nil {
			q.Errors = errs
		}
	}
	if m.CorrectedPayload != nil {
		q.CorrectedPayload = []byte(*m.CorrectedPayload)
	}
	return q
}

// FromDomain populates the persistence model from a domain QuarantinedRecord.
func (m *QuarantinedRecordModel) FromDomain(q *validation.QuarantinedRecord) {
	m.ID = q.ID
	m.TenantID = q.TenantID
	m.RecordType = q.RecordType.String()
	m.RecordID = q.RecordID
	m.RawPayload = string(q.RawPayload)
	m.Disposition = string(q.Disposition)
	m.QuarantinedAt = q.QuarantinedAt
	m.ReviewedAt = q.ReviewedAt
	m.ReviewedBy = q.ReviewedBy

	if errs, err := json.Marshal(q.Errors); err == nil {
		m.Errors = string(errs)
	} else {
		m.Errors = "[]"
	}
	m.CorrectedPayload = nil
	if len(q.CorrectedPayload) > 0 {
		corrected := string(q.CorrectedPayload)
		m.CorrectedPayload = &corrected
	}
}

// ValidationLogModel is the persistence model for validation outcomes.
// Rows are insert-only and feed the compliance report.
type ValidationLogModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index:idx_validation_log_tenant_time,priority:1"`
	RecordType   string    `gorm:"type:varchar(30);not null"`
	RecordID     string    `gorm:"type:varchar(100);not null"`
	Valid        bool      `gorm:"not null"`
	ErrorCount   int       `gorm:"not null;default:0"`
	WarningCount int       `gorm:"not null;default:0"`
	Quarantined  bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"not null;index:idx_validation_log_tenant_time,priority:2"`
}

// TableName returns the table name for GORM
func (ValidationLogModel) TableName() string {
	return "validation_log"
}

// ToDomain converts the persistence model to a domain LogEntry.
func (m *ValidationLogModel) ToDomain() *validation.LogEntry {
	return &validation.LogEntry{
		ID:           m.ID,
		TenantID:     m.TenantID,
		RecordType:   record.Type(m.RecordType),
		RecordID:     m.RecordID,
		Valid:        m.Valid,
		ErrorCount:   m.ErrorCount,
		WarningCount: m.WarningCount,
		Quarantined:  m.Quarantined,
		CreatedAt:    m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain LogEntry.
func (m *ValidationLogModel) FromDomain(e *validation.LogEntry) {
	m.ID = e.ID
	m.TenantID = e.TenantID
	m.RecordType = e.RecordType.String()
	m.RecordID = e.RecordID
	m.Valid = e.Valid
	m.ErrorCount = e.ErrorCount
	m.WarningCount = e.WarningCount
	m.Quarantined = e.Quarantined
	m.CreatedAt = e.CreatedAt
}

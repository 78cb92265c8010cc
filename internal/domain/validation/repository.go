package validation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
)

// QuarantineFilter defines filter criteria for listing quarantined records
type QuarantineFilter struct {
	// RecordType filters by record type (optional)
	RecordType *record.Type
	// Disposition filters by review disposition (optional)
	Disposition *Disposition
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}

// QuarantineStatistics holds grouped quarantine counts for a tenant
type QuarantineStatistics struct {
	Total         int64            `json:"total"`
	Pending       int64            `json:"pending"`
	ByRecordType  map[string]int64 `json:"by_record_type"`
	ByDisposition map[string]int64 `json:"by_disposition"`
}

// QuarantineRepository persists quarantined records
type QuarantineRepository interface {
	// Save creates or updates a quarantined record
	Save(ctx context.Context, q *QuarantinedRecord) error
	// FindByID finds a quarantined record by id within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*QuarantinedRecord, error)
	// FindAll finds quarantined records matching the filter
	FindAll(ctx context.Context, tenantID uuid.UUID, filter QuarantineFilter) ([]*QuarantinedRecord, int64, error)
	// Stats returns grouped quarantine counts for a tenant
	Stats(ctx context.Context, tenantID uuid.UUID) (*QuarantineStatistics, error)
	// ReviewCounts returns the number of reviewed records and how many of
	// those were corrected, for records reviewed after the given time
	ReviewCounts(ctx context.Context, tenantID uuid.UUID, since time.Time) (reviewed, corrected int64, err error)
}

// LogEntry records one validation outcome. The compliance report derives its
// denominators from these rows.
type LogEntry struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	RecordType   record.Type
	RecordID     string
	Valid        bool
	ErrorCount   int
	WarningCount int
	Quarantined  bool
	CreatedAt    time.Time
}

// WindowCounts aggregates validation outcomes over a trailing window
type WindowCounts struct {
	Total       int64
	WithErrors  int64
	Quarantined int64
}

// LogRepository persists validation outcomes
type LogRepository interface {
	// Append inserts a validation log entry; failures here are best-effort
	// for callers and must not mask the primary validation signal
	Append(ctx context.Context, entry *LogEntry) error
	// CountSince aggregates outcomes recorded after the given time
	CountSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (*WindowCounts, error)
}

// ComplianceReport holds the derived validation ratios over a trailing
// window. Each ratio is defined as 0 when its denominator is 0.
type ComplianceReport struct {
	WindowDays     int     `json:"window_days"`
	TotalValidated int64   `json:"total_validated"`
	TotalReviewed  int64   `json:"total_reviewed"`
	QuarantineRate float64 `json:"quarantine_rate"`
	ErrorRate      float64 `json:"error_rate"`
	CorrectionRate float64 `json:"correction_rate"`
}

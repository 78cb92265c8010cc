package validation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// Disposition is the review state of a quarantined record
type Disposition string

const (
	DispositionPending   Disposition = "pending"
	DispositionApproved  Disposition = "approved"
	DispositionRejected  Disposition = "rejected"
	DispositionCorrected Disposition = "corrected"
)

// IsValid checks if the disposition is valid
func (d Disposition) IsValid() bool {
	switch d {
	case DispositionPending, DispositionApproved, DispositionRejected, DispositionCorrected:
		return true
	}
	return false
}

// ReviewAction is a human reviewer's decision on a quarantined record
type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "approve"
	ReviewActionReject  ReviewAction = "reject"
	ReviewActionCorrect ReviewAction = "correct"
)

// IsValid checks if the review action is valid
func (a ReviewAction) IsValid() bool {
	switch a {
	case ReviewActionApprove, ReviewActionReject, ReviewActionCorrect:
		return true
	}
	return false
}

// QuarantinedRecord holds a record that failed validation, pending human
// review. It is an audit artifact: it is never auto-deleted, and the review
// workflow is the only path that ever mutates it.
type QuarantinedRecord struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	RecordType       record.Type
	RecordID         string
	RawPayload       []byte
	Errors           []string
	Disposition      Disposition
	CorrectedPayload []byte
	QuarantinedAt    time.Time
	ReviewedAt       *time.Time
	ReviewedBy       string
}

// NewQuarantinedRecord quarantines a failed record. When the record carries
// no identifier a generated placeholder is used so the quarantine row is
// still addressable.
func NewQuarantinedRecord(tenantID uuid.UUID, recordType record.Type, recordID string, rawPayload []byte, errs []string) *QuarantinedRecord {
	if recordID == "" {
		recordID = fmt.Sprintf("unidentified-%s", uuid.New().String())
	}
	return &QuarantinedRecord{
		ID:            uuid.New(),
		TenantID:      tenantID,
		RecordType:    recordType,
		RecordID:      recordID,
		RawPayload:    rawPayload,
		Errors:        errs,
		Disposition:   DispositionPending,
		QuarantinedAt: time.Now(),
	}
}

// Review applies a reviewer's decision. Only pending records can be reviewed.
func (q *QuarantinedRecord) Review(action ReviewAction, correctedPayload []byte, reviewedBy string) error {
	if q.Disposition != DispositionPending {
		return shared.NewDomainError("INVALID_STATE", "Quarantined record has already been reviewed")
	}
	switch action {
	case ReviewActionApprove:
		q.Disposition = DispositionApproved
	case ReviewActionReject:
		q.Disposition = DispositionRejected
	case ReviewActionCorrect:
		if len(correctedPayload) == 0 {
			return shared.NewDomainError("INVALID_INPUT", "Correction requires a corrected payload")
		}
		q.Disposition = DispositionCorrected
		q.CorrectedPayload = correctedPayload
	default:
		return shared.NewDomainError("INVALID_INPUT", "Unsupported review action")
	}
	now := time.Now()
	q.ReviewedAt = &now
	q.ReviewedBy = reviewedBy
	return nil
}

package validation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/domain/validation"
	"go.uber.org/zap"
)

// complianceWindow is the trailing window for compliance report ratios
const complianceWindow = 30 * 24 * time.Hour

// Gate validates and sanitizes records before they participate in sync,
// quarantining failures for human review. Rule sets are immutable
// configuration injected at construction.
type Gate struct {
	ruleSets   map[record.Type]validation.RuleSet
	quarantine validation.QuarantineRepository
	log        validation.LogRepository
	writers    map[record.Type]record.Writer
	logger     *zap.Logger
}

// NewGate creates a new validation gate
func NewGate(
	ruleSets map[record.Type]validation.RuleSet,
	quarantine validation.QuarantineRepository,
	log validation.LogRepository,
	writers map[record.Type]record.Writer,
	logger *zap.Logger,
) *Gate {
	return &Gate{
		ruleSets:   ruleSets,
		quarantine: quarantine,
		log:        log,
		writers:    writers,
		logger:     logger,
	}
}

// Validate runs the record through its type's ordered rule set. Validation
// failure is not an error: it returns a result the caller must branch on,
// and produces a QuarantinedRecord as a durable side channel. Quarantine and
// log writes are best-effort; their failure never masks the primary result.
func (g *Gate) Validate(ctx context.Context, rec record.Record) (*validation.Result, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	ruleSet, ok := g.ruleSets[rec.Type]
	if !ok {
		return nil, shared.ErrUnsupportedType
	}

	result := ruleSet.Evaluate(rec)

	if !result.Valid {
		payload, err := rec.MarshalPayload()
		if err != nil {
			g.logger.Error("failed to marshal record for quarantine",
				zap.String("record_type", rec.Type.String()),
				zap.String("record_id", rec.ID()),
				zap.Error(err),
			)
		} else {
			q := validation.NewQuarantinedRecord(rec.TenantID(), rec.Type, rec.ID(), payload, result.Errors)
			if err := g.quarantine.Save(ctx, q); err != nil {
				// Validation failure is the priority signal; a quarantine
				// outage must not mask it
				g.logger.Error("failed to quarantine invalid record",
					zap.String("record_type", rec.Type.String()),
					zap.String("record_id", rec.ID()),
					zap.Error(err),
				)
			}
		}
	}

	g.appendLog(ctx, rec, result)

	return result, nil
}

// appendLog records the validation outcome for compliance reporting;
// failures are logged and swallowed.
func (g *Gate) appendLog(ctx context.Context, rec record.Record, result *validation.Result) {
	entry := &validation.LogEntry{
		ID:           uuid.New(),
		TenantID:     rec.TenantID(),
		RecordType:   rec.Type,
		RecordID:     rec.ID(),
		Valid:        result.Valid,
		ErrorCount:   len(result.Errors),
		WarningCount: len(result.Warnings),
		Quarantined:  !result.Valid,
		CreatedAt:    time.Now(),
	}
	if err := g.log.Append(ctx, entry); err != nil {
		g.logger.Warn("failed to append validation log entry",
			zap.String("record_id", rec.ID()),
			zap.Error(err),
		)
	}
}

// ReviewOutcome is returned by ReviewQuarantined
type ReviewOutcome struct {
	Success bool                    `json:"success"`
	Action  validation.ReviewAction `json:"action"`
	ID      uuid.UUID               `json:"id"`
}

// ReviewQuarantined applies a human reviewer's decision to a quarantined
// record. A correction is re-validated against the stored type's rule set;
// a still-invalid correction fails the whole review with the accumulated
// error list and leaves the disposition at pending. Approve and correct both
// culminate in applying the final payload through the owning entity-type's
// writer. This is the only path that ever mutates a QuarantinedRecord.
func (g *Gate) ReviewQuarantined(ctx context.Context, tenantID, id uuid.UUID, action validation.ReviewAction, correctedPayload []byte, reviewedBy string) (*ReviewOutcome, error) {
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unsupported review action")
	}

	q, err := g.quarantine.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	var applied *record.Record
	switch action {
	case validation.ReviewActionCorrect:
		if len(correctedPayload) == 0 {
			return nil, shared.NewDomainError("INVALID_INPUT", "Correction requires a corrected payload")
		}
		corrected, err := record.UnmarshalPayload(q.RecordType, correctedPayload)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Corrected payload could not be parsed")
		}
		// Fail fast: the disposition stays pending when the correction is
		// still invalid, and nothing is written
		result := g.ruleSets[q.RecordType].Evaluate(corrected)
		if !result.Valid {
			return nil, shared.NewDomainError("INVALID_INPUT",
				"Corrected payload failed validation: "+strings.Join(result.Errors, "; "))
		}
		applied = result.Sanitized
	case validation.ReviewActionApprove:
		original, err := record.UnmarshalPayload(q.RecordType, q.RawPayload)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Stored payload could not be parsed")
		}
		applied = &original
	case validation.ReviewActionReject:
	}

	if err := q.Review(action, correctedPayload, reviewedBy); err != nil {
		return nil, err
	}

	if applied != nil {
		writer, ok := g.writers[q.RecordType]
		if !ok {
			return nil, shared.ErrUnsupportedType
		}
		if err := writer.Apply(ctx, *applied); err != nil {
			return nil, err
		}
	}

	if err := g.quarantine.Save(ctx, q); err != nil {
		return nil, err
	}

	g.logger.Info("quarantined record reviewed",
		zap.String("quarantine_id", q.ID.String()),
		zap.String("action", string(action)),
		zap.String("reviewed_by", reviewedBy),
	)

	return &ReviewOutcome{Success: true, Action: action, ID: q.ID}, nil
}

// ListQuarantined returns quarantined records matching the filter
func (g *Gate) ListQuarantined(ctx context.Context, tenantID uuid.UUID, filter validation.QuarantineFilter) ([]*validation.QuarantinedRecord, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return g.quarantine.FindAll(ctx, tenantID, filter)
}

// Statistics returns grouped quarantine counts for a tenant
func (g *Gate) Statistics(ctx context.Context, tenantID uuid.UUID) (*validation.QuarantineStatistics, error) {
	return g.quarantine.Stats(ctx, tenantID)
}

// ComplianceReport derives the quarantine, error and correction rates over
// the trailing 30-day window. A ratio with a zero denominator is 0.
func (g *Gate) ComplianceReport(ctx context.Context, tenantID uuid.UUID) (*validation.ComplianceReport, error) {
	since := time.Now().Add(-complianceWindow)

	counts, err := g.log.CountSince(ctx, tenantID, since)
	if err != nil {
		return nil, err
	}
	reviewed, corrected, err := g.quarantine.ReviewCounts(ctx, tenantID, since)
	if err != nil {
		return nil, err
	}

	report := &validation.ComplianceReport{
		WindowDays:     int(complianceWindow.Hours() / 24),
		TotalValidated: counts.Total,
		TotalReviewed:  reviewed,
	}
	if counts.Total > 0 {
		report.QuarantineRate = float64(counts.Quarantined) / float64(counts.Total)
		report.ErrorRate = float64(counts.WithErrors) / float64(counts.Total)
	}
	if reviewed > 0 {
		report.CorrectionRate = float64(corrected) / float64(reviewed)
	}
	return report, nil
}

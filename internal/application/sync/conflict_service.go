package sync

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/domain/sync"
	"github.com/pharmacy/backend/internal/domain/validation"
	"go.uber.org/zap"
)

// AutoResolverID is recorded as the resolver identity for auto-resolutions
const AutoResolverID = "system:auto-resolver"

// RecordValidator is the slice of the validation gate the resolution engine
// needs: every resolved value must pass through it before write-back.
type RecordValidator interface {
	Validate(ctx context.Context, rec record.Record) (*validation.Result, error)
}

// ConflictService resolves detected conflicts, either on operator request or
// through the bounded auto-resolution pass. It owns the only code path that
// moves a conflict into a terminal status.
type ConflictService struct {
	conflicts sync.ConflictRepository
	audits    sync.AuditRepository
	writers   map[record.Type]record.Writer
	gate      RecordValidator
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewConflictService creates a new conflict resolution service
func NewConflictService(
	conflicts sync.ConflictRepository,
	audits sync.AuditRepository,
	writers map[record.Type]record.Writer,
	gate RecordValidator,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *ConflictService {
	return &ConflictService{
		conflicts: conflicts,
		audits:    audits,
		writers:   writers,
		gate:      gate,
		publisher: publisher,
		logger:    logger,
	}
}

// Resolve applies a resolution strategy to a pending conflict. The resolved
// value is computed from the stored snapshots (or taken from manualData for
// the manual strategy), validated through the gate, written to the
// microservice store, and only then is the conflict marked terminal and the
// audit entry appended. A failed data write leaves the conflict pending.
func (s *ConflictService) Resolve(ctx context.Context, tenantID, conflictID uuid.UUID, strategy sync.ResolutionStrategy, manualData *record.Record, resolvedBy string) (*record.Record, error) {
	conflict, err := s.conflicts.FindByID(ctx, tenantID, conflictID)
	if err != nil {
		return nil, err
	}
	if conflict.IsTerminal() {
		return nil, shared.NewDomainError("INVALID_STATE", "Conflict is already resolved")
	}

	resolved, err := s.resolveValue(conflict, strategy, manualData)
	if err != nil {
		return nil, err
	}

	final, err := s.validateResolved(ctx, resolved)
	if err != nil {
		return nil, err
	}

	if resolvedBy == "" {
		resolvedBy = "system"
	}
	if err := s.applyResolution(ctx, conflict, strategy, *final, resolvedBy, false); err != nil {
		return nil, err
	}

	s.logger.Info("conflict resolved",
		zap.String("conflict_id", conflict.ID.String()),
		zap.String("record_type", conflict.RecordType.String()),
		zap.String("strategy", strategy.String()),
		zap.String("resolved_by", resolvedBy),
	)
	return final, nil
}

// AutoResolveResult summarizes one auto-resolution pass
type AutoResolveResult struct {
	TotalPending   int `json:"total_pending"`
	AutoResolved   int `json:"auto_resolved"`
	ManualRequired int `json:"manual_required"`
}

// AutoResolve walks every pending conflict for the tenant and resolves the
// ones its per-type eligibility rules sanction, always with main_wins.
// Everything else stays pending for a human. A per-conflict failure is
// logged and counted toward manual review; the pass itself keeps going.
func (s *ConflictService) AutoResolve(ctx context.Context, tenantID uuid.UUID) (*AutoResolveResult, error) {
	pending, err := s.conflicts.FindPending(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result := &AutoResolveResult{TotalPending: len(pending)}
	for _, conflict := range pending {
		if !sync.EligibleForAutoResolution(conflict) {
			result.ManualRequired++
			continue
		}

		final, err := s.validateResolved(ctx, conflict.MainSnapshot)
		if err != nil {
			s.logger.Warn("auto-resolution candidate failed validation",
				zap.String("conflict_id", conflict.ID.String()),
				zap.Error(err),
			)
			result.ManualRequired++
			continue
		}

		if err := s.applyResolution(ctx, conflict, sync.StrategyMainWins, *final, AutoResolverID, true); err != nil {
			s.logger.Error("auto-resolution failed, conflict stays pending",
				zap.String("conflict_id", conflict.ID.String()),
				zap.Error(err),
			)
			result.ManualRequired++
			continue
		}
		result.AutoResolved++
	}

	s.logger.Info("auto-resolution pass completed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("total_pending", result.TotalPending),
		zap.Int("auto_resolved", result.AutoResolved),
		zap.Int("manual_required", result.ManualRequired),
	)
	return result, nil
}

// ListConflicts returns conflicts matching the filter
func (s *ConflictService) ListConflicts(ctx context.Context, tenantID uuid.UUID, filter sync.ConflictFilter) ([]*sync.Conflict, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return s.conflicts.FindAll(ctx, tenantID, filter)
}

// GetConflict returns a single conflict with its snapshots
func (s *ConflictService) GetConflict(ctx context.Context, tenantID, conflictID uuid.UUID) (*sync.Conflict, error) {
	return s.conflicts.FindByID(ctx, tenantID, conflictID)
}

// Statistics returns grouped conflict counts for a tenant
func (s *ConflictService) Statistics(ctx context.Context, tenantID uuid.UUID) (*sync.Statistics, error) {
	return s.conflicts.Stats(ctx, tenantID)
}

// AuditTrail returns the resolution audit entries for a conflict
func (s *ConflictService) AuditTrail(ctx context.Context, tenantID, conflictID uuid.UUID) ([]*sync.AuditEntry, error) {
	return s.audits.FindByConflictID(ctx, tenantID, conflictID)
}

// resolveValue computes the resolved record for the given strategy
func (s *ConflictService) resolveValue(conflict *sync.Conflict, strategy sync.ResolutionStrategy, manualData *record.Record) (record.Record, error) {
	switch strategy {
	case sync.StrategyMainWins:
		return conflict.MainSnapshot, nil
	case sync.StrategyMicroserviceWins:
		return conflict.ServiceSnapshot, nil
	case sync.StrategyMerge:
		return sync.Merge(conflict.MainSnapshot, conflict.ServiceSnapshot)
	case sync.StrategyManual:
		if manualData == nil {
			return record.Record{}, sync.ErrManualDataRequired
		}
		return *manualData, nil
	default:
		return record.Record{}, sync.ErrUnsupportedStrategy
	}
}

// validateResolved runs the candidate through the gate and returns the
// sanitized copy. A resolved value that fails validation never reaches a
// store.
func (s *ConflictService) validateResolved(ctx context.Context, candidate record.Record) (*record.Record, error) {
	result, err := s.gate.Validate(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, shared.NewDomainError("INVALID_INPUT", "Resolved value failed validation")
	}
	return result.Sanitized, nil
}

// applyResolution performs the write sequence: data write first, then the
// conflict status flip, then the audit entry. When the status update fails
// after the data write, the conflict stays pending and a retry will redo an
// idempotent write. Audit and event publication failures are logged only.
func (s *ConflictService) applyResolution(ctx context.Context, conflict *sync.Conflict, strategy sync.ResolutionStrategy, final record.Record, resolvedBy string, auto bool) error {
	writer, ok := s.writers[conflict.RecordType]
	if !ok {
		return shared.ErrUnsupportedType
	}
	if err := writer.Apply(ctx, final); err != nil {
		return err
	}

	if auto {
		if err := conflict.MarkAutoResolved(strategy, final, resolvedBy); err != nil {
			return err
		}
	} else {
		if err := conflict.MarkResolved(strategy, final, resolvedBy); err != nil {
			return err
		}
	}
	if err := s.conflicts.Save(ctx, conflict); err != nil {
		return err
	}

	if err := s.audits.Append(ctx, sync.NewAuditEntry(conflict)); err != nil {
		s.logger.Error("failed to append resolution audit entry",
			zap.String("conflict_id", conflict.ID.String()),
			zap.Error(err),
		)
	}
	if err := s.publisher.Publish(ctx, sync.NewConflictResolvedEvent(conflict)); err != nil {
		s.logger.Warn("failed to publish conflict resolved event",
			zap.String("conflict_id", conflict.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}

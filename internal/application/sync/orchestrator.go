package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/domain/sync"
	"go.uber.org/zap"
)

// Sync run modes
const (
	ModeFull        = "full"
	ModeIncremental = "incremental"
	ModeEntity      = "entity"
)

// TypeSyncResult holds the per-record-type counters of one sync pass
type TypeSyncResult struct {
	Total     int `json:"total"`
	Synced    int `json:"synced"`
	Conflicts int `json:"conflicts"`
}

// SyncResult summarizes a sync pass across all record types
type SyncResult struct {
	Mode      string                         `json:"mode"`
	StartedAt time.Time                      `json:"started_at"`
	Duration  time.Duration                  `json:"duration"`
	PerType   map[record.Type]TypeSyncResult `json:"per_type"`
}

func (r *SyncResult) totals() (total, synced, conflicts int) {
	for _, tr := range r.PerType {
		total += tr.Total
		synced += tr.Synced
		conflicts += tr.Conflicts
	}
	return
}

// SyncStatus is the operational snapshot reported to the admin facade
type SyncStatus struct {
	Service          string     `json:"service"`
	Status           string     `json:"status"`
	LastSyncAt       *time.Time `json:"last_sync_at"`
	PendingConflicts int64      `json:"pending_conflicts"`
}

// Orchestrator drives the record-level comparison between the main hospital
// store and the pharmacy microservice store. The main store is treated as
// authoritative for ordering: a record is only pushed when the main copy is
// strictly newer, and only raised as a conflict when it also differs on a
// significant field. The microservice copy is never overwritten while it is
// the newer one.
type Orchestrator struct {
	main        record.Store
	service     record.Store
	conflicts   sync.ConflictRepository
	watermarks  sync.WatermarkRepository
	publisher   shared.EventPublisher
	logger      *zap.Logger
	serviceName string
}

// NewOrchestrator creates a new sync orchestrator
func NewOrchestrator(
	main record.Store,
	service record.Store,
	conflicts sync.ConflictRepository,
	watermarks sync.WatermarkRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		main:        main,
		service:     service,
		conflicts:   conflicts,
		watermarks:  watermarks,
		publisher:   publisher,
		logger:      logger,
		serviceName: sync.DefaultServiceName,
	}
}

// FullSync compares every record of every type between the two stores
func (o *Orchestrator) FullSync(ctx context.Context, tenantID uuid.UUID) (*SyncResult, error) {
	return o.runPass(ctx, tenantID, ModeFull, nil)
}

// IncrementalSync compares only records modified since the stored watermark
// and advances the watermark when the pass completes. With no watermark on
// record it degrades to a full scan.
func (o *Orchestrator) IncrementalSync(ctx context.Context, tenantID uuid.UUID) (*SyncResult, error) {
	var since *time.Time
	wm, err := o.watermarks.Get(ctx, o.serviceName)
	if err != nil {
		return nil, err
	}
	if wm != nil {
		since = &wm.LastSyncedAt
	}

	result, err := o.runPass(ctx, tenantID, ModeIncremental, since)
	if err != nil {
		return nil, err
	}

	if err := o.watermarks.Advance(ctx, o.serviceName, time.Now()); err != nil {
		// The pass itself succeeded; a stale watermark only widens the next
		// incremental window
		o.logger.Error("failed to advance sync watermark", zap.Error(err))
	}
	return result, nil
}

// SyncEntities reconciles a specific set of records of one type, typically
// in response to a targeted sync command from the bus
func (o *Orchestrator) SyncEntities(ctx context.Context, tenantID uuid.UUID, t record.Type, ids []string) (*SyncResult, error) {
	if !t.IsValid() {
		return nil, shared.ErrUnsupportedType
	}
	if len(ids) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one record id is required")
	}

	started := time.Now()
	mainRecs, err := o.main.ListByIDs(ctx, tenantID, t, ids)
	if err != nil {
		return nil, err
	}
	svcRecs, err := o.service.ListByIDs(ctx, tenantID, t, ids)
	if err != nil {
		return nil, err
	}

	tr, err := o.reconcileType(ctx, tenantID, t, mainRecs, svcRecs)
	if err != nil {
		return nil, err
	}

	// A requested record held locally but gone from the main store is raised
	// as a deletion conflict; the local copy is never deleted from this path
	mainByID := make(map[string]struct{}, len(mainRecs))
	for _, rec := range mainRecs {
		mainByID[rec.ID()] = struct{}{}
	}
	for _, svcRec := range svcRecs {
		if _, ok := mainByID[svcRec.ID()]; ok {
			continue
		}
		tr.Total++
		if err := o.raiseConflict(ctx, tenantID, sync.ConflictTypeDeletionConflict, svcRec, svcRec, tr); err != nil {
			return nil, err
		}
	}

	result := &SyncResult{
		Mode:      ModeEntity,
		StartedAt: started,
		Duration:  time.Since(started),
		PerType:   map[record.Type]TypeSyncResult{t: *tr},
	}
	o.publishCompleted(ctx, tenantID, result)
	return result, nil
}

// Status reports the orchestrator's operational snapshot
func (o *Orchestrator) Status(ctx context.Context, tenantID uuid.UUID) (*SyncStatus, error) {
	status := &SyncStatus{
		Service: o.serviceName,
		Status:  "operational",
	}

	wm, err := o.watermarks.Get(ctx, o.serviceName)
	if err != nil {
		return nil, err
	}
	if wm != nil {
		status.LastSyncAt = &wm.LastSyncedAt
	}

	pending, err := o.conflicts.CountPending(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	status.PendingConflicts = pending
	return status, nil
}

func (o *Orchestrator) runPass(ctx context.Context, tenantID uuid.UUID, mode string, since *time.Time) (*SyncResult, error) {
	started := time.Now()
	result := &SyncResult{
		Mode:      mode,
		StartedAt: started,
		PerType:   make(map[record.Type]TypeSyncResult, len(record.AllTypes())),
	}

	for _, t := range record.AllTypes() {
		mainRecs, err := o.main.List(ctx, tenantID, t, since)
		if err != nil {
			return nil, err
		}
		svcRecs, err := o.service.List(ctx, tenantID, t, nil)
		if err != nil {
			return nil, err
		}

		tr, err := o.reconcileType(ctx, tenantID, t, mainRecs, svcRecs)
		if err != nil {
			return nil, err
		}
		result.PerType[t] = *tr
	}

	result.Duration = time.Since(started)
	o.publishCompleted(ctx, tenantID, result)

	total, synced, conflicts := result.totals()
	o.logger.Info("sync pass completed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("mode", mode),
		zap.Int("total", total),
		zap.Int("synced", synced),
		zap.Int("conflicts", conflicts),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// reconcileType compares one type's main-store records against the
// microservice copies, indexing the latter by store-assigned id
func (o *Orchestrator) reconcileType(ctx context.Context, tenantID uuid.UUID, t record.Type, mainRecs, svcRecs []record.Record) (*TypeSyncResult, error) {
	byID := make(map[string]record.Record, len(svcRecs))
	for _, rec := range svcRecs {
		byID[rec.ID()] = rec
	}

	tr := &TypeSyncResult{Total: len(mainRecs)}
	for _, mainRec := range mainRecs {
		svcRec, exists := byID[mainRec.ID()]
		if !exists {
			if err := o.createMissing(ctx, tenantID, mainRec, tr); err != nil {
				return nil, err
			}
			continue
		}
		if err := o.reconcilePair(ctx, tenantID, mainRec, svcRec, tr); err != nil {
			return nil, err
		}
	}
	return tr, nil
}

// createMissing pushes a main-store record absent from the microservice. A
// concurrent insert racing this create is surfaced as a creation conflict
// rather than an overwrite.
func (o *Orchestrator) createMissing(ctx context.Context, tenantID uuid.UUID, mainRec record.Record, tr *TypeSyncResult) error {
	err := o.service.Create(ctx, mainRec)
	if err == nil {
		tr.Synced++
		return nil
	}
	if shared.IsDomainError(err, "ALREADY_EXISTS") {
		svcRecs, lerr := o.service.ListByIDs(ctx, tenantID, mainRec.Type, []string{mainRec.ID()})
		if lerr != nil || len(svcRecs) == 0 {
			return err
		}
		return o.raiseConflict(ctx, tenantID, sync.ConflictTypeCreationConflict, mainRec, svcRecs[0], tr)
	}
	return err
}

// reconcilePair applies the ordering rule to one record present in both
// stores: overwrite only when main is strictly newer, raise a conflict only
// when the newer main copy also differs significantly
func (o *Orchestrator) reconcilePair(ctx context.Context, tenantID uuid.UUID, mainRec, svcRec record.Record, tr *TypeSyncResult) error {
	if !mainRec.UpdatedAt().After(svcRec.UpdatedAt()) {
		return nil
	}

	differs, err := record.SignificantlyDiffers(mainRec, svcRec)
	if err != nil {
		return err
	}
	if differs {
		return o.raiseConflict(ctx, tenantID, sync.ConflictTypeDataMismatch, mainRec, svcRec, tr)
	}

	if err := o.service.Update(ctx, mainRec); err != nil {
		return err
	}
	tr.Synced++
	return nil
}

func (o *Orchestrator) raiseConflict(ctx context.Context, tenantID uuid.UUID, ct sync.ConflictType, mainRec, svcRec record.Record, tr *TypeSyncResult) error {
	conflict := sync.NewConflict(tenantID, mainRec.Type, mainRec.ID(), ct, mainRec, svcRec)
	if err := o.conflicts.Save(ctx, conflict); err != nil {
		return err
	}
	tr.Conflicts++

	if err := o.publisher.Publish(ctx, sync.NewConflictDetectedEvent(conflict)); err != nil {
		o.logger.Warn("failed to publish conflict detected event",
			zap.String("conflict_id", conflict.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}

func (o *Orchestrator) publishCompleted(ctx context.Context, tenantID uuid.UUID, result *SyncResult) {
	total, synced, conflicts := result.totals()
	evt := sync.NewSyncCompletedEvent(tenantID, result.Mode, total, synced, conflicts)
	if err := o.publisher.Publish(ctx, evt); err != nil {
		o.logger.Warn("failed to publish sync completed event", zap.Error(err))
	}
}

package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appsync "github.com/pharmacy/backend/internal/application/sync"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/sync"
)

func errInvalidFilter(field, value string) error {
	return fmt.Errorf("invalid %s filter value %q", field, value)
}

// SyncService drives sync passes against the main store
type SyncService interface {
	FullSync(ctx context.Context, tenantID uuid.UUID) (*appsync.SyncResult, error)
	IncrementalSync(ctx context.Context, tenantID uuid.UUID) (*appsync.SyncResult, error)
	SyncEntities(ctx context.Context, tenantID uuid.UUID, t record.Type, ids []string) (*appsync.SyncResult, error)
	Status(ctx context.Context, tenantID uuid.UUID) (*appsync.SyncStatus, error)
}

// ConflictResolutionService manages detected conflicts
type ConflictResolutionService interface {
	ListConflicts(ctx context.Context, tenantID uuid.UUID, filter sync.ConflictFilter) ([]*sync.Conflict, int64, error)
	GetConflict(ctx context.Context, tenantID, conflictID uuid.UUID) (*sync.Conflict, error)
	Resolve(ctx context.Context, tenantID, conflictID uuid.UUID, strategy sync.ResolutionStrategy, manualData *record.Record, resolvedBy string) (*record.Record, error)
	AutoResolve(ctx context.Context, tenantID uuid.UUID) (*appsync.AutoResolveResult, error)
	Statistics(ctx context.Context, tenantID uuid.UUID) (*sync.Statistics, error)
	AuditTrail(ctx context.Context, tenantID, conflictID uuid.UUID) ([]*sync.AuditEntry, error)
}

// SyncHandler exposes the sync orchestrator and conflict engine over HTTP
type SyncHandler struct {
	BaseHandler
	syncService SyncService
	conflicts   ConflictResolutionService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService SyncService, conflicts ConflictResolutionService) *SyncHandler {
	return &SyncHandler{syncService: syncService, conflicts: conflicts}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/sync")
	{
		group.POST("/full", h.FullSync)
		group.POST("/incremental", h.IncrementalSync)
		group.POST("/entities", h.SyncEntities)
		group.GET("/status", h.Status)

		group.GET("/conflicts", h.ListConflicts)
		group.GET("/conflicts/statistics", h.ConflictStatistics)
		group.POST("/conflicts/auto-resolve", h.AutoResolve)
		group.GET("/conflicts/:id", h.GetConflict)
		group.POST("/conflicts/:id/resolve", h.ResolveConflict)
		group.GET("/conflicts/:id/audit", h.AuditTrail)
	}
}

// FullSync triggers a full comparison pass across all record types
func (h *SyncHandler) FullSync(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	result, err := h.syncService.FullSync(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// IncrementalSync triggers a pass over records modified since the watermark
func (h *SyncHandler) IncrementalSync(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	result, err := h.syncService.IncrementalSync(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SyncEntities triggers a targeted sync of specific records
func (h *SyncHandler) SyncEntities(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req syncEntitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.syncService.SyncEntities(c.Request.Context(), tenantID, record.Type(req.EntityType), req.EntityIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Status reports the sync watermark and pending conflict count
func (h *SyncHandler) Status(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	status, err := h.syncService.Status(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// ListConflicts lists conflicts matching the query filters
func (h *SyncHandler) ListConflicts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req listConflictsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter, err := req.toFilter()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	conflicts, total, err := h.conflicts.ListConflicts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, newConflictResponses(conflicts), total, filter.Page, filter.PageSize)
}

// GetConflict returns a single conflict with both snapshots
func (h *SyncHandler) GetConflict(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	conflictID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid conflict ID")
		return
	}

	conflict, err := h.conflicts.GetConflict(c.Request.Context(), tenantID, conflictID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newConflictResponse(conflict))
}

// ResolveConflict applies a resolution strategy to a pending conflict
func (h *SyncHandler) ResolveConflict(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	conflictID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid conflict ID")
		return
	}

	var req resolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var manualData *record.Record
	if len(req.ResolvedData) > 0 {
		var rec record.Record
		if err := json.Unmarshal(req.ResolvedData, &rec); err != nil {
			h.BadRequest(c, "Invalid resolved_data payload")
			return
		}
		manualData = &rec
	}

	resolved, err := h.conflicts.Resolve(c.Request.Context(), tenantID, conflictID,
		sync.ResolutionStrategy(req.Strategy), manualData, req.ResolvedBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resolved)
}

// AutoResolve sweeps pending conflicts and resolves the eligible ones
func (h *SyncHandler) AutoResolve(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	result, err := h.conflicts.AutoResolve(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ConflictStatistics returns grouped conflict counts
func (h *SyncHandler) ConflictStatistics(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	stats, err := h.conflicts.Statistics(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// AuditTrail returns the resolution audit entries for a conflict
func (h *SyncHandler) AuditTrail(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	conflictID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid conflict ID")
		return
	}

	entries, err := h.conflicts.AuditTrail(c.Request.Context(), tenantID, conflictID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newAuditEntryResponses(entries))
}

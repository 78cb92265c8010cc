package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
	"go.uber.org/zap"

	appsync "github.com/pharmacy/backend/internal/application/sync"
)

// AutoResolver attempts bounded automatic resolution of pending conflicts
type AutoResolver interface {
	AutoResolve(ctx context.Context, tenantID uuid.UUID) (*appsync.AutoResolveResult, error)
}

var _ SyncCoordinator = (*AutoResolvingCoordinator)(nil)

// AutoResolvingCoordinator wraps a SyncCoordinator and runs the auto-resolver
// after each successful sync pass. Resolution failure never fails the pass;
// conflicts simply stay pending for manual review.
type AutoResolvingCoordinator struct {
	inner    SyncCoordinator
	resolver AutoResolver
	logger   *zap.Logger
}

// NewAutoResolvingCoordinator creates a new auto-resolving coordinator
func NewAutoResolvingCoordinator(inner SyncCoordinator, resolver AutoResolver, logger *zap.Logger) *AutoResolvingCoordinator {
	return &AutoResolvingCoordinator{
		inner:    inner,
		resolver: resolver,
		logger:   logger,
	}
}

// FullSync runs a full sync pass followed by auto-resolution
func (c *AutoResolvingCoordinator) FullSync(ctx context.Context, tenantID uuid.UUID) (*appsync.SyncResult, error) {
	result, err := c.inner.FullSync(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	c.autoResolve(ctx, tenantID)
	return result, nil
}

// IncrementalSync runs an incremental sync pass followed by auto-resolution
func (c *AutoResolvingCoordinator) IncrementalSync(ctx context.Context, tenantID uuid.UUID) (*appsync.SyncResult, error) {
	result, err := c.inner.IncrementalSync(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	c.autoResolve(ctx, tenantID)
	return result, nil
}

// SyncEntities runs a targeted sync followed by auto-resolution
func (c *AutoResolvingCoordinator) SyncEntities(ctx context.Context, tenantID uuid.UUID, t record.Type, ids []string) (*appsync.SyncResult, error) {
	result, err := c.inner.SyncEntities(ctx, tenantID, t, ids)
	if err != nil {
		return nil, err
	}
	c.autoResolve(ctx, tenantID)
	return result, nil
}

func (c *AutoResolvingCoordinator) autoResolve(ctx context.Context, tenantID uuid.UUID) {
	result, err := c.resolver.AutoResolve(ctx, tenantID)
	if err != nil {
		c.logger.Warn("auto-resolution pass failed",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		return
	}
	if result.TotalPending > 0 {
		c.logger.Info("auto-resolution pass completed",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("auto_resolved", result.AutoResolved),
			zap.Int("manual_required", result.ManualRequired))
	}
}

package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/sync"
	"github.com/pharmacy/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditRepository implements sync.AuditRepository using GORM.
// Rows are insert-only; there is no update path.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

var _ sync.AuditRepository = (*GormAuditRepository)(nil)

// Append inserts an audit entry
func (r *GormAuditRepository) Append(ctx context.Context, entry *sync.AuditEntry) error {
	var model models.AuditEntryModel
	if err := model.FromDomain(entry); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByConflictID returns the audit entries for a conflict, oldest first
func (r *GormAuditRepository) FindByConflictID(ctx context.Context, tenantID, conflictID uuid.UUID) ([]*sync.AuditEntry, error) {
	var entryModels []models.AuditEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND conflict_id = ?", tenantID, conflictID).
		Order("resolved_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]*sync.AuditEntry, len(entryModels))
	for i := range entryModels {
		entry, err := entryModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		entries[i] = entry
	}
	return entries, nil
}

package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/sync"
	"github.com/pharmacy/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormConflictRepository implements sync.ConflictRepository using GORM
type GormConflictRepository struct {
	db *gorm.DB
}

// NewGormConflictRepository creates a new GormConflictRepository
func NewGormConflictRepository(db *gorm.DB) *GormConflictRepository {
	return &GormConflictRepository{db: db}
}

var _ sync.ConflictRepository = (*GormConflictRepository)(nil)

// Save creates or updates a conflict
func (r *GormConflictRepository) Save(ctx context.Context, conflict *sync.Conflict) error {
	var model models.ConflictModel
	if err := model.FromDomain(conflict); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID finds a conflict by id within a tenant
func (r *GormConflictRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sync.Conflict, error) {
	var model models.ConflictModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sync.ErrConflictNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindPending returns all pending conflicts for a tenant, oldest first
func (r *GormConflictRepository) FindPending(ctx context.Context, tenantID uuid.UUID) ([]*sync.Conflict, error) {
	var conflictModels []models.ConflictModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, string(sync.ConflictStatusPending)).
		Order("created_at ASC").
		Find(&conflictModels).Error; err != nil {
		return nil, err
	}
	return toDomainConflicts(conflictModels)
}

// CountPending counts pending conflicts for a tenant
func (r *GormConflictRepository) CountPending(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ConflictModel{}).
		Where("tenant_id = ? AND status = ?", tenantID, string(sync.ConflictStatusPending)).
		Count(&count).Error
	return count, err
}

// FindAll finds conflicts matching the filter, newest first
func (r *GormConflictRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter sync.ConflictFilter) ([]*sync.Conflict, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ConflictModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.RecordType != nil {
		query = query.Where("record_type = ?", filter.RecordType.String())
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.ConflictType != nil {
		query = query.Where("conflict_type = ?", string(*filter.ConflictType))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var conflictModels []models.ConflictModel
	offset := (filter.Page - 1) * filter.PageSize
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&conflictModels).Error; err != nil {
		return nil, 0, err
	}

	conflicts, err := toDomainConflicts(conflictModels)
	if err != nil {
		return nil, 0, err
	}
	return conflicts, total, nil
}

// Stats returns grouped conflict counts for a tenant
func (r *GormConflictRepository) Stats(ctx context.Context, tenantID uuid.UUID) (*sync.Statistics, error) {
	stats := &sync.Statistics{
		ByRecordType:   make(map[string]int64),
		ByConflictType: make(map[string]int64),
		ByStrategy:     make(map[string]int64),
	}

	if err := r.db.WithContext(ctx).
		Model(&models.ConflictModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ConflictModel{}).
		Where("tenant_id = ? AND status = ?", tenantID, string(sync.ConflictStatusPending)).
		Count(&stats.Pending).Error; err != nil {
		return nil, err
	}

	type groupCount struct {
		Key   string
		Count int64
	}

	groupInto := func(column string, dest map[string]int64) error {
		var rows []groupCount
		if err := r.db.WithContext(ctx).
			Model(&models.ConflictModel{}).
			Select(column+" AS key, COUNT(*) AS count").
			Where("tenant_id = ?", tenantID).
			Group(column).
			Scan(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			dest[row.Key] = row.Count
		}
		return nil
	}

	if err := groupInto("record_type", stats.ByRecordType); err != nil {
		return nil, err
	}
	if err := groupInto("conflict_type", stats.ByConflictType); err != nil {
		return nil, err
	}

	var strategyRows []groupCount
	if err := r.db.WithContext(ctx).
		Model(&models.ConflictModel{}).
		Select("strategy AS key, COUNT(*) AS count").
		Where("tenant_id = ? AND strategy IS NOT NULL", tenantID).
		Group("strategy").
		Scan(&strategyRows).Error; err != nil {
		return nil, err
	}
	for _, row := range strategyRows {
		stats.ByStrategy[row.Key] = row.Count
	}

	return stats, nil
}

func toDomainConflicts(conflictModels []models.ConflictModel) ([]*sync.Conflict, error) {
	conflicts := make([]*sync.Conflict, len(conflictModels))
	for i := range conflictModels {
		conflict, err := conflictModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		conflicts[i] = conflict
	}
	return conflicts, nil
}

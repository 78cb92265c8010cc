package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/domain/validation"
	"github.com/pharmacy/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormQuarantineRepository implements validation.QuarantineRepository using GORM
type GormQuarantineRepository struct {
	db *gorm.DB
}

// NewGormQuarantineRepository creates a new GormQuarantineRepository
func NewGormQuarantineRepository(db *gorm.DB) *GormQuarantineRepository {
	return &GormQuarantineRepository{db: db}
}

var _ validation.QuarantineRepository = (*GormQuarantineRepository)(nil)

// Save creates or updates a quarantined record
func (r *GormQuarantineRepository) Save(ctx context.Context, q *validation.QuarantinedRecord) error {
	var model models.QuarantinedRecordModel
	model.FromDomain(q)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID finds a quarantined record by id within a tenant
func (r *GormQuarantineRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*validation.QuarantinedRecord, error) {
	var model models.QuarantinedRecordModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds quarantined records matching the filter, newest first
func (r *GormQuarantineRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter validation.QuarantineFilter) ([]*validation.QuarantinedRecord, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.QuarantinedRecordModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.RecordType != nil {
		query = query.Where("record_type = ?", filter.RecordType.String())
	}
	if filter.Disposition != nil {
		query = query.Where("disposition = ?", string(*filter.Disposition))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recordModels []models.QuarantinedRecordModel
	offset := (filter.Page - 1) * filter.PageSize
	if err := query.
		Order("quarantined_at DESC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&recordModels).Error; err != nil {
		return nil, 0, err
	}

	records := make([]*validation.QuarantinedRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records, total, nil
}

// Stats returns grouped quarantine counts for a tenant
func (r *GormQuarantineRepository) Stats(ctx context.Context, tenantID uuid.UUID) (*validation.QuarantineStatistics, error) {
	stats := &validation.QuarantineStatistics{
		ByRecordType:  make(map[string]int64),
		ByDisposition: make(map[string]int64),
	}

	if err := r.db.WithContext(ctx).
		Model(&models.QuarantinedRecordModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.QuarantinedRecordModel{}).
		Where("tenant_id = ? AND disposition = ?", tenantID, string(validation.DispositionPending)).
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
			Model(&models.QuarantinedRecordModel{}).
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
	if err := groupInto("disposition", stats.ByDisposition); err != nil {
		return nil, err
	}
	return stats, nil
}

// ReviewCounts returns the number of records reviewed after the given time
// and how many of those were corrected
func (r *GormQuarantineRepository) ReviewCounts(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, int64, error) {
	var reviewed int64
	if err := r.db.WithContext(ctx).
		Model(&models.QuarantinedRecordModel{}).
		Where("tenant_id = ? AND reviewed_at IS NOT NULL AND reviewed_at > ?", tenantID, since).
		Count(&reviewed).Error; err != nil {
		return 0, 0, err
	}

	var corrected int64
	if err := r.db.WithContext(ctx).
		Model(&models.QuarantinedRecordModel{}).
		Where("tenant_id = ? AND reviewed_at IS NOT NULL AND reviewed_at > ? AND disposition = ?",
			tenantID, since, string(validation.DispositionCorrected)).
		Count(&corrected).Error; err != nil {
		return 0, 0, err
	}

	return reviewed, corrected, nil
}

package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/validation"
	"github.com/pharmacy/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormValidationLogRepository implements validation.LogRepository using GORM.
// Rows are insert-only.
type GormValidationLogRepository struct {
	db *gorm.DB
}

// NewGormValidationLogRepository creates a new GormValidationLogRepository
func NewGormValidationLogRepository(db *gorm.DB) *GormValidationLogRepository {
	return &GormValidationLogRepository{db: db}
}

var _ validation.LogRepository = (*GormValidationLogRepository)(nil)

// Append inserts a validation log entry
func (r *GormValidationLogRepository) Append(ctx context.Context, entry *validation.LogEntry) error {
	var model models.ValidationLogModel
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(&model).Error
}

// CountSince aggregates outcomes recorded after the given time
func (r *GormValidationLogRepository) CountSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (*validation.WindowCounts, error) {
	counts := &validation.WindowCounts{}
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.ValidationLogModel{}).
			Where("tenant_id = ? AND created_at > ?", tenantID, since)
	}

	if err := base().Count(&counts.Total).Error; err != nil {
		return nil, err
	}
	if err := base().Where("error_count > 0").Count(&counts.WithErrors).Error; err != nil {
		return nil, err
	}
	if err := base().Where("quarantined = ?", true).Count(&counts.Quarantined).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

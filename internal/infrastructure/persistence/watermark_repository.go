package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/pharmacy/backend/internal/domain/sync"
	"github.com/pharmacy/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWatermarkRepository implements sync.WatermarkRepository using GORM.
// The watermark is one row per service name.
type GormWatermarkRepository struct {
	db *gorm.DB
}

// NewGormWatermarkRepository creates a new GormWatermarkRepository
func NewGormWatermarkRepository(db *gorm.DB) *GormWatermarkRepository {
	return &GormWatermarkRepository{db: db}
}

var _ sync.WatermarkRepository = (*GormWatermarkRepository)(nil)

// Get returns the watermark for a service, or nil when no sync has run yet
func (r *GormWatermarkRepository) Get(ctx context.Context, serviceName string) (*sync.Watermark, error) {
	var model models.WatermarkModel
	if err := r.db.WithContext(ctx).
		First(&model, "service_name = ?", serviceName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Advance moves the watermark forward to the given time
func (r *GormWatermarkRepository) Advance(ctx context.Context, serviceName string, to time.Time) error {
	model := models.WatermarkModel{
		ServiceName:  serviceName,
		LastSyncedAt: to,
		UpdatedAt:    time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "service_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_synced_at", "updated_at"}),
		}).
		Create(&model).Error
}

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRecordStore is the pharmacy microservice's own copy of the synced
// entities. It implements both the read port used by the sync orchestrator
// and the writer port used by resolution and quarantine review.
type GormRecordStore struct {
	db *gorm.DB
}

// NewGormRecordStore creates a new GormRecordStore
func NewGormRecordStore(db *gorm.DB) *GormRecordStore {
	return &GormRecordStore{db: db}
}

var (
	_ record.Store  = (*GormRecordStore)(nil)
	_ record.Writer = (*GormRecordStore)(nil)
)

// List returns all records of a type for a tenant; when since is non-nil
// only records modified after it are returned
func (s *GormRecordStore) List(ctx context.Context, tenantID uuid.UUID, t record.Type, since *time.Time) ([]record.Record, error) {
	query := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if since != nil {
		query = query.Where("updated_at > ?", *since)
	}
	return s.find(query, t)
}

// ListByIDs returns the records with the given store-assigned identifiers
func (s *GormRecordStore) ListByIDs(ctx context.Context, tenantID uuid.UUID, t record.Type, ids []string) ([]record.Record, error) {
	query := s.db.WithContext(ctx).Where("tenant_id = ? AND id IN ?", tenantID, ids)
	return s.find(query, t)
}

// Create inserts a record into the store
func (s *GormRecordStore) Create(ctx context.Context, rec record.Record) error {
	model, err := modelFor(rec)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update overwrites an existing record in the store
func (s *GormRecordStore) Update(ctx context.Context, rec record.Record) error {
	model, err := modelFor(rec)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND tenant_id = ?", rec.ID(), rec.TenantID()).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Apply creates or updates the record. The upsert keeps the operation
// idempotent for the at-least-once delivery of the upstream bus.
func (s *GormRecordStore) Apply(ctx context.Context, rec record.Record) error {
	model, err := modelFor(rec)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}, {Name: "tenant_id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// Delete removes a record from the store
func (s *GormRecordStore) Delete(ctx context.Context, tenantID uuid.UUID, t record.Type, id string) error {
	model, err := emptyModelFor(t)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(model).Error
}

func (s *GormRecordStore) find(query *gorm.DB, t record.Type) ([]record.Record, error) {
	switch t {
	case record.TypePrescription:
		var rows []models.PrescriptionModel
		if err := query.Find(&rows).Error; err != nil {
			return nil, err
		}
		recs := make([]record.Record, len(rows))
		for i := range rows {
			recs[i] = rows[i].ToDomain()
		}
		return recs, nil
	case record.TypeMedication:
		var rows []models.MedicationModel
		if err := query.Find(&rows).Error; err != nil {
			return nil, err
		}
		recs := make([]record.Record, len(rows))
		for i := range rows {
			recs[i] = rows[i].ToDomain()
		}
		return recs, nil
	case record.TypeInventoryItem:
		var rows []models.InventoryItemModel
		if err := query.Find(&rows).Error; err != nil {
			return nil, err
		}
		recs := make([]record.Record, len(rows))
		for i := range rows {
			recs[i] = rows[i].ToDomain()
		}
		return recs, nil
	case record.TypePharmacyOrder:
		var rows []models.PharmacyOrderModel
		if err := query.Find(&rows).Error; err != nil {
			return nil, err
		}
		recs := make([]record.Record, len(rows))
		for i := range rows {
			recs[i] = rows[i].ToDomain()
		}
		return recs, nil
	default:
		return nil, shared.ErrUnsupportedType
	}
}

func modelFor(rec record.Record) (any, error) {
	switch rec.Type {
	case record.TypePrescription:
		model := &models.PrescriptionModel{}
		model.FromDomain(rec)
		return model, nil
	case record.TypeMedication:
		model := &models.MedicationModel{}
		model.FromDomain(rec)
		return model, nil
	case record.TypeInventoryItem:
		model := &models.InventoryItemModel{}
		model.FromDomain(rec)
		return model, nil
	case record.TypePharmacyOrder:
		model := &models.PharmacyOrderModel{}
		model.FromDomain(rec)
		return model, nil
	default:
		return nil, shared.ErrUnsupportedType
	}
}

func emptyModelFor(t record.Type) (any, error) {
	switch t {
	case record.TypePrescription:
		return &models.PrescriptionModel{}, nil
	case record.TypeMedication:
		return &models.MedicationModel{}, nil
	case record.TypeInventoryItem:
		return &models.InventoryItemModel{}, nil
	case record.TypePharmacyOrder:
		return &models.PharmacyOrderModel{}, nil
	default:
		return nil, shared.ErrUnsupportedType
	}
}

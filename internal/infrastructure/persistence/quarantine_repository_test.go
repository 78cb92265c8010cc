package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/domain/validation"
	"github.com/pharmacy/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupQuarantineTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.QuarantinedRecordModel{}, &models.ValidationLogModel{})
	require.NoError(t, err)

	return db
}

func TestGormQuarantineRepository_SaveAndFindByID(t *testing.T) {
	db := setupQuarantineTestDB(t)
	repo := NewGormQuarantineRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	q := validation.NewQuarantinedRecord(tenantID, record.TypePrescription, "rx-1",
		[]byte(`{"id":"rx-1"}`), []string{"Patient ID is required", "Quantity must be positive"})
	require.NoError(t, repo.Save(ctx, q))

	found, err := repo.FindByID(ctx, tenantID, q.ID)
	require.NoError(t, err)

	assert.Equal(t, q.ID, found.ID)
	assert.Equal(t, record.TypePrescription, found.RecordType)
	assert.Equal(t, "rx-1", found.RecordID)
	assert.Equal(t, validation.DispositionPending, found.Disposition)
	assert.Equal(t, []byte(`{"id":"rx-1"}`), found.RawPayload)
	assert.Equal(t, []string{"Patient ID is required", "Quantity must be positive"}, found.Errors)
}

func TestGormQuarantineRepository_FindByID_NotFound(t *testing.T) {
	db := setupQuarantineTestDB(t)
	repo := NewGormQuarantineRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormQuarantineRepository_SavePersistsReview(t *testing.T) {
	db := setupQuarantineTestDB(t)
	repo := NewGormQuarantineRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	q := validation.NewQuarantinedRecord(tenantID, record.TypeMedication, "med-1",
		[]byte(`{"id":"med-1"}`), []string{"Name is required"})
	require.NoError(t, repo.Save(ctx, q))

	corrected := []byte(`{"id":"med-1","name":"Aspirin"}`)
	require.NoError(t, q.Review(validation.ReviewActionCorrect, corrected, "pharmacist-7"))
	require.NoError(t, repo.Save(ctx, q))

	found, err := repo.FindByID(ctx, tenantID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, validation.DispositionCorrected, found.Disposition)
	assert.Equal(t, corrected, found.CorrectedPayload)
	assert.Equal(t, "pharmacist-7", found.ReviewedBy)
	assert.NotNil(t, found.ReviewedAt)
}

func TestGormQuarantineRepository_FindAll(t *testing.T) {
	db := setupQuarantineTestDB(t)
	repo := NewGormQuarantineRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	rx := validation.NewQuarantinedRecord(tenantID, record.TypePrescription, "rx-1",
		[]byte(`{}`), []string{"e"})
	med := validation.NewQuarantinedRecord(tenantID, record.TypeMedication, "med-1",
		[]byte(`{}`), []string{"e"})
	require.NoError(t, med.Review(validation.ReviewActionReject, nil, "u"))
	other := validation.NewQuarantinedRecord(uuid.New(), record.TypePrescription, "rx-2",
		[]byte(`{}`), []string{"e"})

	for _, q := range []*validation.QuarantinedRecord{rx, med, other} {
		require.NoError(t, repo.Save(ctx, q))
	}

	t.Run("scopes to tenant", func(t *testing.T) {
		records, total, err := repo.FindAll(ctx, tenantID, validation.QuarantineFilter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, records, 2)
	})

	t.Run("filters by record type", func(t *testing.T) {
		rt := record.TypeMedication
		records, total, err := repo.FindAll(ctx, tenantID, validation.QuarantineFilter{
			RecordType: &rt, Page: 1, PageSize: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, records, 1)
		assert.Equal(t, "med-1", records[0].RecordID)
	})

	t.Run("filters by disposition", func(t *testing.T) {
		d := validation.DispositionPending
		records, total, err := repo.FindAll(ctx, tenantID, validation.QuarantineFilter{
			Disposition: &d, Page: 1, PageSize: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, records, 1)
		assert.Equal(t, "rx-1", records[0].RecordID)
	})
}

func TestGormQuarantineRepository_Stats(t *testing.T) {
	db := setupQuarantineTestDB(t)
	repo := NewGormQuarantineRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	pending := validation.NewQuarantinedRecord(tenantID, record.TypePrescription, "rx-1",
		[]byte(`{}`), []string{"e"})
	rejected := validation.NewQuarantinedRecord(tenantID, record.TypeInventoryItem, "inv-1",
		[]byte(`{}`), []string{"e"})
	require.NoError(t, rejected.Review(validation.ReviewActionReject, nil, "u"))
	require.NoError(t, repo.Save(ctx, pending))
	require.NoError(t, repo.Save(ctx, rejected))

	stats, err := repo.Stats(ctx, tenantID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(1), stats.ByRecordType["prescription"])
	assert.Equal(t, int64(1), stats.ByRecordType["inventory_item"])
	assert.Equal(t, int64(1), stats.ByDisposition["pending"])
	assert.Equal(t, int64(1), stats.ByDisposition["rejected"])
}

func TestGormQuarantineRepository_ReviewCounts(t *testing.T) {
	db := setupQuarantineTestDB(t)
	repo := NewGormQuarantineRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	pending := validation.NewQuarantinedRecord(tenantID, record.TypePrescription, "rx-1",
		[]byte(`{}`), []string{"e"})
	approved := validation.NewQuarantinedRecord(tenantID, record.TypePrescription, "rx-2",
		[]byte(`{}`), []string{"e"})
	require.NoError(t, approved.Review(validation.ReviewActionApprove, nil, "u"))
	corrected := validation.NewQuarantinedRecord(tenantID, record.TypePrescription, "rx-3",
		[]byte(`{}`), []string{"e"})
	require.NoError(t, corrected.Review(validation.ReviewActionCorrect, []byte(`{"id":"rx-3"}`), "u"))

	for _, q := range []*validation.QuarantinedRecord{pending, approved, corrected} {
		require.NoError(t, repo.Save(ctx, q))
	}

	reviewed, correctedCount, err := repo.ReviewCounts(ctx, tenantID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), reviewed)
	assert.Equal(t, int64(1), correctedCount)

	reviewed, correctedCount, err = repo.ReviewCounts(ctx, tenantID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), reviewed)
	assert.Equal(t, int64(0), correctedCount)
}

func TestGormValidationLogRepository_CountSince(t *testing.T) {
	db := setupQuarantineTestDB(t)
	repo := NewGormValidationLogRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	entries := []*validation.LogEntry{
		{ID: uuid.New(), TenantID: tenantID, RecordType: record.TypePrescription, RecordID: "rx-1",
			Valid: true, CreatedAt: time.Now()},
		{ID: uuid.New(), TenantID: tenantID, RecordType: record.TypePrescription, RecordID: "rx-2",
			Valid: false, ErrorCount: 2, Quarantined: true, CreatedAt: time.Now()},
		{ID: uuid.New(), TenantID: tenantID, RecordType: record.TypeMedication, RecordID: "med-1",
			Valid: true, WarningCount: 1, CreatedAt: time.Now()},
		{ID: uuid.New(), TenantID: uuid.New(), RecordType: record.TypePrescription, RecordID: "rx-3",
			Valid: false, ErrorCount: 1, Quarantined: true, CreatedAt: time.Now()},
	}
	for _, e := range entries {
		require.NoError(t, repo.Append(ctx, e))
	}

	counts, err := repo.CountSince(ctx, tenantID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Total)
	assert.Equal(t, int64(1), counts.WithErrors)
	assert.Equal(t, int64(1), counts.Quarantined)

	counts, err = repo.CountSince(ctx, tenantID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Total)
}

package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/domain/sync"
	"github.com/pharmacy/backend/internal/domain/validation"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockConflictRepository struct {
	mock.Mock
}

func (m *mockConflictRepository) Save(ctx context.Context, conflict *sync.Conflict) error {
	args := m.Called(ctx, conflict)
	return args.Error(0)
}

func (m *mockConflictRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sync.Conflict, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sync.Conflict), args.Error(1)
}

func (m *mockConflictRepository) FindPending(ctx context.Context, tenantID uuid.UUID) ([]*sync.Conflict, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sync.Conflict), args.Error(1)
}

func (m *mockConflictRepository) CountPending(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockConflictRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter sync.ConflictFilter) ([]*sync.Conflict, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*sync.Conflict), args.Get(1).(int64), args.Error(2)
}

func (m *mockConflictRepository) Stats(ctx context.Context, tenantID uuid.UUID) (*sync.Statistics, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sync.Statistics), args.Error(1)
}

type mockAuditRepository struct {
	mock.Mock
}

func (m *mockAuditRepository) Append(ctx context.Context, entry *sync.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockAuditRepository) FindByConflictID(ctx context.Context, tenantID, conflictID uuid.UUID) ([]*sync.AuditEntry, error) {
	args := m.Called(ctx, tenantID, conflictID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sync.AuditEntry), args.Error(1)
}

type mockWatermarkRepository struct {
	mock.Mock
}

func (m *mockWatermarkRepository) Get(ctx context.Context, serviceName string) (*sync.Watermark, error) {
	args := m.Called(ctx, serviceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sync.Watermark), args.Error(1)
}

func (m *mockWatermarkRepository) Advance(ctx context.Context, serviceName string, to time.Time) error {
	args := m.Called(ctx, serviceName, to)
	return args.Error(0)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) List(ctx context.Context, tenantID uuid.UUID, t record.Type, since *time.Time) ([]record.Record, error) {
	args := m.Called(ctx, tenantID, t, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]record.Record), args.Error(1)
}

func (m *mockStore) ListByIDs(ctx context.Context, tenantID uuid.UUID, t record.Type, ids []string) ([]record.Record, error) {
	args := m.Called(ctx, tenantID, t, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]record.Record), args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, rec record.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockStore) Update(ctx context.Context, rec record.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) Apply(ctx context.Context, rec record.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// stubValidator stands in for the validation gate: pass records through
// untouched, or fail every one of them.
type stubValidator struct {
	invalid bool
}

func (s stubValidator) Validate(_ context.Context, rec record.Record) (*validation.Result, error) {
	if s.invalid {
		return &validation.Result{Valid: false, Errors: []string{"Quantity must be at least 1"}}, nil
	}
	sanitized := rec.Clone()
	return &validation.Result{Valid: true, Sanitized: &sanitized}, nil
}

var testLogger = zap.NewNop()

var testTenantID = uuid.New()

func testPrescription(id string, updatedAt time.Time, mutate func(*record.Prescription)) record.Record {
	p := &record.Prescription{
		ID:           id,
		TenantID:     testTenantID,
		PatientID:    "pat-1",
		MedicationID: "med-1",
		Dosage:       "10mg",
		Frequency:    "twice daily",
		Quantity:     30,
		Status:       record.PrescriptionStatusActive,
		Instructions: "Take with food",
		UpdatedAt:    updatedAt,
	}
	if mutate != nil {
		mutate(p)
	}
	return record.NewPrescriptionRecord(p)
}

func testOrder(id string, status record.OrderStatus, updatedAt time.Time) record.Record {
	return record.NewPharmacyOrderRecord(&record.PharmacyOrder{
		ID:             id,
		TenantID:       testTenantID,
		PrescriptionID: "rx-1",
		PatientID:      "pat-1",
		Status:         status,
		Quantity:       10,
		UpdatedAt:      updatedAt,
	})
}

func allWriters(w record.Writer) map[record.Type]record.Writer {
	writers := make(map[record.Type]record.Writer, len(record.AllTypes()))
	for _, t := range record.AllTypes() {
		writers[t] = w
	}
	return writers
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appsync "github.com/pharmacy/backend/internal/application/sync"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/domain/sync"
	"github.com/pharmacy/backend/internal/interfaces/http/dto"
	"github.com/pharmacy/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSyncService struct {
	mock.Mock
}

func (m *mockSyncService) FullSync(ctx context.Context, tenantID uuid.UUID) (*appsync.SyncResult, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsync.SyncResult), args.Error(1)
}

func (m *mockSyncService) IncrementalSync(ctx context.Context, tenantID uuid.UUID) (*appsync.SyncResult, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsync.SyncResult), args.Error(1)
}

func (m *mockSyncService) SyncEntities(ctx context.Context, tenantID uuid.UUID, t record.Type, ids []string) (*appsync.SyncResult, error) {
	args := m.Called(ctx, tenantID, t, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsync.SyncResult), args.Error(1)
}

func (m *mockSyncService) Status(ctx context.Context, tenantID uuid.UUID) (*appsync.SyncStatus, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsync.SyncStatus), args.Error(1)
}

type mockConflictService struct {
	mock.Mock
}

func (m *mockConflictService) ListConflicts(ctx context.Context, tenantID uuid.UUID, filter sync.ConflictFilter) ([]*sync.Conflict, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*sync.Conflict), args.Get(1).(int64), args.Error(2)
}

func (m *mockConflictService) GetConflict(ctx context.Context, tenantID, conflictID uuid.UUID) (*sync.Conflict, error) {
	args := m.Called(ctx, tenantID, conflictID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sync.Conflict), args.Error(1)
}

func (m *mockConflictService) Resolve(ctx context.Context, tenantID, conflictID uuid.UUID, strategy sync.ResolutionStrategy, manualData *record.Record, resolvedBy string) (*record.Record, error) {
	args := m.Called(ctx, tenantID, conflictID, strategy, manualData, resolvedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *mockConflictService) AutoResolve(ctx context.Context, tenantID uuid.UUID) (*appsync.AutoResolveResult, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsync.AutoResolveResult), args.Error(1)
}

func (m *mockConflictService) Statistics(ctx context.Context, tenantID uuid.UUID) (*sync.Statistics, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sync.Statistics), args.Error(1)
}

func (m *mockConflictService) AuditTrail(ctx context.Context, tenantID, conflictID uuid.UUID) ([]*sync.AuditEntry, error) {
	args := m.Called(ctx, tenantID, conflictID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sync.AuditEntry), args.Error(1)
}

func setupSyncRouter(syncService *mockSyncService, conflicts *mockConflictService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	engine := gin.New()
	api := engine.Group("/api/v1")
	NewSyncHandler(syncService, conflicts).RegisterRoutes(api)
	return engine
}

func performRequest(t *testing.T, engine *gin.Engine, method, path string, tenantID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tenantID != uuid.Nil {
		req.Header.Set("X-Tenant-ID", tenantID.String())
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func handlerTestConflict(tenantID uuid.UUID) *sync.Conflict {
	main := record.NewPrescriptionRecord(&record.Prescription{
		ID: "rx-1", TenantID: tenantID, PatientID: "pat-1", MedicationID: "med-1",
		Dosage: "10mg", Frequency: "daily", Quantity: 30,
		Status: record.PrescriptionStatusActive, UpdatedAt: time.Now(),
	})
	svc := record.NewPrescriptionRecord(&record.Prescription{
		ID: "rx-1", TenantID: tenantID, PatientID: "pat-1", MedicationID: "med-1",
		Dosage: "20mg", Frequency: "daily", Quantity: 30,
		Status: record.PrescriptionStatusActive, UpdatedAt: time.Now().Add(-time.Hour),
	})
	return sync.NewConflict(tenantID, record.TypePrescription, "rx-1", sync.ConflictTypeDataMismatch, main, svc)
}

func TestSyncHandler_FullSync(t *testing.T) {
	syncService := new(mockSyncService)
	conflicts := new(mockConflictService)
	engine := setupSyncRouter(syncService, conflicts)
	tenantID := uuid.New()

	syncService.On("FullSync", mock.Anything, tenantID).Return(&appsync.SyncResult{Mode: "full"}, nil)

	w := performRequest(t, engine, http.MethodPost, "/api/v1/sync/full", tenantID, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	syncService.AssertExpectations(t)
}

func TestSyncHandler_SyncEntities(t *testing.T) {
	syncService := new(mockSyncService)
	conflicts := new(mockConflictService)
	engine := setupSyncRouter(syncService, conflicts)
	tenantID := uuid.New()

	t.Run("valid request", func(t *testing.T) {
		syncService.On("SyncEntities", mock.Anything, tenantID, record.TypeMedication, []string{"med-1"}).
			Return(&appsync.SyncResult{Mode: "entity"}, nil)

		w := performRequest(t, engine, http.MethodPost, "/api/v1/sync/entities", tenantID, map[string]any{
			"entity_type": "medication",
			"entity_ids":  []string{"med-1"},
		})

		assert.Equal(t, http.StatusOK, w.Code)
		syncService.AssertExpectations(t)
	})

	t.Run("missing ids rejected", func(t *testing.T) {
		w := performRequest(t, engine, http.MethodPost, "/api/v1/sync/entities", tenantID, map[string]any{
			"entity_type": "medication",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown entity type rejected", func(t *testing.T) {
		w := performRequest(t, engine, http.MethodPost, "/api/v1/sync/entities", tenantID, map[string]any{
			"entity_type": "patient",
			"entity_ids":  []string{"p-1"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSyncHandler_Status(t *testing.T) {
	syncService := new(mockSyncService)
	conflicts := new(mockConflictService)
	engine := setupSyncRouter(syncService, conflicts)
	tenantID := uuid.New()

	lastSync := time.Now().Add(-10 * time.Minute)
	syncService.On("Status", mock.Anything, tenantID).Return(&appsync.SyncStatus{
		Service:          "pharmacy-sync-service",
		Status:           "idle",
		LastSyncAt:       &lastSync,
		PendingConflicts: 3,
	}, nil)

	w := performRequest(t, engine, http.MethodGet, "/api/v1/sync/status", tenantID, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pending_conflicts":3`)
}

func TestSyncHandler_ListConflicts(t *testing.T) {
	syncService := new(mockSyncService)
	conflicts := new(mockConflictService)
	engine := setupSyncRouter(syncService, conflicts)
	tenantID := uuid.New()

	t.Run("applies filters and defaults", func(t *testing.T) {
		status := sync.ConflictStatusPending
		expected := sync.ConflictFilter{Status: &status, Page: 1, PageSize: 20}
		conflicts.On("ListConflicts", mock.Anything, tenantID, expected).
			Return([]*sync.Conflict{handlerTestConflict(tenantID)}, int64(1), nil)

		w := performRequest(t, engine, http.MethodGet, "/api/v1/sync/conflicts?status=pending", tenantID, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(1), resp.Meta.Total)
		conflicts.AssertExpectations(t)
	})

	t.Run("rejects unknown record type", func(t *testing.T) {
		w := performRequest(t, engine, http.MethodGet, "/api/v1/sync/conflicts?record_type=patient", tenantID, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSyncHandler_ResolveConflict(t *testing.T) {
	tenantID := uuid.New()
	conflict := handlerTestConflict(tenantID)

	t.Run("main wins", func(t *testing.T) {
		syncService := new(mockSyncService)
		conflicts := new(mockConflictService)
		engine := setupSyncRouter(syncService, conflicts)

		resolved := conflict.MainSnapshot
		conflicts.On("Resolve", mock.Anything, tenantID, conflict.ID, sync.StrategyMainWins,
			(*record.Record)(nil), "pharmacist-7").Return(&resolved, nil)

		w := performRequest(t, engine, http.MethodPost, "/api/v1/sync/conflicts/"+conflict.ID.String()+"/resolve", tenantID, map[string]any{
			"strategy":    "main_wins",
			"resolved_by": "pharmacist-7",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		conflicts.AssertExpectations(t)
	})

	t.Run("manual with data", func(t *testing.T) {
		syncService := new(mockSyncService)
		conflicts := new(mockConflictService)
		engine := setupSyncRouter(syncService, conflicts)

		resolved := conflict.MainSnapshot
		conflicts.On("Resolve", mock.Anything, tenantID, conflict.ID, sync.StrategyManual,
			mock.MatchedBy(func(rec *record.Record) bool {
				return rec != nil && rec.Type == record.TypePrescription && rec.Prescription.Dosage == "15mg"
			}), "pharmacist-7").Return(&resolved, nil)

		manual := map[string]any{
			"type": "prescription",
			"prescription": map[string]any{
				"id": "rx-1", "tenant_id": tenantID, "patient_id": "pat-1",
				"medication_id": "med-1", "dosage": "15mg", "frequency": "daily",
				"quantity": 30, "status": "active", "updated_at": time.Now(),
			},
		}
		w := performRequest(t, engine, http.MethodPost, "/api/v1/sync/conflicts/"+conflict.ID.String()+"/resolve", tenantID, map[string]any{
			"strategy":      "manual",
			"resolved_data": manual,
			"resolved_by":   "pharmacist-7",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		conflicts.AssertExpectations(t)
	})

	t.Run("terminal conflict maps to 422", func(t *testing.T) {
		syncService := new(mockSyncService)
		conflicts := new(mockConflictService)
		engine := setupSyncRouter(syncService, conflicts)

		conflicts.On("Resolve", mock.Anything, tenantID, conflict.ID, sync.StrategyMainWins,
			(*record.Record)(nil), "").
			Return(nil, shared.NewDomainError("INVALID_STATE", "Conflict is already resolved"))

		w := performRequest(t, engine, http.MethodPost, "/api/v1/sync/conflicts/"+conflict.ID.String()+"/resolve", tenantID, map[string]any{
			"strategy": "main_wins",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("conflict not found maps to 404", func(t *testing.T) {
		syncService := new(mockSyncService)
		conflicts := new(mockConflictService)
		engine := setupSyncRouter(syncService, conflicts)

		conflicts.On("Resolve", mock.Anything, tenantID, conflict.ID, sync.StrategyMainWins,
			(*record.Record)(nil), "").Return(nil, sync.ErrConflictNotFound)

		w := performRequest(t, engine, http.MethodPost, "/api/v1/sync/conflicts/"+conflict.ID.String()+"/resolve", tenantID, map[string]any{
			"strategy": "main_wins",
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSyncHandler_AutoResolve(t *testing.T) {
	syncService := new(mockSyncService)
	conflicts := new(mockConflictService)
	engine := setupSyncRouter(syncService, conflicts)
	tenantID := uuid.New()

	conflicts.On("AutoResolve", mock.Anything, tenantID).Return(&appsync.AutoResolveResult{
		TotalPending:   5,
		AutoResolved:   3,
		ManualRequired: 2,
	}, nil)

	w := performRequest(t, engine, http.MethodPost, "/api/v1/sync/conflicts/auto-resolve", tenantID, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"auto_resolved":3`)
}

func TestSyncHandler_AuditTrail(t *testing.T) {
	syncService := new(mockSyncService)
	conflicts := new(mockConflictService)
	engine := setupSyncRouter(syncService, conflicts)
	tenantID := uuid.New()

	conflict := handlerTestConflict(tenantID)
	require.NoError(t, conflict.MarkResolved(sync.StrategyMainWins, conflict.MainSnapshot, "pharmacist-7"))
	conflicts.On("AuditTrail", mock.Anything, tenantID, conflict.ID).
		Return([]*sync.AuditEntry{sync.NewAuditEntry(conflict)}, nil)

	w := performRequest(t, engine, http.MethodGet, "/api/v1/sync/conflicts/"+conflict.ID.String()+"/audit", tenantID, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"resolved_by":"pharmacist-7"`)
}

func TestSyncHandler_InvalidTenantHeader(t *testing.T) {
	syncService := new(mockSyncService)
	conflicts := new(mockConflictService)
	engine := setupSyncRouter(syncService, conflicts)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil)
	req.Header.Set("X-Tenant-ID", "not-a-uuid")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

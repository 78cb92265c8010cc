package sync

import (
	"testing"

	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/stretchr/testify/assert"
)

func conflictBetween(main, svc record.Record) *Conflict {
	return NewConflict(mergeTestTenantID, main.Type, main.ID(), ConflictTypeDataMismatch, main, svc)
}

func TestEligibleForAutoResolution_Prescription(t *testing.T) {
	t.Run("matching dosage and frequency is eligible", func(t *testing.T) {
		main := prescriptionRecord(func(p *record.Prescription) { p.Instructions = "a" })
		svc := prescriptionRecord(func(p *record.Prescription) { p.Instructions = "b" })
		assert.True(t, EligibleForAutoResolution(conflictBetween(main, svc)))
	})

	t.Run("dosage mismatch requires manual review", func(t *testing.T) {
		main := prescriptionRecord(nil)
		svc := prescriptionRecord(func(p *record.Prescription) { p.Dosage = "20mg" })
		assert.False(t, EligibleForAutoResolution(conflictBetween(main, svc)))
	})
}

func TestEligibleForAutoResolution_MedicationNeverEligible(t *testing.T) {
	rec := record.NewMedicationRecord(&record.Medication{ID: "med-1", TenantID: mergeTestTenantID, Name: "Aspirin"})
	assert.False(t, EligibleForAutoResolution(conflictBetween(rec, rec)))
}

func TestEligibleForAutoResolution_InventoryTolerance(t *testing.T) {
	tests := []struct {
		name     string
		mainQty  int64
		svcQty   int64
		eligible bool
	}{
		{"4.9 percent divergence accepted", 100, 105, true},
		{"18 percent divergence rejected", 100, 120, false},
		{"equal quantities accepted", 50, 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := conflictBetween(inventoryRecord(tt.mainQty, 0), inventoryRecord(tt.svcQty, 0))
			assert.Equal(t, tt.eligible, EligibleForAutoResolution(c))
		})
	}
}

func TestEligibleForAutoResolution_OrderProgressions(t *testing.T) {
	tests := []struct {
		name     string
		main     record.OrderStatus
		svc      record.OrderStatus
		eligible bool
	}{
		{"pending to partially_filled", record.OrderStatusPending, record.OrderStatusPartiallyFilled, true},
		{"partially_filled to filled", record.OrderStatusPartiallyFilled, record.OrderStatusFilled, true},
		{"pending to filled", record.OrderStatusPending, record.OrderStatusFilled, true},
		{"filled back to pending", record.OrderStatusFilled, record.OrderStatusPending, false},
		{"pending to cancelled", record.OrderStatusPending, record.OrderStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := conflictBetween(orderRecord(tt.main, ""), orderRecord(tt.svc, ""))
			assert.Equal(t, tt.eligible, EligibleForAutoResolution(c))
		})
	}
}

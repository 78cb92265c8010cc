package record

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem is a versioned pharmacy stock record for a medication lot
type InventoryItem struct {
	// ID is the identifier assigned by the owning store
	ID string `json:"id"`
	// TenantID is the hospital tenant this record belongs to
	TenantID uuid.UUID `json:"tenant_id"`
	// MedicationID references the stocked medication
	MedicationID string `json:"medication_id"`
	// LotNumber is the manufacturer lot number
	LotNumber string `json:"lot_number"`
	// QuantityOnHand is the physical stock count
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	// QuantityReserved is the stock committed to open orders
	QuantityReserved decimal.Decimal `json:"quantity_reserved"`
	// ReorderThreshold triggers replenishment when on-hand falls below it
	ReorderThreshold decimal.Decimal `json:"reorder_threshold"`
	// ExpirationDate is the lot expiration date
	ExpirationDate time.Time `json:"expiration_date"`
	// StorageLocation is the physical storage location code
	StorageLocation string `json:"storage_location"`
	// UpdatedAt is the last-modified timestamp used for staleness comparison
	UpdatedAt time.Time `json:"updated_at"`
}

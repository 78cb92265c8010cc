package record

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the fill status of a pharmacy order
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// IsValid checks if the status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPartiallyFilled, OrderStatusFilled, OrderStatusCancelled:
		return true
	}
	return false
}

// Rank returns the position of the status along the fill progression
// pending -> partially_filled -> filled. Cancelled is a separate terminal
// state and ranks outside the progression.
func (s OrderStatus) Rank() int {
	switch s {
	case OrderStatusPending:
		return 1
	case OrderStatusPartiallyFilled:
		return 2
	case OrderStatusFilled:
		return 3
	}
	return 0
}

// AllOrderStatuses returns all valid order statuses
func AllOrderStatuses() []string {
	return []string{
		string(OrderStatusPending),
		string(OrderStatusPartiallyFilled),
		string(OrderStatusFilled),
		string(OrderStatusCancelled),
	}
}

// PharmacyOrder is a versioned fill order for a prescription
type PharmacyOrder struct {
	// ID is the identifier assigned by the owning store
	ID string `json:"id"`
	// TenantID is the hospital tenant this record belongs to
	TenantID uuid.UUID `json:"tenant_id"`
	// PrescriptionID references the prescription being filled
	PrescriptionID string `json:"prescription_id"`
	// PatientID references the patient
	PatientID string `json:"patient_id"`
	// Status is the fill status
	Status OrderStatus `json:"status"`
	// Quantity is the number of units to dispense
	Quantity int `json:"quantity"`
	// Notes is free-text clinical narrative, subject to redaction
	Notes string `json:"notes"`
	// FilledBy identifies the pharmacist who filled the order
	FilledBy string `json:"filled_by"`
	// UpdatedAt is the last-modified timestamp used for staleness comparison
	UpdatedAt time.Time `json:"updated_at"`
}

package record

import (
	"time"

	"github.com/google/uuid"
)

// PrescriptionStatus represents the lifecycle status of a prescription
type PrescriptionStatus string

const (
	PrescriptionStatusActive    PrescriptionStatus = "active"
	PrescriptionStatusCompleted PrescriptionStatus = "completed"
	PrescriptionStatusCancelled PrescriptionStatus = "cancelled"
	PrescriptionStatusOnHold    PrescriptionStatus = "on_hold"
)

// IsValid checks if the status is valid
func (s PrescriptionStatus) IsValid() bool {
	switch s {
	case PrescriptionStatusActive, PrescriptionStatusCompleted,
		PrescriptionStatusCancelled, PrescriptionStatusOnHold:
		return true
	}
	return false
}

// AllPrescriptionStatuses returns all valid prescription statuses
func AllPrescriptionStatuses() []string {
	return []string{
		string(PrescriptionStatusActive),
		string(PrescriptionStatusCompleted),
		string(PrescriptionStatusCancelled),
		string(PrescriptionStatusOnHold),
	}
}

// Prescription is a versioned prescription record owned jointly by the main
// hospital store and the pharmacy microservice store.
type Prescription struct {
	// ID is the identifier assigned by the owning store
	ID string `json:"id"`
	// TenantID is the hospital tenant this record belongs to
	TenantID uuid.UUID `json:"tenant_id"`
	// PatientID references the patient in the main store
	PatientID string `json:"patient_id"`
	// MedicationID references the prescribed medication
	MedicationID string `json:"medication_id"`
	// Dosage is the prescribed dosage, e.g. "10mg"
	Dosage string `json:"dosage"`
	// Frequency is the dosing frequency, e.g. "twice daily"
	Frequency string `json:"frequency"`
	// Quantity is the number of units prescribed
	Quantity int `json:"quantity"`
	// Status is the prescription lifecycle status
	Status PrescriptionStatus `json:"status"`
	// Instructions is free-text clinical narrative, subject to redaction
	Instructions string `json:"instructions"`
	// RefillsRemaining is the number of refills left
	RefillsRemaining int `json:"refills_remaining"`
	// UpdatedAt is the last-modified timestamp used for staleness comparison
	UpdatedAt time.Time `json:"updated_at"`
}

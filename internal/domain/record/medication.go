package record

import (
	"time"

	"github.com/google/uuid"
)

// ControlledSubstanceSchedules is the fixed DEA schedule code set. An empty
// schedule means the medication is not a controlled substance.
var ControlledSubstanceSchedules = []string{"I", "II", "III", "IV", "V"}

// IsValidControlledSubstanceSchedule checks a schedule code against the fixed set
func IsValidControlledSubstanceSchedule(schedule string) bool {
	if schedule == "" {
		return true
	}
	for _, s := range ControlledSubstanceSchedules {
		if s == schedule {
			return true
		}
	}
	return false
}

// Medication is a versioned medication catalog record
type Medication struct {
	// ID is the identifier assigned by the owning store
	ID string `json:"id"`
	// TenantID is the hospital tenant this record belongs to
	TenantID uuid.UUID `json:"tenant_id"`
	// Name is the brand name
	Name string `json:"name"`
	// GenericName is the generic (INN) name
	GenericName string `json:"generic_name"`
	// NDCCode is the National Drug Code
	NDCCode string `json:"ndc_code"`
	// Strength is the formulation strength, e.g. "500mg"
	Strength string `json:"strength"`
	// DosageForm is the form, e.g. "tablet", "capsule", "injection"
	DosageForm string `json:"dosage_form"`
	// Manufacturer is the manufacturer name
	Manufacturer string `json:"manufacturer"`
	// ControlledSubstanceSchedule is the DEA schedule, empty when uncontrolled
	ControlledSubstanceSchedule string `json:"controlled_substance_schedule"`
	// Notes is free-text clinical narrative, subject to redaction
	Notes string `json:"notes"`
	// UpdatedAt is the last-modified timestamp used for staleness comparison
	UpdatedAt time.Time `json:"updated_at"`
}

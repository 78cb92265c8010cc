package validation

import (
	"fmt"
	"time"

	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/shopspring/decimal"
)

func dec(i int64) *decimal.Decimal {
	d := decimal.NewFromInt(i)
	return &d
}

// DefaultRuleSets builds the ordered per-type rule tables. They are immutable
// configuration constructed once at process start and passed explicitly into
// the validation gate's constructor.
func DefaultRuleSets() map[record.Type]RuleSet {
	return map[record.Type]RuleSet{
		record.TypePrescription:  prescriptionRules(),
		record.TypeMedication:    medicationRules(),
		record.TypeInventoryItem: inventoryItemRules(),
		record.TypePharmacyOrder: pharmacyOrderRules(),
	}
}

func prescriptionRules() RuleSet {
	return RuleSet{
		RecordType: record.TypePrescription,
		Rules: []Rule{
			{
				Field: "patient_id", Label: "Patient ID", Kind: KindRequired, Severity: SeverityError,
				Get: func(r record.Record) any { return r.Prescription.PatientID },
			},
			{
				Field: "medication_id", Label: "Medication ID", Kind: KindRequired, Severity: SeverityError,
				Get: func(r record.Record) any { return r.Prescription.MedicationID },
			},
			{
				Field: "dosage", Label: "Dosage", Kind: KindRequired, Severity: SeverityError,
				Get: func(r record.Record) any { return r.Prescription.Dosage },
			},
			{
				Field: "frequency", Label: "Frequency", Kind: KindRequired, Severity: SeverityError,
				Get: func(r record.Record) any { return r.Prescription.Frequency },
			},
			{
				Field: "quantity", Label: "Quantity", Kind: KindRange, Severity: SeverityError,
				Min: dec(1), Max: dec(1000),
				Get: func(r record.Record) any { return r.Prescription.Quantity },
				Set: func(r *record.Record, v decimal.Decimal) { r.Prescription.Quantity = int(v.IntPart()) },
			},
			{
				Field: "status", Label: "Status", Kind: KindEnum, Severity: SeverityError,
				Allowed: record.AllPrescriptionStatuses(),
				Get:     func(r record.Record) any { return string(r.Prescription.Status) },
			},
			{
				Field: "refills_remaining", Label: "Refills remaining", Kind: KindRange, Severity: SeverityWarning,
				Min: dec(0), Max: dec(12),
				Get: func(r record.Record) any { return r.Prescription.RefillsRemaining },
				Set: func(r *record.Record, v decimal.Decimal) { r.Prescription.RefillsRemaining = int(v.IntPart()) },
			},
			{
				Field: "instructions", Label: "Instructions", Kind: KindRequired, Severity: SeverityWarning,
				Get: func(r record.Record) any { return r.Prescription.Instructions },
			},
		},
	}
}

func medicationRules() RuleSet {
	return RuleSet{
		RecordType: record.TypeMedication,
		Rules: []Rule{
			{
				Field: "name", Label: "Medication name", Kind: KindRequired, Severity: SeverityError,
				Get: func(r record.Record) any { return r.Medication.Name },
			},
			{
				Field: "ndc_code", Label: "NDC code", Kind: KindRequired, Severity: SeverityError,
				Get: func(r record.Record) any { return r.Medication.NDCCode },
			},
			{
				Field: "strength", Label: "Strength", Kind: KindRequired, Severity: SeverityWarning,
				Get: func(r record.Record) any { return r.Medication.Strength },
			},
			{
				Field: "controlled_substance_schedule", Label: "Controlled substance schedule",
				Kind: KindCustom, Severity: SeverityError,
				Check: func(r record.Record) string {
					if !record.IsValidControlledSubstanceSchedule(r.Medication.ControlledSubstanceSchedule) {
						return fmt.Sprintf("Controlled substance schedule must be one of: %v", record.ControlledSubstanceSchedules)
					}
					return ""
				},
			},
			{
				Field: "dosage_form", Label: "Dosage form", Kind: KindEnum, Severity: SeverityWarning,
				Allowed: []string{"tablet", "capsule", "liquid", "injection", "topical", "inhaler", "patch"},
				Get:     func(r record.Record) any { return r.Medication.DosageForm },
			},
		},
	}
}

func inventoryItemRules() RuleSet {
	return RuleSet{
		RecordType: record.TypeInventoryItem,
		Rules: []Rule{
			{
				Field: "medication_id", Label: "Medication ID", Kind: KindRequired, Severity: SeverityError,
				Get: func(r record.Record) any { return r.InventoryItem.MedicationID },
			},
			{
				Field: "quantity_on_hand", Label: "Quantity on hand", Kind: KindRange, Severity: SeverityError,
				Min: dec(0), Max: dec(1000000),
				Get: func(r record.Record) any { return r.InventoryItem.QuantityOnHand },
				Set: func(r *record.Record, v decimal.Decimal) { r.InventoryItem.QuantityOnHand = v },
			},
			{
				Field: "quantity_reserved", Label: "Quantity reserved", Kind: KindRange, Severity: SeverityError,
				Min: dec(0), Max: dec(1000000),
				Get: func(r record.Record) any { return r.InventoryItem.QuantityReserved },
				Set: func(r *record.Record, v decimal.Decimal) { r.InventoryItem.QuantityReserved = v },
			},
			{
				Field: "expiration_date", Label: "Expiration date", Kind: KindCustom, Severity: SeverityError,
				Check: func(r record.Record) string {
					if !r.InventoryItem.ExpirationDate.After(time.Now()) {
						return "Expiration date must lie in the future"
					}
					return ""
				},
			},
			{
				Field: "lot_number", Label: "Lot number", Kind: KindRequired, Severity: SeverityWarning,
				Get: func(r record.Record) any { return r.InventoryItem.LotNumber },
			},
		},
	}
}

func pharmacyOrderRules() RuleSet {
	return RuleSet{
		RecordType: record.TypePharmacyOrder,
		Rules: []Rule{
			{
				Field: "prescription_id", Label: "Prescription ID", Kind: KindRequired, Severity: SeverityError,
				Get: func(r record.Record) any { return r.PharmacyOrder.PrescriptionID },
			},
			{
				Field: "patient_id", Label: "Patient ID", Kind: KindRequired, Severity: SeverityError,
				Get: func(r record.Record) any { return r.PharmacyOrder.PatientID },
			},
			{
				Field: "status", Label: "Status", Kind: KindEnum, Severity: SeverityError,
				Allowed: record.AllOrderStatuses(),
				Get:     func(r record.Record) any { return string(r.PharmacyOrder.Status) },
			},
			{
				Field: "quantity", Label: "Quantity", Kind: KindRange, Severity: SeverityError,
				Min: dec(1), Max: dec(1000),
				Get: func(r record.Record) any { return r.PharmacyOrder.Quantity },
				Set: func(r *record.Record, v decimal.Decimal) { r.PharmacyOrder.Quantity = int(v.IntPart()) },
			},
		},
	}
}

// Evaluate runs the ordered rule set against the record and returns the
// ephemeral result. The sanitized copy carries every successfully coerced
// field and redacted free text; it is omitted when an error-severity rule
// failed.
func (rs RuleSet) Evaluate(rec record.Record) *Result {
	sanitized := rec.Clone()
	result := &Result{
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
	}
	for _, rule := range rs.Rules {
		msg := rule.evaluate(rec, &sanitized)
		if msg == "" {
			continue
		}
		if rule.Severity == SeverityError {
			result.Errors = append(result.Errors, msg)
		} else {
			result.Warnings = append(result.Warnings, msg)
		}
	}
	result.Valid = len(result.Errors) == 0
	if result.Valid {
		SanitizeRecord(&sanitized)
		result.Sanitized = &sanitized
	}
	return result
}

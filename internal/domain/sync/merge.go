package sync

import (
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Merge performs type-specific field-level reconciliation of the two store
// snapshots. The main-store snapshot is the base; microservice fields are
// pulled in only where the type's merge rules say so.
func Merge(main, service record.Record) (record.Record, error) {
	if main.Type != service.Type {
		return record.Record{}, shared.NewDomainError("INVALID_INPUT", "Cannot merge records of different types")
	}
	switch main.Type {
	case record.TypePrescription:
		return mergePrescriptions(main, service), nil
	case record.TypeMedication:
		return mergeMedications(main, service), nil
	case record.TypeInventoryItem:
		return mergeInventoryItems(main, service), nil
	case record.TypePharmacyOrder:
		return mergePharmacyOrders(main, service), nil
	default:
		return record.Record{}, shared.ErrUnsupportedType
	}
}

// mergePrescriptions prefers main-store instructions and status, falling back
// to the microservice value only when the main-store field is empty.
func mergePrescriptions(main, service record.Record) record.Record {
	merged := main.Clone()
	p := merged.Prescription
	svc := service.Prescription
	if p.Instructions == "" {
		p.Instructions = svc.Instructions
	}
	if p.Status == "" {
		p.Status = svc.Status
	}
	return merged
}

// mergeMedications treats main-store fields as authoritative, taking the
// microservice value only for empty main-store fields.
func mergeMedications(main, service record.Record) record.Record {
	merged := main.Clone()
	m := merged.Medication
	svc := service.Medication
	if m.Name == "" {
		m.Name = svc.Name
	}
	if m.GenericName == "" {
		m.GenericName = svc.GenericName
	}
	if m.NDCCode == "" {
		m.NDCCode = svc.NDCCode
	}
	if m.Strength == "" {
		m.Strength = svc.Strength
	}
	if m.DosageForm == "" {
		m.DosageForm = svc.DosageForm
	}
	if m.Manufacturer == "" {
		m.Manufacturer = svc.Manufacturer
	}
	if m.ControlledSubstanceSchedule == "" {
		m.ControlledSubstanceSchedule = svc.ControlledSubstanceSchedule
	}
	if m.Notes == "" {
		m.Notes = svc.Notes
	}
	return merged
}

// mergeInventoryItems takes the larger on-hand quantity and the smaller
// reserved quantity, biasing toward not under-counting stock and not
// over-committing reservations. Known inconsistency: under specific timing
// this can yield reserved > on_hand; the behavior is preserved as observed.
func mergeInventoryItems(main, service record.Record) record.Record {
	merged := main.Clone()
	i := merged.InventoryItem
	svc := service.InventoryItem
	i.QuantityOnHand = decimal.Max(i.QuantityOnHand, svc.QuantityOnHand)
	i.QuantityReserved = decimal.Min(i.QuantityReserved, svc.QuantityReserved)
	return merged
}

// mergePharmacyOrders keeps whichever status is further along the fill
// progression and prefers non-empty main-store notes. Cancelled is a separate
// terminal state: a cancelled side always wins over an in-progress one.
func mergePharmacyOrders(main, service record.Record) record.Record {
	merged := main.Clone()
	o := merged.PharmacyOrder
	svc := service.PharmacyOrder
	switch {
	case o.Status == record.OrderStatusCancelled || svc.Status == record.OrderStatusCancelled:
		o.Status = record.OrderStatusCancelled
	case svc.Status.Rank() > o.Status.Rank():
		o.Status = svc.Status
		o.FilledBy = svc.FilledBy
	}
	if o.Notes == "" {
		o.Notes = svc.Notes
	}
	return merged
}

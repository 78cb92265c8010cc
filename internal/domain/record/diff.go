package record

import "github.com/pharmacy/backend/internal/domain/shared"

// SignificantlyDiffers reports whether two records of the same type differ in
// their clinically or operationally significant fields. The predicates are
// intentionally narrow: cosmetic fields such as free-text notes never raise
// a conflict.
func SignificantlyDiffers(a, b Record) (bool, error) {
	if a.Type != b.Type {
		return false, shared.NewDomainError("INVALID_INPUT", "Cannot diff records of different types")
	}
	switch a.Type {
	case TypePrescription:
		pa, pb := a.Prescription, b.Prescription
		return pa.Dosage != pb.Dosage ||
			pa.Frequency != pb.Frequency ||
			pa.Quantity != pb.Quantity ||
			pa.Status != pb.Status, nil
	case TypeMedication:
		ma, mb := a.Medication, b.Medication
		return ma.Name != mb.Name ||
			ma.NDCCode != mb.NDCCode ||
			ma.Strength != mb.Strength ||
			ma.ControlledSubstanceSchedule != mb.ControlledSubstanceSchedule, nil
	case TypeInventoryItem:
		ia, ib := a.InventoryItem, b.InventoryItem
		return !ia.QuantityOnHand.Equal(ib.QuantityOnHand) ||
			!ia.QuantityReserved.Equal(ib.QuantityReserved) ||
			!ia.ExpirationDate.Equal(ib.ExpirationDate), nil
	case TypePharmacyOrder:
		oa, ob := a.PharmacyOrder, b.PharmacyOrder
		return oa.Status != ob.Status ||
			oa.Quantity != ob.Quantity, nil
	default:
		return false, shared.ErrUnsupportedType
	}
}

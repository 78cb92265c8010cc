package sync

import (
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/shopspring/decimal"
)

// inventoryAutoResolveTolerance is the maximum relative on-hand divergence,
// as a fraction of the mean of the two values, that still qualifies for
// automatic resolution.
var inventoryAutoResolveTolerance = decimal.NewFromFloat(0.10)

// sanctionedOrderProgressions are the forward status transitions from the
// main-store snapshot to the microservice snapshot that qualify an order
// conflict for automatic resolution.
var sanctionedOrderProgressions = map[record.OrderStatus][]record.OrderStatus{
	record.OrderStatusPending:         {record.OrderStatusPartiallyFilled, record.OrderStatusFilled},
	record.OrderStatusPartiallyFilled: {record.OrderStatusFilled},
}

// EligibleForAutoResolution applies the conservative per-type eligibility
// test for resolving a pending conflict without human review. Ineligible
// conflicts stay pending for manual handling.
func EligibleForAutoResolution(c *Conflict) bool {
	switch c.RecordType {
	case record.TypePrescription:
		// Only non-critical fields may differ
		main, svc := c.MainSnapshot.Prescription, c.ServiceSnapshot.Prescription
		return main.Dosage == svc.Dosage && main.Frequency == svc.Frequency
	case record.TypeMedication:
		// Medication conflicts always require manual review
		return false
	case record.TypeInventoryItem:
		main, svc := c.MainSnapshot.InventoryItem, c.ServiceSnapshot.InventoryItem
		diff := main.QuantityOnHand.Sub(svc.QuantityOnHand).Abs()
		mean := main.QuantityOnHand.Add(svc.QuantityOnHand).Div(decimal.NewFromInt(2))
		return diff.LessThanOrEqual(mean.Mul(inventoryAutoResolveTolerance))
	case record.TypePharmacyOrder:
		main, svc := c.MainSnapshot.PharmacyOrder, c.ServiceSnapshot.PharmacyOrder
		for _, next := range sanctionedOrderProgressions[main.Status] {
			if svc.Status == next {
				return true
			}
		}
		return false
	default:
		return false
	}
}

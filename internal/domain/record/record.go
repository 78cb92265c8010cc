package record

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// Type identifies one of the four synced entity types. Every dispatch point
// in the sync subsystem switches exhaustively over this closed set so that
// adding a fifth entity type is a compile-visible change.
type Type string

const (
	TypePrescription  Type = "prescription"
	TypeMedication    Type = "medication"
	TypeInventoryItem Type = "inventory_item"
	TypePharmacyOrder Type = "pharmacy_order"
)

// IsValid checks if the record type is valid
func (t Type) IsValid() bool {
	switch t {
	case TypePrescription, TypeMedication, TypeInventoryItem, TypePharmacyOrder:
		return true
	}
	return false
}

// String returns the string representation
func (t Type) String() string {
	return string(t)
}

// AllTypes returns all valid record types in sync order
func AllTypes() []Type {
	return []Type{TypePrescription, TypeMedication, TypeInventoryItem, TypePharmacyOrder}
}

// SanitizationStamp records when and how a record copy was sanitized
type SanitizationStamp struct {
	SanitizedAt time.Time `json:"sanitized_at"`
	Method      string    `json:"method"`
}

// Record is a tagged union over the four synced entity shapes. Exactly one
// of the payload pointers is non-nil, matching Type.
type Record struct {
	Type          Type               `json:"type"`
	Prescription  *Prescription      `json:"prescription,omitempty"`
	Medication    *Medication        `json:"medication,omitempty"`
	InventoryItem *InventoryItem     `json:"inventory_item,omitempty"`
	PharmacyOrder *PharmacyOrder     `json:"pharmacy_order,omitempty"`
	Sanitization  *SanitizationStamp `json:"sanitization,omitempty"`
}

// NewPrescriptionRecord wraps a prescription into a Record
func NewPrescriptionRecord(p *Prescription) Record {
	return Record{Type: TypePrescription, Prescription: p}
}

// NewMedicationRecord wraps a medication into a Record
func NewMedicationRecord(m *Medication) Record {
	return Record{Type: TypeMedication, Medication: m}
}

// NewInventoryItemRecord wraps an inventory item into a Record
func NewInventoryItemRecord(i *InventoryItem) Record {
	return Record{Type: TypeInventoryItem, InventoryItem: i}
}

// NewPharmacyOrderRecord wraps a pharmacy order into a Record
func NewPharmacyOrderRecord(o *PharmacyOrder) Record {
	return Record{Type: TypePharmacyOrder, PharmacyOrder: o}
}

// ID returns the store-assigned identifier of the wrapped entity
func (r Record) ID() string {
	switch r.Type {
	case TypePrescription:
		return r.Prescription.ID
	case TypeMedication:
		return r.Medication.ID
	case TypeInventoryItem:
		return r.InventoryItem.ID
	case TypePharmacyOrder:
		return r.PharmacyOrder.ID
	}
	return ""
}

// TenantID returns the tenant the wrapped entity belongs to
func (r Record) TenantID() uuid.UUID {
	switch r.Type {
	case TypePrescription:
		return r.Prescription.TenantID
	case TypeMedication:
		return r.Medication.TenantID
	case TypeInventoryItem:
		return r.InventoryItem.TenantID
	case TypePharmacyOrder:
		return r.PharmacyOrder.TenantID
	}
	return uuid.Nil
}

// UpdatedAt returns the last-modified timestamp used for staleness comparison
func (r Record) UpdatedAt() time.Time {
	switch r.Type {
	case TypePrescription:
		return r.Prescription.UpdatedAt
	case TypeMedication:
		return r.Medication.UpdatedAt
	case TypeInventoryItem:
		return r.InventoryItem.UpdatedAt
	case TypePharmacyOrder:
		return r.PharmacyOrder.UpdatedAt
	}
	return time.Time{}
}

// Validate checks that the union is well-formed: a valid type tag with
// exactly the matching payload set.
func (r Record) Validate() error {
	if !r.Type.IsValid() {
		return shared.ErrUnsupportedType
	}
	set := 0
	if r.Prescription != nil {
		set++
	}
	if r.Medication != nil {
		set++
	}
	if r.InventoryItem != nil {
		set++
	}
	if r.PharmacyOrder != nil {
		set++
	}
	if set != 1 {
		return shared.NewDomainError("INVALID_INPUT", "Record must carry exactly one entity payload")
	}
	switch r.Type {
	case TypePrescription:
		if r.Prescription == nil {
			return shared.NewDomainError("INVALID_INPUT", "Record payload does not match its type tag")
		}
	case TypeMedication:
		if r.Medication == nil {
			return shared.NewDomainError("INVALID_INPUT", "Record payload does not match its type tag")
		}
	case TypeInventoryItem:
		if r.InventoryItem == nil {
			return shared.NewDomainError("INVALID_INPUT", "Record payload does not match its type tag")
		}
	case TypePharmacyOrder:
		if r.PharmacyOrder == nil {
			return shared.NewDomainError("INVALID_INPUT", "Record payload does not match its type tag")
		}
	}
	return nil
}

// Clone returns a deep copy of the record
func (r Record) Clone() Record {
	out := Record{Type: r.Type}
	switch r.Type {
	case TypePrescription:
		if r.Prescription != nil {
			p := *r.Prescription
			out.Prescription = &p
		}
	case TypeMedication:
		if r.Medication != nil {
			m := *r.Medication
			out.Medication = &m
		}
	case TypeInventoryItem:
		if r.InventoryItem != nil {
			i := *r.InventoryItem
			out.InventoryItem = &i
		}
	case TypePharmacyOrder:
		if r.PharmacyOrder != nil {
			o := *r.PharmacyOrder
			out.PharmacyOrder = &o
		}
	}
	if r.Sanitization != nil {
		s := *r.Sanitization
		out.Sanitization = &s
	}
	return out
}

// UnmarshalPayload decodes a raw entity payload into a Record of the given type
func UnmarshalPayload(t Type, payload []byte) (Record, error) {
	switch t {
	case TypePrescription:
		var p Prescription
		if err := json.Unmarshal(payload, &p); err != nil {
			return Record{}, err
		}
		return NewPrescriptionRecord(&p), nil
	case TypeMedication:
		var m Medication
		if err := json.Unmarshal(payload, &m); err != nil {
			return Record{}, err
		}
		return NewMedicationRecord(&m), nil
	case TypeInventoryItem:
		var i InventoryItem
		if err := json.Unmarshal(payload, &i); err != nil {
			return Record{}, err
		}
		return NewInventoryItemRecord(&i), nil
	case TypePharmacyOrder:
		var o PharmacyOrder
		if err := json.Unmarshal(payload, &o); err != nil {
			return Record{}, err
		}
		return NewPharmacyOrderRecord(&o), nil
	default:
		return Record{}, shared.ErrUnsupportedType
	}
}

// MarshalPayload encodes the wrapped entity as a raw payload
func (r Record) MarshalPayload() ([]byte, error) {
	switch r.Type {
	case TypePrescription:
		return json.Marshal(r.Prescription)
	case TypeMedication:
		return json.Marshal(r.Medication)
	case TypeInventoryItem:
		return json.Marshal(r.InventoryItem)
	case TypePharmacyOrder:
		return json.Marshal(r.PharmacyOrder)
	default:
		return nil, shared.ErrUnsupportedType
	}
}

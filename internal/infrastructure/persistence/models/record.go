package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/shopspring/decimal"
)

// The pharmacy store keeps one table per synced entity type. Primary keys are
// the string identifiers assigned by the owning store, scoped per tenant.

// PrescriptionModel is the persistence model for the Prescription entity.
type PrescriptionModel struct {
	ID               string     `gorm:"type:varchar(64);primary_key"`
	TenantID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	PatientID        string     `gorm:"type:varchar(64);not null;index"`
	MedicationID     string     `gorm:"type:varchar(64);not null;index"`
	Dosage           string     `gorm:"type:varchar(100);not null"`
	Frequency        string     `gorm:"type:varchar(100);not null"`
	Quantity         int        `gorm:"not null"`
	Status           string     `gorm:"type:varchar(20);not null;index"`
	Instructions     string     `gorm:"type:text"`
	RefillsRemaining int        `gorm:"not null;default:0"`
	SanitizedAt      *time.Time ``
	SanitizedMethod  string     `gorm:"type:varchar(50)"`
	UpdatedAt        time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PrescriptionModel) TableName() string {
	return "prescriptions"
}

// ToDomain converts the persistence model to a domain record
func (m *PrescriptionModel) ToDomain() record.Record {
	rec := record.NewPrescriptionRecord(&record.Prescription{
		ID:               m.ID,
		TenantID:         m.TenantID,
		PatientID:        m.PatientID,
		MedicationID:     m.MedicationID,
		Dosage:           m.Dosage,
		Frequency:        m.Frequency,
		Quantity:         m.Quantity,
		Status:           record.PrescriptionStatus(m.Status),
		Instructions:     m.Instructions,
		RefillsRemaining: m.RefillsRemaining,
		UpdatedAt:        m.UpdatedAt,
	})
	attachStamp(&rec, m.SanitizedAt, m.SanitizedMethod)
	return rec
}

// FromDomain populates the persistence model from a domain record
func (m *PrescriptionModel) FromDomain(rec record.Record) {
	p := rec.Prescription
	m.ID = p.ID
	m.TenantID = p.TenantID
	m.PatientID = p.PatientID
	m.MedicationID = p.MedicationID
	m.Dosage = p.Dosage
	m.Frequency = p.Frequency
	m.Quantity = p.Quantity
	m.Status = string(p.Status)
	m.Instructions = p.Instructions
	m.RefillsRemaining = p.RefillsRemaining
	m.UpdatedAt = p.UpdatedAt
	m.SanitizedAt, m.SanitizedMethod = stampColumns(rec)
}

// MedicationModel is the persistence model for the Medication entity.
type MedicationModel struct {
	ID                          string     `gorm:"type:varchar(64);primary_key"`
	TenantID                    uuid.UUID  `gorm:"type:uuid;primary_key"`
	Name                        string     `gorm:"type:varchar(255);not null;index"`
	GenericName                 string     `gorm:"type:varchar(255)"`
	NDCCode                     string     `gorm:"type:varchar(20);not null;index;column:ndc_code"`
	Strength                    string     `gorm:"type:varchar(50)"`
	DosageForm                  string     `gorm:"type:varchar(50)"`
	Manufacturer                string     `gorm:"type:varchar(255)"`
	ControlledSubstanceSchedule string     `gorm:"type:varchar(5)"`
	Notes                       string     `gorm:"type:text"`
	SanitizedAt                 *time.Time ``
	SanitizedMethod             string     `gorm:"type:varchar(50)"`
	UpdatedAt                   time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (MedicationModel) TableName() string {
	return "medications"
}

// ToDomain converts the persistence model to a domain record
func (m *MedicationModel) ToDomain() record.Record {
	rec := record.NewMedicationRecord(&record.Medication{
		ID:                          m.ID,
		TenantID:                    m.TenantID,
		Name:                        m.Name,
		GenericName:                 m.GenericName,
		NDCCode:                     m.NDCCode,
		Strength:                    m.Strength,
		DosageForm:                  m.DosageForm,
		Manufacturer:                m.Manufacturer,
		ControlledSubstanceSchedule: m.ControlledSubstanceSchedule,
		Notes:                       m.Notes,
		UpdatedAt:                   m.UpdatedAt,
	})
	attachStamp(&rec, m.SanitizedAt, m.SanitizedMethod)
	return rec
}

// FromDomain populates the persistence model from a domain record
func (m *MedicationModel) FromDomain(rec record.Record) {
	med := rec.Medication
	m.ID = med.ID
	m.TenantID = med.TenantID
	m.Name = med.Name
	m.GenericName = med.GenericName
	m.NDCCode = med.NDCCode
	m.Strength = med.Strength
	m.DosageForm = med.DosageForm
	m.Manufacturer = med.Manufacturer
	m.ControlledSubstanceSchedule = med.ControlledSubstanceSchedule
	m.Notes = med.Notes
	m.UpdatedAt = med.UpdatedAt
	m.SanitizedAt, m.SanitizedMethod = stampColumns(rec)
}

// InventoryItemModel is the persistence model for the InventoryItem entity.
type InventoryItemModel struct {
	ID               string          `gorm:"type:varchar(64);primary_key"`
	TenantID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	MedicationID     string          `gorm:"type:varchar(64);not null;index"`
	QuantityOnHand   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QuantityReserved decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReorderThreshold decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ExpirationDate   time.Time       `gorm:"not null;index"`
	LotNumber        string          `gorm:"type:varchar(64);not null"`
	StorageLocation  string          `gorm:"type:varchar(100)"`
	SanitizedAt      *time.Time      ``
	SanitizedMethod  string          `gorm:"type:varchar(50)"`
	UpdatedAt        time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (InventoryItemModel) TableName() string {
	return "inventory_items"
}

// ToDomain converts the persistence model to a domain record
func (m *InventoryItemModel) ToDomain() record.Record {
	rec := record.NewInventoryItemRecord(&record.InventoryItem{
		ID:               m.ID,
		TenantID:         m.TenantID,
		MedicationID:     m.MedicationID,
		QuantityOnHand:   m.QuantityOnHand,
		QuantityReserved: m.QuantityReserved,
		ReorderThreshold: m.ReorderThreshold,
		ExpirationDate:   m.ExpirationDate,
		LotNumber:        m.LotNumber,
		StorageLocation:  m.StorageLocation,
		UpdatedAt:        m.UpdatedAt,
	})
	attachStamp(&rec, m.SanitizedAt, m.SanitizedMethod)
	return rec
}

// FromDomain populates the persistence model from a domain record
func (m *InventoryItemModel) FromDomain(rec record.Record) {
	item := rec.InventoryItem
	m.ID = item.ID
	m.TenantID = item.TenantID
	m.MedicationID = item.MedicationID
	m.QuantityOnHand = item.QuantityOnHand
	m.QuantityReserved = item.QuantityReserved
	m.ReorderThreshold = item.ReorderThreshold
	m.ExpirationDate = item.ExpirationDate
	m.LotNumber = item.LotNumber
	m.StorageLocation = item.StorageLocation
	m.UpdatedAt = item.UpdatedAt
	m.SanitizedAt, m.SanitizedMethod = stampColumns(rec)
}

// PharmacyOrderModel is the persistence model for the PharmacyOrder entity.
type PharmacyOrderModel struct {
	ID              string     `gorm:"type:varchar(64);primary_key"`
	TenantID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	PrescriptionID  string     `gorm:"type:varchar(64);not null;index"`
	PatientID       string     `gorm:"type:varchar(64);not null;index"`
	Status          string     `gorm:"type:varchar(20);not null;index"`
	Quantity        int        `gorm:"not null"`
	Notes           string     `gorm:"type:text"`
	FilledBy        string     `gorm:"type:varchar(64)"`
	SanitizedAt     *time.Time ``
	SanitizedMethod string     `gorm:"type:varchar(50)"`
	UpdatedAt       time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PharmacyOrderModel) TableName() string {
	return "pharmacy_orders"
}

// ToDomain converts the persistence model to a domain record
func (m *PharmacyOrderModel) ToDomain() record.Record {
	rec := record.NewPharmacyOrderRecord(&record.PharmacyOrder{
		ID:             m.ID,
		TenantID:       m.TenantID,
		PrescriptionID: m.PrescriptionID,
		PatientID:      m.PatientID,
		Status:         record.OrderStatus(m.Status),
		Quantity:       m.Quantity,
		Notes:          m.Notes,
		FilledBy:       m.FilledBy,
		UpdatedAt:      m.UpdatedAt,
	})
	attachStamp(&rec, m.SanitizedAt, m.SanitizedMethod)
	return rec
}

// FromDomain populates the persistence model from a domain record
func (m *PharmacyOrderModel) FromDomain(rec record.Record) {
	o := rec.PharmacyOrder
	m.ID = o.ID
	m.TenantID = o.TenantID
	m.PrescriptionID = o.PrescriptionID
	m.PatientID = o.PatientID
	m.Status = string(o.Status)
	m.Quantity = o.Quantity
	m.Notes = o.Notes
	m.FilledBy = o.FilledBy
	m.UpdatedAt = o.UpdatedAt
	m.SanitizedAt, m.SanitizedMethod = stampColumns(rec)
}

func attachStamp(rec *record.Record, sanitizedAt *time.Time, method string) {
	if sanitizedAt == nil {
		return
	}
	rec.Sanitization = &record.SanitizationStamp{
		SanitizedAt: *sanitizedAt,
		Method:      method,
	}
}

func stampColumns(rec record.Record) (*time.Time, string) {
	if rec.Sanitization == nil {
		return nil, ""
	}
	at := rec.Sanitization.SanitizedAt
	return &at, rec.Sanitization.Method
}

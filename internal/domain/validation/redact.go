package validation

import (
	"regexp"
	"time"

	"github.com/pharmacy/backend/internal/domain/record"
)

// Placeholder tokens substituted for patterns resembling identifiers in
// clinical free text.
const (
	TokenRedactedID    = "[REDACTED-ID]"
	TokenRedactedPhone = "[REDACTED-PHONE]"
	TokenRedactedEmail = "[REDACTED-EMAIL]"
	TokenRedactedDate  = "[REDACTED-DATE]"
)

// SanitizationMethod tags the provenance stamp attached to sanitized copies
const SanitizationMethod = "pattern-redaction/v1"

var (
	emailPattern    = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
	nationalIDDash  = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	phonePattern    = regexp.MustCompile(`\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}`)
	isoDatePattern  = regexp.MustCompile(`\b\d{4}[-/]\d{1,2}[-/]\d{1,2}\b`)
	usDatePattern   = regexp.MustCompile(`\b\d{1,2}[-/]\d{1,2}[-/]\d{2,4}\b`)
	nationalIDPlain = regexp.MustCompile(`\b\d{9}\b`)
)

// RedactText replaces patterns resembling identifiers (national id numbers,
// phone numbers, email addresses, calendar dates) with fixed placeholder
// tokens. Evaluation order matters: dashed id numbers must be consumed
// before the date patterns can misread them.
func RedactText(s string) string {
	if s == "" {
		return s
	}
	s = emailPattern.ReplaceAllString(s, TokenRedactedEmail)
	s = nationalIDDash.ReplaceAllString(s, TokenRedactedID)
	s = phonePattern.ReplaceAllString(s, TokenRedactedPhone)
	s = isoDatePattern.ReplaceAllString(s, TokenRedactedDate)
	s = usDatePattern.ReplaceAllString(s, TokenRedactedDate)
	s = nationalIDPlain.ReplaceAllString(s, TokenRedactedID)
	return s
}

// SanitizeRecord redacts the free-text fields known to carry clinical
// narrative and attaches a provenance stamp recording when and how
// sanitization occurred. Inventory items carry no free text; they still
// receive the stamp.
func SanitizeRecord(rec *record.Record) {
	switch rec.Type {
	case record.TypePrescription:
		rec.Prescription.Instructions = RedactText(rec.Prescription.Instructions)
	case record.TypeMedication:
		rec.Medication.Notes = RedactText(rec.Medication.Notes)
	case record.TypePharmacyOrder:
		rec.PharmacyOrder.Notes = RedactText(rec.PharmacyOrder.Notes)
	case record.TypeInventoryItem:
	}
	rec.Sanitization = &record.SanitizationStamp{
		SanitizedAt: time.Now(),
		Method:      SanitizationMethod,
	}
}

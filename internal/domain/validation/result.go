package validation

import "github.com/pharmacy/backend/internal/domain/record"

// Result is the ephemeral outcome of validating a record. It is never
// persisted itself; the failure path produces a QuarantinedRecord.
type Result struct {
	// Valid is true when no error-severity rule failed
	Valid bool `json:"valid"`
	// Errors is the ordered list of blocking rule failures
	Errors []string `json:"errors"`
	// Warnings is the ordered list of non-blocking rule failures
	Warnings []string `json:"warnings"`
	// Sanitized is the redacted, coerced copy of the input record;
	// omitted when validation failed
	Sanitized *record.Record `json:"sanitized_data,omitempty"`
}

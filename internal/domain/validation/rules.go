package validation

import (
	"fmt"
	"strings"

	"github.com/pharmacy/backend/internal/domain/record"
	"github.com/shopspring/decimal"
)

// Severity controls whether a failed rule blocks validity
type Severity string

const (
	// SeverityError populates the error list and blocks validity
	SeverityError Severity = "error"
	// SeverityWarning populates the warning list without blocking
	SeverityWarning Severity = "warning"
)

// Kind identifies the rule evaluation behavior
type Kind string

const (
	KindRequired Kind = "required"
	KindRange    Kind = "range"
	KindEnum     Kind = "enum"
	KindCustom   Kind = "custom"
)

// Rule defines a single validation rule for a record field. Getters and
// setters are typed closures so that rule tables stay declarative while
// field access remains compile-checked against the concrete entity shapes.
type Rule struct {
	// Field is the canonical field name, e.g. "patient_id"
	Field string
	// Label is the human-readable field name used in messages
	Label string
	// Kind selects the evaluation behavior
	Kind Kind
	// Severity controls whether failure blocks validity
	Severity Severity
	// Min and Max bound range rules (inclusive)
	Min *decimal.Decimal
	// Max is the inclusive upper bound for range rules
	Max *decimal.Decimal
	// Allowed is the membership set for enum rules
	Allowed []string
	// Get extracts the field value from the record
	Get func(rec record.Record) any
	// Set writes the coerced numeric value into the sanitized copy; only
	// used by range rules
	Set func(rec *record.Record, v decimal.Decimal)
	// Check is the procedural check for custom rules; it returns a failure
	// message or empty string on success
	Check func(rec record.Record) string
}

// RuleSet is the ordered rule list for one record type
type RuleSet struct {
	RecordType record.Type
	Rules      []Rule
}

// evaluate runs one rule against the record, writing coerced values into the
// sanitized copy. It returns a failure message or empty string.
func (r Rule) evaluate(rec record.Record, sanitized *record.Record) string {
	switch r.Kind {
	case KindRequired:
		if isEmpty(r.Get(rec)) {
			return fmt.Sprintf("%s is required", r.Label)
		}
	case KindRange:
		v, err := coerceNumeric(r.Get(rec))
		if err != nil {
			return fmt.Sprintf("%s must be a number", r.Label)
		}
		if r.Min != nil && v.LessThan(*r.Min) {
			return fmt.Sprintf("%s must be at least %s", r.Label, r.Min.String())
		}
		if r.Max != nil && v.GreaterThan(*r.Max) {
			return fmt.Sprintf("%s must be at most %s", r.Label, r.Max.String())
		}
		if r.Set != nil {
			r.Set(sanitized, v)
		}
	case KindEnum:
		v := fmt.Sprintf("%v", r.Get(rec))
		for _, allowed := range r.Allowed {
			if v == allowed {
				return ""
			}
		}
		return fmt.Sprintf("%s must be one of: %s", r.Label, strings.Join(r.Allowed, ", "))
	case KindCustom:
		return r.Check(rec)
	}
	return ""
}

// isEmpty reports whether a required field value is missing
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case *string:
		return t == nil || strings.TrimSpace(*t) == ""
	}
	return false
}

// coerceNumeric converts a field value to a decimal for range checks.
// Non-numeric input is itself a validation failure.
func coerceNumeric(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(t))
	default:
		return decimal.Zero, fmt.Errorf("not a numeric value: %v", v)
	}
}

package models

import (
	"fmt"
	"slices"
	"strings"
)

// LogicOperator folds the booleans of a condition list.
type LogicOperator string

const (
	LogicAnd LogicOperator = "and"
	LogicOr  LogicOperator = "or"
)

// FieldType drives which operators a condition field accepts. It is stored
// on the condition when the author picked it explicitly and derived from the
// field name otherwise.
type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
	FieldTypeDate   FieldType = "date"
	FieldTypeCustom FieldType = "custom"
)

// Condition operators. The set offered depends on the field type.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpStartsWith  = "starts_with"
	OpIsEmpty     = "is_empty"
	OpIsNotEmpty  = "is_not_empty"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpBetween     = "between"
	OpBefore      = "before"
	OpAfter       = "after"
	OpDaysAgo     = "days_ago"
	OpDaysFromNow = "days_from_now"
)

// Condition is one row of a visual condition list.
type Condition struct {
	ID        string    `json:"id"`
	Field     string    `json:"field"    validate:"required"`
	Operator  string    `json:"operator" validate:"required"`
	Value     string    `json:"value"`
	FieldType FieldType `json:"field_type,omitempty"`
}

// Type returns the stored field type, deriving it from the field name when
// the author left it unset.
func (c Condition) Type() FieldType {
	if c.FieldType != "" {
		return c.FieldType
	}

	return FieldTypeFor(c.Field)
}

// OperatorsFor returns the operator set for a field type.
func OperatorsFor(ft FieldType) []string {
	switch ft {
	case FieldTypeNumber:
		return []string{OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpBetween}
	case FieldTypeDate:
		return []string{OpEquals, OpBefore, OpAfter, OpDaysAgo, OpDaysFromNow}
	default:
		return []string{OpEquals, OpNotEquals, OpContains, OpNotContains, OpStartsWith, OpIsEmpty, OpIsNotEmpty}
	}
}

var (
	dateFieldHints   = []string{"date", "_at", "birthday", "day"}
	numberFieldHints = []string{"balance", "amount", "count", "price", "total", "age", "number", "score"}
)

// FieldTypeFor derives a field type from the field name. The heuristics
// mirror what the authoring UI offers for untyped columns.
func FieldTypeFor(field string) FieldType {
	name := strings.ToLower(field)

	if strings.HasPrefix(name, "custom_") {
		return FieldTypeCustom
	}

	for _, hint := range dateFieldHints {
		if strings.HasSuffix(name, hint) {
			return FieldTypeDate
		}
	}

	// Number hints match whole underscore-separated segments only, so
	// "stage_id" or "language" never read as numeric.
	for _, segment := range strings.Split(name, "_") {
		if slices.Contains(numberFieldHints, segment) {
			return FieldTypeNumber
		}
	}

	return FieldTypeText
}

// PackBetween joins a numeric range into the comma-packed form the between
// operator stores as a single value.
func PackBetween(minVal, maxVal string) string {
	return minVal + "," + maxVal
}

// SplitBetween splits a comma-packed between value into its bounds. A missing
// bound is returned as an empty string; a value with no comma at all is
// malformed.
func SplitBetween(value string) (string, string, error) {
	idx := strings.Index(value, ",")
	if idx < 0 {
		return "", "", fmt.Errorf("between value %q is not a comma-packed pair", value)
	}

	return strings.TrimSpace(value[:idx]), strings.TrimSpace(value[idx+1:]), nil
}

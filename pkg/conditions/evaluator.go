// Package conditions evaluates visual condition lists and raw JSONLogic
// expressions against a record.
package conditions

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/relaycrm/relay/pkg/models"
)

// Evaluator evaluates conditions. The clock is injectable so date operators
// (days_ago, days_from_now) are testable.
type Evaluator struct {
	clock clockwork.Clock
}

// NewEvaluator creates an evaluator on the real clock.
func NewEvaluator() *Evaluator {
	return &Evaluator{clock: clockwork.NewRealClock()}
}

// NewEvaluatorWithClock creates an evaluator on the given clock.
func NewEvaluatorWithClock(clock clockwork.Clock) *Evaluator {
	return &Evaluator{clock: clock}
}

// EvaluateList folds a visual condition list with the given logic operator.
// An empty list evaluates to true.
func (e *Evaluator) EvaluateList(conds []models.Condition, logic models.LogicOperator, record map[string]any) (bool, error) {
	if len(conds) == 0 {
		return true, nil
	}

	for _, cond := range conds {
		ok, err := e.Evaluate(cond, record)
		if err != nil {
			return false, fmt.Errorf("condition %s: %w", cond.ID, err)
		}

		if logic == models.LogicOr {
			if ok {
				return true, nil
			}
		} else if !ok {
			return false, nil
		}
	}

	return logic != models.LogicOr, nil
}

// Evaluate evaluates a single condition against a record.
func (e *Evaluator) Evaluate(cond models.Condition, record map[string]any) (bool, error) {
	value, found := lookupField(record, cond.Field)

	// Emptiness operators are defined for missing fields.
	switch cond.Operator {
	case models.OpIsEmpty:
		return !found || toString(value) == "", nil
	case models.OpIsNotEmpty:
		return found && toString(value) != "", nil
	}

	if !found {
		return false, fmt.Errorf("field %q not present in record", cond.Field)
	}

	switch cond.Type() {
	case models.FieldTypeNumber:
		return e.evaluateNumber(cond, value)
	case models.FieldTypeDate:
		return e.evaluateDate(cond, value)
	default:
		return evaluateText(cond, value)
	}
}

func evaluateText(cond models.Condition, value any) (bool, error) {
	have := toString(value)
	want := cond.Value

	switch cond.Operator {
	case models.OpEquals:
		return have == want, nil
	case models.OpNotEquals:
		return have != want, nil
	case models.OpContains:
		return strings.Contains(have, want), nil
	case models.OpNotContains:
		return !strings.Contains(have, want), nil
	case models.OpStartsWith:
		return strings.HasPrefix(have, want), nil
	default:
		return false, fmt.Errorf("operator %q not valid for text field %q", cond.Operator, cond.Field)
	}
}

func (e *Evaluator) evaluateNumber(cond models.Condition, value any) (bool, error) {
	have, err := toNumber(value)
	if err != nil {
		return false, fmt.Errorf("field %q: %w", cond.Field, err)
	}

	if cond.Operator == models.OpBetween {
		return evaluateBetween(cond, have)
	}

	want, err := strconv.ParseFloat(strings.TrimSpace(cond.Value), 64)
	if err != nil {
		return false, fmt.Errorf("value %q is not numeric: %w", cond.Value, err)
	}

	switch cond.Operator {
	case models.OpEquals:
		return have == want, nil
	case models.OpNotEquals:
		return have != want, nil
	case models.OpGreaterThan:
		return have > want, nil
	case models.OpLessThan:
		return have < want, nil
	default:
		return false, fmt.Errorf("operator %q not valid for number field %q", cond.Operator, cond.Field)
	}
}

// evaluateBetween handles the comma-packed "min,max" range. A missing bound
// is treated as unbounded on that side.
func evaluateBetween(cond models.Condition, have float64) (bool, error) {
	minStr, maxStr, err := models.SplitBetween(cond.Value)
	if err != nil {
		return false, err
	}

	if minStr != "" {
		minVal, err := strconv.ParseFloat(minStr, 64)
		if err != nil {
			return false, fmt.Errorf("between lower bound %q is not numeric: %w", minStr, err)
		}

		if have < minVal {
			return false, nil
		}
	}

	if maxStr != "" {
		maxVal, err := strconv.ParseFloat(maxStr, 64)
		if err != nil {
			return false, fmt.Errorf("between upper bound %q is not numeric: %w", maxStr, err)
		}

		if have > maxVal {
			return false, nil
		}
	}

	return true, nil
}

func (e *Evaluator) evaluateDate(cond models.Condition, value any) (bool, error) {
	have, err := toTime(value)
	if err != nil {
		return false, fmt.Errorf("field %q: %w", cond.Field, err)
	}

	switch cond.Operator {
	case models.OpDaysAgo, models.OpDaysFromNow:
		days, err := strconv.Atoi(strings.TrimSpace(cond.Value))
		if err != nil {
			return false, fmt.Errorf("value %q is not a day count: %w", cond.Value, err)
		}

		if cond.Operator == models.OpDaysAgo {
			days = -days
		}

		target := e.clock.Now().UTC().AddDate(0, 0, days)

		return sameDay(have, target), nil
	}

	want, err := parseTime(cond.Value)
	if err != nil {
		return false, fmt.Errorf("value %q is not a date: %w", cond.Value, err)
	}

	switch cond.Operator {
	case models.OpEquals:
		return sameDay(have, want), nil
	case models.OpBefore:
		return have.Before(want), nil
	case models.OpAfter:
		return have.After(want), nil
	default:
		return false, fmt.Errorf("operator %q not valid for date field %q", cond.Operator, cond.Field)
	}
}

// lookupField resolves a possibly dotted field path in the record.
func lookupField(record map[string]any, field string) (any, bool) {
	if value, ok := record[field]; ok {
		return value, true
	}

	parts := strings.Split(field, ".")
	if len(parts) == 1 {
		return nil, false
	}

	current := any(record)

	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toNumber(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not numeric", v)
		}

		return parsed, nil
	default:
		return 0, fmt.Errorf("%T is not numeric", value)
	}
}

var dateLayouts = []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"}

func toTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		return parseTime(v)
	default:
		return time.Time{}, fmt.Errorf("%T is not a date", value)
	}
}

func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("%q does not match any supported date layout", value)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()

	return ay == by && am == bm && ad == bd
}

package conditions

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyJSONLogic evaluates a JSONLogic expression (as decoded JSON) against a
// data record. The supported operator subset covers what the visual editor
// compiles to: var, ==, !=, >, >=, <, <=, and, or, !, in.
func ApplyJSONLogic(rule any, data map[string]any) (any, error) {
	node, ok := rule.(map[string]any)
	if !ok {
		// Literals evaluate to themselves.
		return rule, nil
	}

	if len(node) != 1 {
		return nil, fmt.Errorf("jsonlogic rule must have exactly one operator, got %d", len(node))
	}

	for op, args := range node {
		return applyOperator(op, toArgs(args), data)
	}

	return nil, nil
}

// toArgs normalizes operator arguments: JSONLogic allows a bare argument as
// shorthand for a one-element array, e.g. {"var": "tier"} or {"!": rule}.
func toArgs(args any) []any {
	if list, ok := args.([]any); ok {
		return list
	}

	return []any{args}
}

func applyOperator(op string, args []any, data map[string]any) (any, error) {
	switch op {
	case "var":
		return applyVar(args, data)
	case "==", "!=":
		return applyEquality(op, args, data)
	case ">", ">=", "<", "<=":
		return applyComparison(op, args, data)
	case "and":
		return applyAnd(args, data)
	case "or":
		return applyOr(args, data)
	case "!":
		value, err := evalArg(args, 0, data)
		if err != nil {
			return nil, err
		}

		return !Truthy(value), nil
	case "in":
		return applyIn(args, data)
	default:
		return nil, fmt.Errorf("unsupported jsonlogic operator %q", op)
	}
}

func applyVar(args []any, data map[string]any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("var requires a path argument")
	}

	path, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("var path must be a string, got %T", args[0])
	}

	value, found := lookupField(data, path)
	if !found {
		if len(args) > 1 {
			return args[1], nil // Default value
		}

		return nil, fmt.Errorf("variable %q not present in record", path)
	}

	return value, nil
}

func applyEquality(op string, args []any, data map[string]any) (any, error) {
	left, err := evalArg(args, 0, data)
	if err != nil {
		return nil, err
	}

	right, err := evalArg(args, 1, data)
	if err != nil {
		return nil, err
	}

	equal := looseEqual(left, right)
	if op == "!=" {
		return !equal, nil
	}

	return equal, nil
}

func applyComparison(op string, args []any, data map[string]any) (any, error) {
	left, err := evalNumberArg(args, 0, data)
	if err != nil {
		return nil, err
	}

	right, err := evalNumberArg(args, 1, data)
	if err != nil {
		return nil, err
	}

	switch op {
	case ">":
		return left > right, nil
	case ">=":
		return left >= right, nil
	case "<":
		return left < right, nil
	default:
		return left <= right, nil
	}
}

func applyAnd(args []any, data map[string]any) (any, error) {
	var last any = true

	for i := range args {
		value, err := evalArg(args, i, data)
		if err != nil {
			return nil, err
		}

		if !Truthy(value) {
			return value, nil
		}

		last = value
	}

	return last, nil
}

func applyOr(args []any, data map[string]any) (any, error) {
	var last any = false

	for i := range args {
		value, err := evalArg(args, i, data)
		if err != nil {
			return nil, err
		}

		if Truthy(value) {
			return value, nil
		}

		last = value
	}

	return last, nil
}

func applyIn(args []any, data map[string]any) (any, error) {
	needle, err := evalArg(args, 0, data)
	if err != nil {
		return nil, err
	}

	haystack, err := evalArg(args, 1, data)
	if err != nil {
		return nil, err
	}

	switch h := haystack.(type) {
	case string:
		return strings.Contains(h, toString(needle)), nil
	case []any:
		for _, item := range h {
			if looseEqual(needle, item) {
				return true, nil
			}
		}

		return false, nil
	default:
		return nil, fmt.Errorf("in requires a string or array haystack, got %T", haystack)
	}
}

func evalArg(args []any, idx int, data map[string]any) (any, error) {
	if idx >= len(args) {
		return nil, fmt.Errorf("missing argument %d", idx)
	}

	return ApplyJSONLogic(args[idx], data)
}

func evalNumberArg(args []any, idx int, data map[string]any) (float64, error) {
	value, err := evalArg(args, idx, data)
	if err != nil {
		return 0, err
	}

	return toNumber(value)
}

// Truthy follows JSONLogic truthiness: empty strings, zero numbers, nil and
// empty arrays are false.
func Truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case []any:
		return len(v) > 0
	case nil:
		return false
	default:
		return true
	}
}

// looseEqual compares with numeric coercion, mirroring JSONLogic "==".
func looseEqual(a, b any) bool {
	if an, err := toNumber(a); err == nil {
		if bn, err := toNumber(b); err == nil {
			return an == bn
		}
	}

	if ab, ok := a.(bool); ok {
		return ab == Truthy(b)
	}

	if bb, ok := b.(bool); ok {
		return Truthy(a) == bb
	}

	return toString(a) == toString(b)
}

// ParseBoolOutput normalizes a configured "true"/"false" branch name.
func ParseBoolOutput(value string) (bool, error) {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("fallback output %q is not a boolean: %w", value, err)
	}

	return parsed, nil
}

// internal/rules/operators.go
package rules

/*
 * Operator comparison logic.
 *
 * Five operators with type-aware comparison:
 *   - >, <, >=, <=: numeric when both sides are numbers, lexicographic when
 *     both are strings, false when the types differ
 *   - ==: numeric equality for numbers, exact equality for strings, false
 *     when the types differ
 *
 * Numeric comparison handles float64/int/int64 mixing so programmatically
 * built conditions behave like parsed ones. Unknown operators compare false.
 */

// Compare applies op to value (the resolved field) and target (the literal).
func Compare(op CompareOp, value, target any) bool {
	switch op {
	case OpEq:
		return compareEqual(value, target)
	case OpLt:
		c, ok := compareOrdered(value, target)
		return ok && c < 0
	case OpLte:
		c, ok := compareOrdered(value, target)
		return ok && c <= 0
	case OpGt:
		c, ok := compareOrdered(value, target)
		return ok && c > 0
	case OpGte:
		c, ok := compareOrdered(value, target)
		return ok && c >= 0
	default:
		return false
	}
}

// compareEqual is strict equality: same kind of value and equal.
func compareEqual(a, b any) bool {
	if na, nb, ok := asNumbers(a, b); ok {
		return na == nb
	}
	if sa, sb, ok := asStrings(a, b); ok {
		return sa == sb
	}
	return false
}

// compareOrdered performs three-way comparison (-1/0/1).
// ok is false for mismatched or unordered types, and for NaN operands.
func compareOrdered(a, b any) (int, bool) {
	if na, nb, ok := asNumbers(a, b); ok {
		switch {
		case na < nb:
			return -1, true
		case na > nb:
			return 1, true
		case na == nb:
			return 0, true
		default:
			return 0, false
		}
	}
	if sa, sb, ok := asStrings(a, b); ok {
		switch {
		case sa < sb:
			return -1, true
		case sa > sb:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

// asNumbers converts both values to float64 when both are numeric.
func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := toFloat64(a)
	nb, okb := toFloat64(b)
	return na, nb, oka && okb
}

func asStrings(a, b any) (string, string, bool) {
	sa, oka := a.(string)
	sb, okb := b.(string)
	return sa, sb, oka && okb
}

// toFloat64 converts value to float64 if it's a numeric type.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// internal/rules/evaluate.go
package rules

/*
 * Rule evaluation.
 *
 * Walks a parsed Rule against a caller-supplied context and produces a
 * discount decision.
 *
 * Evaluation flow:
 *   1. Root check: anything but a *Rule is an EvaluationError
 *   2. Condition gate: a false condition yields an unapplied, zero result
 *   3. Action dispatch: PERCENT of total, MINUS flat amount, FREE_SHIP
 *      waives shipping; unknown actions yield an unapplied result
 *
 * Unmet conditions and unknown actions are business outcomes, not errors.
 * No rounding is applied; callers format currency for display.
 *
 * BinaryOp sides are both evaluated before combining. Both are pure, so
 * short-circuiting would not change the result.
 */

// EvalContext holds the read-only values a rule is checked against.
// Zero values of the optional fields match their defaults.
type EvalContext struct {
	Total    float64 `json:"total"`
	Category string  `json:"category,omitempty"`
	Quantity float64 `json:"quantity,omitempty"`
	Shipping float64 `json:"shipping,omitempty"`
}

// EvalResult is the outcome of applying a rule to a context.
// Discount is in the same currency unit as Total and Shipping.
type EvalResult struct {
	Applied      bool    `json:"applied"`
	Discount     float64 `json:"discount"`
	FreeShipping bool    `json:"freeShipping"`
	Message      string  `json:"message"`
}

const (
	msgConditionNotMet = "condition not met"
	msgUnknownAction   = "unknown action"
	msgFreeShipping    = "free shipping"
)

// Evaluate applies the rule rooted at node to ctx.
func Evaluate(node Node, ctx EvalContext) (EvalResult, error) {
	rule, ok := node.(*Rule)
	if !ok || rule == nil {
		return EvalResult{}, &EvaluationError{Node: node}
	}

	if rule.Condition != nil && !evalCondition(rule.Condition, ctx) {
		return EvalResult{Message: msgConditionNotMet}, nil
	}

	switch rule.Action {
	case ActionPercent:
		return EvalResult{
			Applied:  true,
			Discount: ctx.Total * (rule.Value / 100),
			Message:  formatNumber(rule.Value) + "% off",
		}, nil
	case ActionMinus:
		// Flat amount; may exceed the total.
		return EvalResult{
			Applied:  true,
			Discount: rule.Value,
			Message:  "minus " + formatNumber(rule.Value),
		}, nil
	case ActionFreeShip:
		return EvalResult{
			Applied:      true,
			Discount:     ctx.Shipping,
			FreeShipping: true,
			Message:      msgFreeShipping,
		}, nil
	default:
		return EvalResult{Message: msgUnknownAction}, nil
	}
}

// evalCondition reduces a condition subtree to a boolean.
// Unknown node kinds and nil nodes are false.
func evalCondition(node Node, ctx EvalContext) bool {
	switch n := node.(type) {
	case *BinaryOp:
		if n == nil {
			return false
		}
		left := evalCondition(n.Left, ctx)
		right := evalCondition(n.Right, ctx)
		switch n.Operator {
		case OpAnd:
			return left && right
		case OpOr:
			return left || right
		default:
			return false
		}
	case *Condition:
		if n == nil {
			return false
		}
		return Compare(n.Operator, resolveField(n.Field, ctx), n.Literal)
	default:
		return false
	}
}

// resolveField maps a field to its context value.
// TOTAL and QUANTITY are numeric, CATEGORY is text. Unknown fields read as 0.
func resolveField(field FieldKind, ctx EvalContext) any {
	switch field {
	case FieldTotal:
		return ctx.Total
	case FieldCategory:
		return ctx.Category
	case FieldQuantity:
		return ctx.Quantity
	default:
		return float64(0)
	}
}

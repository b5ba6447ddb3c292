// internal/rules/ast.go
package rules

import (
	"fmt"
	"strconv"
)

/*
 * Abstract syntax tree for one promotion rule.
 *
 * Node is a sealed tagged union: *Rule (the only valid root), *Condition (a
 * leaf predicate), *BinaryOp (AND/OR over two conditions) and *Value
 * (reserved). Nodes are immutable once built.
 *
 * BinaryOp is evaluated but the grammar has no production that builds it;
 * chained conditions are reachable only through programmatic construction.
 *
 * String() renders a node back to rule syntax so a parsed rule can be shown
 * to operators and re-parsed to an equal tree.
 */

// Node is implemented by every AST variant.
type Node interface {
	fmt.Stringer
	node()
}

// ActionKind names the discount action of a rule.
// Any token kind label may appear; the evaluator reports unknown ones.
type ActionKind string

const (
	ActionPercent  ActionKind = "PERCENT"
	ActionMinus    ActionKind = "MINUS"
	ActionFreeShip ActionKind = "FREE_SHIP"
)

// FieldKind names the context field a condition reads.
type FieldKind string

const (
	FieldTotal    FieldKind = "TOTAL"
	FieldCategory FieldKind = "CATEGORY"
	FieldQuantity FieldKind = "QUANTITY"
)

// CompareOp is the comparison operator of a condition, in source form.
type CompareOp string

const (
	OpGt  CompareOp = ">"
	OpLt  CompareOp = "<"
	OpGte CompareOp = ">="
	OpLte CompareOp = "<="
	OpEq  CompareOp = "=="
)

// LogicalOp combines two conditions.
type LogicalOp string

const (
	OpAnd LogicalOp = "AND"
	OpOr  LogicalOp = "OR"
)

// Rule pairs an action with an optional condition.
type Rule struct {
	Action    ActionKind
	Value     float64 // 0 for FREE_SHIP
	Condition Node    // nil when unconditional
}

// Condition is a single comparison over a context field.
type Condition struct {
	Field    FieldKind
	Operator CompareOp
	Literal  any // float64 or string
}

// BinaryOp combines two conditions with AND or OR.
type BinaryOp struct {
	Operator LogicalOp
	Left     Node
	Right    Node
}

// Value is reserved for literal operands; the current grammar never builds it.
type Value struct {
	Literal any
}

func (*Rule) node()      {}
func (*Condition) node() {}
func (*BinaryOp) node()  {}
func (*Value) node()     {}

func (r *Rule) String() string {
	if r == nil {
		return "<nil>"
	}
	s := string(r.Action)
	if r.Action != ActionFreeShip {
		s += " " + formatNumber(r.Value)
	}
	if r.Condition != nil {
		s += " IF " + nodeString(r.Condition)
	}
	return s
}

func (c *Condition) String() string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s %s", c.Field, c.Operator, formatLiteral(c.Literal))
}

func (b *BinaryOp) String() string {
	if b == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s %s", nodeString(b.Left), b.Operator, nodeString(b.Right))
}

func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	return formatLiteral(v.Literal)
}

func nodeString(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatLiteral(v any) string {
	switch lit := v.(type) {
	case string:
		return `"` + lit + `"`
	case float64:
		return formatNumber(lit)
	default:
		return fmt.Sprintf("%v", lit)
	}
}

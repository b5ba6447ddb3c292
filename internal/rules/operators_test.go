package rules

import (
	"math"
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name   string
		op     CompareOp
		value  any
		target any
		want   bool
	}{
		{name: "gt numeric true", op: OpGt, value: 250.0, target: 200.0, want: true},
		{name: "gt numeric equal", op: OpGt, value: 200.0, target: 200.0, want: false},
		{name: "gte numeric equal", op: OpGte, value: 200.0, target: 200.0, want: true},
		{name: "lt numeric", op: OpLt, value: 1.0, target: 2.0, want: true},
		{name: "lte numeric", op: OpLte, value: 3.0, target: 2.0, want: false},
		{name: "eq numeric", op: OpEq, value: 5.0, target: 5.0, want: true},
		{name: "eq int and float", op: OpEq, value: 5, target: 5.0, want: true},
		{name: "gt int64 and float", op: OpGt, value: int64(6), target: 5.0, want: true},
		{name: "eq strings", op: OpEq, value: "Food", target: "Food", want: true},
		{name: "eq strings differ", op: OpEq, value: "Food", target: "Toys", want: false},
		{name: "lt strings lexicographic", op: OpLt, value: "Apple", target: "Banana", want: true},
		{name: "gte strings equal", op: OpGte, value: "Food", target: "Food", want: true},
		{name: "gt mismatched", op: OpGt, value: 100.0, target: "50", want: false},
		{name: "lte mismatched", op: OpLte, value: 0.0, target: "", want: false},
		{name: "gte mismatched", op: OpGte, value: "", target: 0.0, want: false},
		{name: "eq mismatched", op: OpEq, value: "5", target: 5.0, want: false},
		{name: "eq uncomparable target", op: OpEq, value: "x", target: []any{"x"}, want: false},
		{name: "nan is unordered", op: OpGte, value: math.NaN(), target: 1.0, want: false},
		{name: "nan lte is unordered", op: OpLte, value: 1.0, target: math.NaN(), want: false},
		{name: "nan is not equal", op: OpEq, value: math.NaN(), target: math.NaN(), want: false},
		{name: "unknown operator", op: "!=", value: 1.0, target: 2.0, want: false},
		{name: "empty operator", op: "", value: 1.0, target: 1.0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.op, tt.value, tt.target); got != tt.want {
				t.Errorf("Compare(%q, %v, %v) = %v, want %v", tt.op, tt.value, tt.target, got, tt.want)
			}
		})
	}
}

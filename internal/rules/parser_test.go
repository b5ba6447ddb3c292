package rules

import (
	"errors"
	"reflect"
	"testing"

	"github.com/solatis/promokeeper/internal/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *Rule
	}{
		{
			name:  "percent with condition",
			input: "PERCENT 10 IF TOTAL > 200",
			want: &Rule{
				Action:    ActionPercent,
				Value:     10,
				Condition: &Condition{Field: FieldTotal, Operator: OpGt, Literal: 200.0},
			},
		},
		{
			name:  "minus with string literal",
			input: `MINUS 30 IF CATEGORY == "Food"`,
			want: &Rule{
				Action:    ActionMinus,
				Value:     30,
				Condition: &Condition{Field: FieldCategory, Operator: OpEq, Literal: "Food"},
			},
		},
		{
			name:  "free ship has no value",
			input: "FREE_SHIP IF TOTAL > 300",
			want: &Rule{
				Action:    ActionFreeShip,
				Condition: &Condition{Field: FieldTotal, Operator: OpGt, Literal: 300.0},
			},
		},
		{
			name:  "unconditional",
			input: "MINUS 5",
			want:  &Rule{Action: ActionMinus, Value: 5},
		},
		{
			name:  "trailing tokens ignored",
			input: "PERCENT 10 TOTAL > 5",
			want:  &Rule{Action: ActionPercent, Value: 10},
		},
		{
			name:  "free ship ignores a following number",
			input: "FREE_SHIP 5 IF TOTAL > 1",
			want:  &Rule{Action: ActionFreeShip},
		},
		{
			name:  "action is not validated",
			input: "IF 10",
			want:  &Rule{Action: "IF", Value: 10},
		},
		{
			name:  "condition tokens are not kind-checked",
			input: "PERCENT 10 IF 5 5 5",
			want: &Rule{
				Action:    ActionPercent,
				Value:     10,
				Condition: &Condition{Field: "NUMBER", Operator: "NUMBER", Literal: 5.0},
			},
		},
		{
			name:  "string token supplies operator text",
			input: `PERCENT 10 IF TOTAL ">" 5`,
			want: &Rule{
				Action:    ActionPercent,
				Value:     10,
				Condition: &Condition{Field: FieldTotal, Operator: OpGt, Literal: 5.0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(Tokenize(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v, want nil", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "percent missing number", input: "PERCENT IF TOTAL > 200", wantErr: types.ErrUnexpectedToken},
		{name: "minus missing number", input: "MINUS", wantErr: types.ErrUnexpectedEOF},
		{name: "empty rule", input: "", wantErr: types.ErrUnexpectedEOF},
		{name: "garbage only", input: "hello world!", wantErr: types.ErrUnexpectedEOF},
		{name: "stray character drops operator", input: "PERCENT 10 IF TOTAL @ 200", wantErr: types.ErrUnexpectedEOF},
		{name: "condition missing field", input: "PERCENT 10 IF", wantErr: types.ErrUnexpectedEOF},
		{name: "condition missing literal", input: "PERCENT 10 IF TOTAL >", wantErr: types.ErrUnexpectedEOF},
		{name: "number given as string", input: `PERCENT "10"`, wantErr: types.ErrUnexpectedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(Tokenize(tt.input))
			if err == nil {
				t.Fatalf("Parse(%q) error = nil, want %v", tt.input, tt.wantErr)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Parse(%q) error = %T, want *ParseError", tt.input, err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestParse_ErrorMessage(t *testing.T) {
	_, err := Parse(Tokenize("PERCENT IF TOTAL > 200"))
	if err == nil {
		t.Fatal("Parse() error = nil, want error")
	}
	want := "parse error at token 1: expected NUMBER, got IF"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestParse_MissingEOF(t *testing.T) {
	tokens := []Token{
		{Kind: TokenPercent, Value: "PERCENT"},
		{Kind: TokenNumber, Value: 15.0},
	}
	rule, err := Parse(tokens)
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if rule.Value != 15 || rule.Condition != nil {
		t.Errorf("Parse() = %v, want PERCENT 15", rule)
	}

	if _, err := Parse(nil); !errors.Is(err, types.ErrUnexpectedEOF) {
		t.Errorf("Parse(nil) error = %v, want ErrUnexpectedEOF", err)
	}
}

func TestRule_String(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "percent 10 if total > 200", want: "PERCENT 10 IF TOTAL > 200"},
		{input: `MINUS 30 IF CATEGORY == "Food"`, want: `MINUS 30 IF CATEGORY == "Food"`},
		{input: "FREE_SHIP IF QUANTITY >= 3", want: "FREE_SHIP IF QUANTITY >= 3"},
		{input: "MINUS 12.5", want: "MINUS 12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			rule, err := Compile(tt.input)
			if err != nil {
				t.Fatalf("Compile() error = %v, want nil", err)
			}
			if got := rule.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestString_NilNodes(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{name: "nil condition in rule", node: &Rule{Action: ActionPercent, Value: 10, Condition: (*Condition)(nil)}, want: "PERCENT 10 IF <nil>"},
		{name: "nil rule", node: (*Rule)(nil), want: "<nil>"},
		{name: "nil binary op", node: (*BinaryOp)(nil), want: "<nil>"},
		{name: "nil value", node: (*Value)(nil), want: "<nil>"},
		{name: "nil operand", node: &BinaryOp{Operator: OpAnd, Left: (*Condition)(nil), Right: nil}, want: "<nil> AND <nil>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBinaryOp_String(t *testing.T) {
	node := &BinaryOp{
		Operator: OpOr,
		Left:     &Condition{Field: FieldTotal, Operator: OpGt, Literal: 100.0},
		Right:    &Condition{Field: FieldCategory, Operator: OpEq, Literal: "Food"},
	}
	want := `TOTAL > 100 OR CATEGORY == "Food"`
	if got := node.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

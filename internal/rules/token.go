// internal/rules/token.go
package rules

import "fmt"

// TokenKind classifies a lexical unit of the rule language.
// The set is closed; the lexer never produces a kind outside it.
type TokenKind int

const (
	TokenEOF TokenKind = iota

	// actions
	TokenPercent
	TokenMinus
	TokenFreeShip

	// control and connectives
	TokenIf
	TokenAnd
	TokenOr

	// fields
	TokenTotal
	TokenCategory
	TokenQuantity

	// comparison operators
	TokenGT
	TokenLT
	TokenGTE
	TokenLTE
	TokenEQ

	// literals
	TokenNumber
	TokenString
)

var tokenNames = map[TokenKind]string{
	TokenEOF:      "EOF",
	TokenPercent:  "PERCENT",
	TokenMinus:    "MINUS",
	TokenFreeShip: "FREE_SHIP",
	TokenIf:       "IF",
	TokenAnd:      "AND",
	TokenOr:       "OR",
	TokenTotal:    "TOTAL",
	TokenCategory: "CATEGORY",
	TokenQuantity: "QUANTITY",
	TokenGT:       "GT",
	TokenLT:       "LT",
	TokenGTE:      "GTE",
	TokenLTE:      "LTE",
	TokenEQ:       "EQ",
	TokenNumber:   "NUMBER",
	TokenString:   "STRING",
}

// keywords maps upper-cased words to their token kinds.
var keywords = map[string]TokenKind{
	"PERCENT":   TokenPercent,
	"MINUS":     TokenMinus,
	"FREE_SHIP": TokenFreeShip,
	"IF":        TokenIf,
	"AND":       TokenAnd,
	"OR":        TokenOr,
	"TOTAL":     TokenTotal,
	"CATEGORY":  TokenCategory,
	"QUANTITY":  TokenQuantity,
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is a classified lexical unit.
// Value holds float64 for NUMBER, the literal text for STRING, the source word
// for keywords, the operator text for operators and "" for EOF.
type Token struct {
	Kind  TokenKind
	Value any
}

func (t Token) String() string {
	switch t.Kind {
	case TokenEOF:
		return "EOF"
	case TokenNumber, TokenString:
		return fmt.Sprintf("%s(%v)", t.Kind, t.Value)
	default:
		return t.Kind.String()
	}
}

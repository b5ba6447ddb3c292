// internal/rules/parser.go
package rules

/*
 * Recursive-descent parser for one promotion rule.
 *
 * Grammar:
 *   Rule      := Action [NUMBER] [ 'IF' Condition ]
 *   Action    := 'PERCENT' | 'MINUS' | 'FREE_SHIP'
 *   Condition := Field Operator Literal
 *
 * One cursor, no backtracking. The first token is taken as the action label
 * without checking it against the action keywords; the evaluator reports
 * unknown actions as an unapplied result. Every action except FREE_SHIP
 * requires a NUMBER. The condition triplet is consumed by position with no
 * kind checks, but running into EOF inside it is an error.
 *
 * Tokens after a complete rule are ignored. The parser never builds a
 * BinaryOp, so AND/OR chains are not expressible in rule syntax.
 */

// Parse builds a Rule from tokens produced by Tokenize.
// A slice without a trailing EOF behaves as if it had one.
func Parse(tokens []Token) (*Rule, error) {
	p := &parser{tokens: tokens}
	return p.parseRule()
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) parseRule() (*Rule, error) {
	actionTok := p.advance()
	rule := &Rule{Action: ActionKind(actionTok.Kind.String())}

	if rule.Action != ActionFreeShip {
		valueTok, err := p.expect(TokenNumber)
		if err != nil {
			return nil, err
		}
		rule.Value, _ = valueTok.Value.(float64)
	}

	if p.peek().Kind == TokenIf {
		p.advance()
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		rule.Condition = cond
	}

	return rule, nil
}

func (p *parser) parseCondition() (*Condition, error) {
	fieldTok, err := p.require("field")
	if err != nil {
		return nil, err
	}
	opTok, err := p.require("operator")
	if err != nil {
		return nil, err
	}
	litTok, err := p.require("literal")
	if err != nil {
		return nil, err
	}

	return &Condition{
		Field:    FieldKind(fieldTok.Kind.String()),
		Operator: operatorOf(opTok),
		Literal:  litTok.Value,
	}, nil
}

// operatorOf reads the operator from the token's source text.
// Tokens carrying non-text values yield their kind label, which no
// comparison recognizes.
func operatorOf(tok Token) CompareOp {
	if s, ok := tok.Value.(string); ok {
		return CompareOp(s)
	}
	return CompareOp(tok.Kind.String())
}

func (p *parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Kind: TokenEOF, Value: ""}
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the next token if it has the given kind.
func (p *parser) expect(kind TokenKind) (Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return tok, &ParseError{Pos: p.pos, Expected: kind.String(), Found: tok}
	}
	return p.advance(), nil
}

// require consumes the next token of any kind except EOF.
func (p *parser) require(what string) (Token, error) {
	tok := p.peek()
	if tok.Kind == TokenEOF {
		return tok, &ParseError{Pos: p.pos, Expected: what, Found: tok}
	}
	return p.advance(), nil
}

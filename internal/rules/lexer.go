// internal/rules/lexer.go
package rules

import (
	"strconv"
	"strings"
	"unicode"
)

/*
 * Lexer for the promotion rule language.
 *
 * Converts a rule string such as `PERCENT 10 IF TOTAL > 200` into an ordered
 * token slice terminated by a single EOF token.
 *
 * Skip-and-continue policy: the lexer has no error channel. Unrecognized
 * words, stray characters and a lone '=' produce no token and scanning
 * resumes after them. Malformed input therefore shrinks the token stream and
 * surfaces later as a ParseError. A fail-fast lexer would change observable
 * behavior; keep this policy unless the rule syntax itself changes.
 *
 * Scanning works on runes so multi-byte text inside string literals
 * survives unchanged. Digits and word characters are ASCII only.
 */

// Tokenize converts input into tokens. Never fails.
func Tokenize(input string) []Token {
	l := &lexer{input: []rune(strings.TrimSpace(input))}
	return l.run()
}

type lexer struct {
	input []rune
	pos   int
}

func (l *lexer) run() []Token {
	var tokens []Token

	for {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			break
		}
		if tok, ok := l.next(); ok {
			tokens = append(tokens, tok)
		}
	}

	return append(tokens, Token{Kind: TokenEOF, Value: ""})
}

// next scans one lexeme starting at the current position.
// Returns ok=false when the lexeme is skipped under the lenient policy.
func (l *lexer) next() (Token, bool) {
	ch := l.input[l.pos]

	switch {
	case isDigit(ch):
		return l.readNumber(), true
	case ch == '"':
		return l.readString(), true
	case ch == '>':
		l.pos++
		if l.peek() == '=' {
			l.pos++
			return Token{Kind: TokenGTE, Value: ">="}, true
		}
		return Token{Kind: TokenGT, Value: ">"}, true
	case ch == '<':
		l.pos++
		if l.peek() == '=' {
			l.pos++
			return Token{Kind: TokenLTE, Value: "<="}, true
		}
		return Token{Kind: TokenLT, Value: "<"}, true
	case ch == '=':
		l.pos++
		if l.peek() == '=' {
			l.pos++
			return Token{Kind: TokenEQ, Value: "=="}, true
		}
		// lone '=' is not an operator
		return Token{}, false
	case isWordChar(ch):
		word := l.readWord()
		if kind, ok := keywords[strings.ToUpper(word)]; ok {
			return Token{Kind: kind, Value: word}, true
		}
		return Token{}, false
	default:
		l.pos++
		return Token{}, false
	}
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(l.input[l.pos]) {
		l.pos++
	}
}

// readNumber consumes digits and at most one '.'.
func (l *lexer) readNumber() Token {
	start := l.pos
	seenDot := false
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '.' && !seenDot {
			seenDot = true
		} else if !isDigit(ch) {
			break
		}
		l.pos++
	}
	// Out-of-range literals saturate to ±Inf; the digits themselves always parse.
	v, _ := strconv.ParseFloat(string(l.input[start:l.pos]), 64)
	return Token{Kind: TokenNumber, Value: v}
}

// readString consumes a double-quoted literal verbatim, without escapes.
// An unterminated literal runs to end of input.
func (l *lexer) readString() Token {
	l.pos++ // opening quote
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '"' {
		l.pos++
	}
	value := string(l.input[start:l.pos])
	if l.pos < len(l.input) {
		l.pos++ // closing quote
	}
	return Token{Kind: TokenString, Value: value}
}

func (l *lexer) readWord() string {
	start := l.pos
	for l.pos < len(l.input) && isWordChar(l.input[l.pos]) {
		l.pos++
	}
	return string(l.input[start:l.pos])
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isWordChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

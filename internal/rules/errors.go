// internal/rules/errors.go
package rules

import (
	"fmt"

	"github.com/solatis/promokeeper/internal/types"
)

// ParseError reports a missing or mismatched token.
// Unwraps to types.ErrUnexpectedEOF when the rule ended early,
// types.ErrUnexpectedToken otherwise.
type ParseError struct {
	Pos      int    // index into the token slice
	Expected string // what the parser required
	Found    Token  // what it saw
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at token %d: expected %s, got %s", e.Pos, e.Expected, e.Found)
}

func (e *ParseError) Unwrap() error {
	if e.Found.Kind == TokenEOF {
		return types.ErrUnexpectedEOF
	}
	return types.ErrUnexpectedToken
}

// EvaluationError reports an AST the evaluator cannot run.
// Unreachable through Parse; guards programmatically built trees.
type EvaluationError struct {
	Node Node
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation error: %v (got %T)", types.ErrRootNotRule, e.Node)
}

func (e *EvaluationError) Unwrap() error {
	return types.ErrRootNotRule
}

package rules

import (
	"log/slog"
)

// Engine runs the lex -> parse -> evaluate pipeline for the service layer.
// Stateless apart from its logger; safe for concurrent use. Every call
// re-lexes and re-parses its source, nothing is cached.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a rules engine. A nil logger discards pipeline logs.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{logger: logger.With("component", "rules")}
}

// Compile tokenizes and parses source into a Rule.
func Compile(source string) (*Rule, error) {
	return Parse(Tokenize(source))
}

// Compile tokenizes and parses source, logging the token stream and AST.
func (e *Engine) Compile(source string) (*Rule, error) {
	tokens := Tokenize(source)
	e.logger.Debug("rule tokenized", "rule", source, "tokens", tokens)

	rule, err := Parse(tokens)
	if err != nil {
		e.logger.Debug("rule rejected", "rule", source, "error", err)
		return nil, err
	}
	e.logger.Debug("rule parsed", "ast", rule.String())
	return rule, nil
}

// Apply compiles source and evaluates it against ctx.
// Returns *ParseError or *EvaluationError on failure; callers treat both as
// "rule not applicable".
func (e *Engine) Apply(source string, ctx EvalContext) (EvalResult, error) {
	rule, err := e.Compile(source)
	if err != nil {
		return EvalResult{}, err
	}

	result, err := Evaluate(rule, ctx)
	if err != nil {
		return EvalResult{}, err
	}

	e.logger.Debug("rule evaluated",
		"rule", source,
		"applied", result.Applied,
		"discount", result.Discount,
		"free_shipping", result.FreeShipping,
		"message", result.Message,
	)
	return result, nil
}

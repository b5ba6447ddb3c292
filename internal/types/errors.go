package types

import "errors"

// Sentinel errors for PromoKeeper operations.
var (
	// ErrUnexpectedToken indicates the parser found a token of the wrong kind.
	ErrUnexpectedToken = errors.New("unexpected token")

	// ErrUnexpectedEOF indicates the rule ended where a token was required.
	ErrUnexpectedEOF = errors.New("unexpected end of rule")

	// ErrRootNotRule indicates an AST handed to the evaluator is not rooted at a Rule.
	ErrRootNotRule = errors.New("root node must be a Rule")

	// ErrCouponNotFound indicates no active coupon exists for a code.
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrCouponExists indicates the storefront already has a coupon with that code.
	ErrCouponExists = errors.New("coupon code already exists")

	// ErrInvalidCouponCode indicates an empty or oversized coupon code.
	ErrInvalidCouponCode = errors.New("invalid coupon code")

	// ErrRuleTooLong indicates a rule string exceeds MaxRuleLength.
	ErrRuleTooLong = errors.New("rule exceeds maximum length")

	// ErrNegativeAmount indicates a negative total, shipping or quantity in a context.
	ErrNegativeAmount = errors.New("amounts must not be negative")
)

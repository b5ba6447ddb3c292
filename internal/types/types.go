// Package types provides domain models shared across PromoKeeper components.
//
// Kept free of transport and storage dependencies so the rule engine, the
// database layer and the gRPC API can share them without import cycles.
// ID utilities in ids.go import uuid.
package types

import "time"

// CouponID represents a UUIDv7 coupon identifier.
type CouponID string

// EvaluationID represents a UUIDv7 evaluation record identifier.
type EvaluationID string

// StorefrontID identifies the storefront (tenant) that owns coupons and API keys.
type StorefrontID string

// CouponState is the lifecycle state of a catalog coupon.
type CouponState string

const (
	CouponActive   CouponState = "active"
	CouponDisabled CouponState = "disabled"
)

// Coupon binds a coupon code to a rule string.
// RuleSource is stored verbatim and re-parsed on every evaluation.
type Coupon struct {
	CouponID     CouponID     `db:"coupon_id" json:"couponId"`
	StorefrontID StorefrontID `db:"storefront_id" json:"storefrontId"`
	Code         string       `db:"code" json:"code"`
	RuleSource   string       `db:"rule_source" json:"rule"`
	Description  string       `db:"description" json:"description"`
	State        CouponState  `db:"state" json:"state"`
	CreatedAt    string       `db:"created_at" json:"createdAt"`
}

// Evaluation is the audit record of one coupon evaluation.
type Evaluation struct {
	EvaluationID EvaluationID `json:"evaluationId"`
	StorefrontID StorefrontID `json:"storefrontId"`
	CouponCode   string       `json:"code"`
	RuleSource   string       `json:"rule"`
	Total        float64      `json:"total"`
	Category     string       `json:"category,omitempty"`
	Quantity     float64      `json:"quantity,omitempty"`
	Shipping     float64      `json:"shipping,omitempty"`
	Applied      bool         `json:"applied"`
	Discount     float64      `json:"discount"`
	FreeShipping bool         `json:"freeShipping"`
	Message      string       `json:"message"`
	Error        string       `json:"error,omitempty"`
	EvaluatedAt  time.Time    `json:"evaluatedAt"`
}

// Limits enforced by the service layer.
const (
	// MaxRuleLength bounds stored and evaluated rule strings.
	MaxRuleLength = 512

	// MaxCouponCodeLength bounds coupon codes.
	MaxCouponCodeLength = 64

	// MaxDescriptionLength bounds coupon descriptions.
	MaxDescriptionLength = 256
)

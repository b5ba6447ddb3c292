package api

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/promokeeper/internal/rules"
	"github.com/solatis/promokeeper/internal/types"
)

// Request field names.
const (
	fieldRule        = "rule"
	fieldCode        = "code"
	fieldContext     = "context"
	fieldDescription = "description"
	fieldIfNoneMatch = "ifNoneMatch"

	fieldTotal    = "total"
	fieldCategory = "category"
	fieldQuantity = "quantity"
	fieldShipping = "shipping"
)

// stringField returns a string field, "" when absent.
func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return "", nil
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return str.StringValue, nil
}

// numberField returns a finite, non-negative number field and whether it was present.
func numberField(s *structpb.Struct, name string) (float64, bool, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, false, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return 0, false, nil
	}
	num, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false, fmt.Errorf("%s must be a number", name)
	}
	f := num.NumberValue
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("%s must be finite", name)
	}
	if f < 0 {
		return 0, false, fmt.Errorf("%w: %s", types.ErrNegativeAmount, name)
	}
	return f, true, nil
}

// decodeEvalContext reads the "context" object of a request.
// A missing shipping value falls back to defaultShipping.
func decodeEvalContext(req *structpb.Struct, defaultShipping float64) (rules.EvalContext, error) {
	v, ok := req.GetFields()[fieldContext]
	if !ok {
		return rules.EvalContext{}, fmt.Errorf("context is required")
	}
	obj := v.GetStructValue()
	if obj == nil {
		return rules.EvalContext{}, fmt.Errorf("context must be an object")
	}

	total, ok, err := numberField(obj, fieldTotal)
	if err != nil {
		return rules.EvalContext{}, err
	}
	if !ok {
		return rules.EvalContext{}, fmt.Errorf("context.total is required")
	}

	category, err := stringField(obj, fieldCategory)
	if err != nil {
		return rules.EvalContext{}, err
	}

	quantity, _, err := numberField(obj, fieldQuantity)
	if err != nil {
		return rules.EvalContext{}, err
	}

	shipping, ok, err := numberField(obj, fieldShipping)
	if err != nil {
		return rules.EvalContext{}, err
	}
	if !ok {
		shipping = defaultShipping
	}

	return rules.EvalContext{
		Total:    total,
		Category: category,
		Quantity: quantity,
		Shipping: shipping,
	}, nil
}

// resultFields renders an evaluation outcome with the EvalResult JSON names.
// evalErr is set when the rule could not be parsed or evaluated.
func resultFields(res rules.EvalResult, evalErr error) map[string]any {
	fields := map[string]any{
		"applied":      res.Applied,
		"discount":     res.Discount,
		"freeShipping": res.FreeShipping,
		"message":      res.Message,
	}
	if evalErr != nil {
		fields["error"] = evalErr.Error()
	}
	return fields
}

// couponFields renders a catalog entry.
func couponFields(c types.Coupon) map[string]any {
	return map[string]any{
		"couponId":    string(c.CouponID),
		"code":        c.Code,
		"rule":        c.RuleSource,
		"description": c.Description,
		"state":       string(c.State),
		"createdAt":   c.CreatedAt,
	}
}

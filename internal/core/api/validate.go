package api

import (
	"fmt"
	"unicode/utf8"

	"github.com/solatis/promokeeper/internal/types"
)

// validateCode accepts 1-64 characters of A-Z, a-z, 0-9, '-' and '_'.
func validateCode(code string) error {
	if code == "" || len(code) > types.MaxCouponCodeLength {
		return fmt.Errorf("%w: length must be 1-%d", types.ErrInvalidCouponCode, types.MaxCouponCodeLength)
	}
	for _, c := range code {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return fmt.Errorf("%w: unexpected character %q", types.ErrInvalidCouponCode, c)
		}
	}
	return nil
}

func validateRuleLength(source string) error {
	if utf8.RuneCountInString(source) > types.MaxRuleLength {
		return fmt.Errorf("%w (%d characters)", types.ErrRuleTooLong, types.MaxRuleLength)
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > types.MaxDescriptionLength {
		return fmt.Errorf("description exceeds %d characters", types.MaxDescriptionLength)
	}
	return nil
}

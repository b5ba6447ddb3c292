package types

import (
	"time"

	"github.com/google/uuid"
)

// NewCouponID generates a UUIDv7 coupon identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewCouponID() CouponID {
	return CouponID(uuid.Must(uuid.NewV7()).String())
}

// NewEvaluationID generates a UUIDv7 evaluation identifier.
// Time-ordered IDs keep audit inserts clustered in B-tree pages.
func NewEvaluationID() EvaluationID {
	return EvaluationID(uuid.Must(uuid.NewV7()).String())
}

// ParseCouponID validates and converts a string to CouponID.
func ParseCouponID(s string) (CouponID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return CouponID(s), nil
}

// EvaluationIDTime extracts the timestamp embedded in a UUIDv7 ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func EvaluationIDTime(id EvaluationID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}

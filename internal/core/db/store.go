package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/solatis/promokeeper/internal/types"
)

// pqUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pqUniqueViolation = "23505"

// APIKey is a storefront API key record. Only the HMAC of the key is stored.
type APIKey struct {
	APIKeyID     string
	StorefrontID types.StorefrontID
	Name         string
	SecretID     string
	KeyHash      []byte
	CreatedAt    time.Time
}

// InsertAPIKey stores a new API key record.
func (q *Queries) InsertAPIKey(ctx context.Context, key APIKey) error {
	_, err := q.Exec(ctx, "insert-api-key",
		key.APIKeyID, string(key.StorefrontID), key.Name, key.SecretID, key.KeyHash, key.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// RevokeAPIKey marks an API key revoked. Revoking twice is a no-op.
func (q *Queries) RevokeAPIKey(ctx context.Context, apiKeyID string) error {
	if _, err := q.Exec(ctx, "revoke-api-key", time.Now().UTC(), apiKeyID); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	return nil
}

// InsertCoupon stores a coupon, filling CouponID, State and CreatedAt when empty.
// Returns types.ErrCouponExists if the storefront already uses the code.
func (q *Queries) InsertCoupon(ctx context.Context, c *types.Coupon) error {
	if c.CouponID == "" {
		c.CouponID = types.NewCouponID()
	}
	if c.State == "" {
		c.State = types.CouponActive
	}
	now := time.Now().UTC()

	_, err := q.Exec(ctx, "insert-coupon",
		string(c.CouponID), string(c.StorefrontID), c.Code, c.RuleSource, c.Description, string(c.State), now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", types.ErrCouponExists, c.Code)
		}
		return fmt.Errorf("insert coupon: %w", err)
	}

	c.CreatedAt = now.Format(time.RFC3339Nano)
	return nil
}

// ActiveCoupon returns the active coupon for a storefront code.
// Returns types.ErrCouponNotFound for unknown and disabled codes.
func (q *Queries) ActiveCoupon(ctx context.Context, storefront types.StorefrontID, code string) (*types.Coupon, error) {
	var c types.Coupon
	err := q.Get(ctx, "get-active-coupon-by-code", &c, string(storefront), code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrCouponNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return &c, nil
}

// ListCoupons returns up to limit coupons of a storefront ordered by code.
func (q *Queries) ListCoupons(ctx context.Context, storefront types.StorefrontID, limit int) ([]types.Coupon, error) {
	coupons := []types.Coupon{}
	if err := q.Select(ctx, "list-coupons", &coupons, string(storefront), limit); err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}

// SetCouponState enables or disables a coupon.
func (q *Queries) SetCouponState(ctx context.Context, storefront types.StorefrontID, code string, state types.CouponState) error {
	res, err := q.Exec(ctx, "set-coupon-state", string(state), string(storefront), code)
	if err != nil {
		return fmt.Errorf("set coupon state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set coupon state: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", types.ErrCouponNotFound, code)
	}
	return nil
}

// InsertEvaluation records one coupon evaluation.
func (q *Queries) InsertEvaluation(ctx context.Context, e *types.Evaluation) error {
	_, err := q.Exec(ctx, "insert-evaluation",
		string(e.EvaluationID), string(e.StorefrontID), e.CouponCode, e.RuleSource,
		e.Total, e.Category, e.Quantity, e.Shipping,
		e.Applied, e.Discount, e.FreeShipping, e.Message, e.Error, e.EvaluatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// CountEvaluations returns the number of recorded evaluations for a storefront.
func (q *Queries) CountEvaluations(ctx context.Context, storefront types.StorefrontID) (int, error) {
	var n int
	if err := q.Get(ctx, "count-evaluations", &n, string(storefront)); err != nil {
		return 0, fmt.Errorf("count evaluations: %w", err)
	}
	return n, nil
}

// isUniqueViolation reports whether err is a unique constraint failure on either driver.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}

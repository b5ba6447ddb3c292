package api

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/promokeeper/internal/core/auth"
	"github.com/solatis/promokeeper/internal/types"
)

// PutCoupon adds a coupon to the storefront's catalog.
// The rule must compile; it is stored verbatim and re-parsed on every evaluation.
func (s *PromoAPIService) PutCoupon(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	storefrontID := auth.StorefrontIDFromContext(ctx)
	if storefrontID == "" {
		return nil, status.Error(codes.Internal, "missing storefront_id in context")
	}

	code, err := stringField(req, fieldCode)
	if err != nil {
		return nil, invalidArgument(err)
	}
	source, err := stringField(req, fieldRule)
	if err != nil {
		return nil, invalidArgument(err)
	}
	description, err := stringField(req, fieldDescription)
	if err != nil {
		return nil, invalidArgument(err)
	}

	if err := validateCode(code); err != nil {
		return nil, toStatus(err)
	}
	if err := validateRuleLength(source); err != nil {
		return nil, toStatus(err)
	}
	if err := validateDescription(description); err != nil {
		return nil, invalidArgument(err)
	}
	if _, err := s.engine.Compile(source); err != nil {
		return nil, invalidArgument(fmt.Errorf("rule does not compile: %w", err))
	}

	coupon := &types.Coupon{
		StorefrontID: storefrontID,
		Code:         code,
		RuleSource:   source,
		Description:  description,
	}
	if err := s.store.InsertCoupon(ctx, coupon); err != nil {
		return nil, toStatus(err)
	}

	s.logger.InfoContext(ctx, "coupon stored",
		"storefront_id", storefrontID,
		"code", code,
		"coupon_id", coupon.CouponID)

	return structpb.NewStruct(map[string]any{
		"couponId":  string(coupon.CouponID),
		"code":      coupon.Code,
		"createdAt": coupon.CreatedAt,
	})
}

// ListCoupons returns the storefront's coupons with an ETAG.
// When ifNoneMatch equals the current ETAG the coupon list is omitted.
func (s *PromoAPIService) ListCoupons(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	storefrontID := auth.StorefrontIDFromContext(ctx)
	if storefrontID == "" {
		return nil, status.Error(codes.Internal, "missing storefront_id in context")
	}

	ifNoneMatch, err := stringField(req, fieldIfNoneMatch)
	if err != nil {
		return nil, invalidArgument(err)
	}

	coupons, err := s.store.ListCoupons(ctx, storefrontID, s.cfg.MaxListSize)
	if err != nil {
		return nil, toStatus(fmt.Errorf("failed to query coupons: %w", err))
	}

	etag := computeETAG(coupons)
	if ifNoneMatch != "" && ifNoneMatch == etag {
		return structpb.NewStruct(map[string]any{
			"etag":        etag,
			"notModified": true,
		})
	}

	list := make([]any, 0, len(coupons))
	for _, c := range coupons {
		list = append(list, couponFields(c))
	}

	return structpb.NewStruct(map[string]any{
		"coupons":     list,
		"etag":        etag,
		"notModified": false,
	})
}

// computeETAG hashes sorted coupon_id:created_at:state entries, one per line.
// Same catalog always yields the same ETAG; disabling a coupon changes it.
func computeETAG(coupons []types.Coupon) string {
	ids := make([]string, 0, len(coupons))
	for _, c := range coupons {
		ids = append(ids, string(c.CouponID)+":"+c.CreatedAt+":"+string(c.State))
	}
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

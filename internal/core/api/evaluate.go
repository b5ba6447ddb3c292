package api

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/promokeeper/internal/core/auth"
	"github.com/solatis/promokeeper/internal/types"
)

// EvaluateRule evaluates an ad-hoc rule string against a context.
// A rule that fails to parse or evaluate is not applicable: the response
// carries applied=false and the error text instead of an RPC failure.
func (s *PromoAPIService) EvaluateRule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if auth.StorefrontIDFromContext(ctx) == "" {
		return nil, status.Error(codes.Internal, "missing storefront_id in context")
	}

	source, err := stringField(req, fieldRule)
	if err != nil {
		return nil, invalidArgument(err)
	}
	if err := validateRuleLength(source); err != nil {
		return nil, toStatus(err)
	}

	evalCtx, err := decodeEvalContext(req, 0)
	if err != nil {
		return nil, asInvalid(err)
	}

	res, evalErr := s.engine.Apply(source, evalCtx)
	if evalErr != nil {
		s.logger.DebugContext(ctx, "rule not applicable", "rule", source, "error", evalErr)
	}
	s.recorder.ObserveEvaluation(res.Applied, evalErr != nil, res.Discount)

	return structpb.NewStruct(resultFields(res, evalErr))
}

// EvaluateCoupon evaluates the stored rule of an active coupon and records
// the evaluation. The database row is authoritative; the daily JSONL copy is
// best-effort.
func (s *PromoAPIService) EvaluateCoupon(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	storefrontID := auth.StorefrontIDFromContext(ctx)
	if storefrontID == "" {
		return nil, status.Error(codes.Internal, "missing storefront_id in context")
	}

	code, err := stringField(req, fieldCode)
	if err != nil {
		return nil, invalidArgument(err)
	}
	if err := validateCode(code); err != nil {
		return nil, toStatus(err)
	}

	evalCtx, err := decodeEvalContext(req, s.cfg.DefaultShipping)
	if err != nil {
		return nil, asInvalid(err)
	}

	coupon, err := s.store.ActiveCoupon(ctx, storefrontID, code)
	if err != nil {
		return nil, toStatus(err)
	}

	res, evalErr := s.engine.Apply(coupon.RuleSource, evalCtx)
	s.recorder.ObserveEvaluation(res.Applied, evalErr != nil, res.Discount)

	// Filename fixed before the insert so the record and its JSONL line share a day
	now := time.Now().UTC()
	record := &types.Evaluation{
		EvaluationID: types.NewEvaluationID(),
		StorefrontID: storefrontID,
		CouponCode:   code,
		RuleSource:   coupon.RuleSource,
		Total:        evalCtx.Total,
		Category:     evalCtx.Category,
		Quantity:     evalCtx.Quantity,
		Shipping:     evalCtx.Shipping,
		Applied:      res.Applied,
		Discount:     res.Discount,
		FreeShipping: res.FreeShipping,
		Message:      res.Message,
		EvaluatedAt:  now,
	}
	if evalErr != nil {
		record.Error = evalErr.Error()
	}

	if err := s.store.InsertEvaluation(ctx, record); err != nil {
		return nil, toStatus(fmt.Errorf("record evaluation: %w", err))
	}
	s.appendJSONL(ctx, now, record)

	s.logger.InfoContext(ctx, "coupon evaluated",
		"storefront_id", storefrontID,
		"code", code,
		"evaluation_id", record.EvaluationID,
		"applied", res.Applied,
		"discount", res.Discount)

	fields := resultFields(res, evalErr)
	fields["code"] = code
	fields["evaluationId"] = string(record.EvaluationID)
	return structpb.NewStruct(fields)
}

// appendJSONL writes one evaluation to the daily JSONL file.
// Failures are logged and otherwise ignored.
func (s *PromoAPIService) appendJSONL(ctx context.Context, day time.Time, record *types.Evaluation) {
	filename := filepath.Join(evaluationsDir(s.cfg), day.Format("2006-01-02")+".jsonl")
	mu := s.getJSONLMutex(filename)
	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to open evaluation log", "file", filename, "error", err)
		return
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		s.logger.WarnContext(ctx, "failed to append evaluation log", "file", filename, "error", err)
	}
}

// asInvalid marks a request decoding error as InvalidArgument unless it
// already carries a sentinel with its own mapping.
func asInvalid(err error) error {
	if st := toStatus(err); status.Code(st) != codes.Unavailable {
		return st
	}
	return invalidArgument(err)
}

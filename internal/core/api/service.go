// Package api implements the PromoAPI gRPC service.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/solatis/promokeeper/internal/core/config"
	"github.com/solatis/promokeeper/internal/rules"
	"github.com/solatis/promokeeper/internal/types"
)

// Store is the persistence the service needs. Implemented by *db.Queries.
type Store interface {
	InsertCoupon(ctx context.Context, c *types.Coupon) error
	ActiveCoupon(ctx context.Context, storefront types.StorefrontID, code string) (*types.Coupon, error)
	ListCoupons(ctx context.Context, storefront types.StorefrontID, limit int) ([]types.Coupon, error)
	InsertEvaluation(ctx context.Context, e *types.Evaluation) error
}

// EvaluationRecorder observes evaluation outcomes. Implemented by *metrics.Metrics.
type EvaluationRecorder interface {
	ObserveEvaluation(applied, failed bool, discount float64)
}

type noopRecorder struct{}

func (noopRecorder) ObserveEvaluation(bool, bool, float64) {}

// Option configures a PromoAPIService.
type Option func(*PromoAPIService)

// WithRecorder reports evaluation outcomes to r.
func WithRecorder(r EvaluationRecorder) Option {
	return func(s *PromoAPIService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// PromoAPIService implements PromoAPIServer.
// Thin orchestration layer delegating to the rule engine and the store.
type PromoAPIService struct {
	store        Store
	engine       *rules.Engine
	cfg          *config.PromoAPIConfig
	logger       *slog.Logger
	recorder     EvaluationRecorder
	jsonlMutexes map[string]*sync.Mutex
	mutexLock    sync.Mutex
}

var _ PromoAPIServer = (*PromoAPIService)(nil)

// NewPromoAPIService creates service instance with dependencies.
// Auto-creates the evaluations directory if not exists.
func NewPromoAPIService(store Store, engine *rules.Engine, cfg *config.PromoAPIConfig, logger *slog.Logger, opts ...Option) (*PromoAPIService, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(evaluationsDir(cfg), 0o755); err != nil {
		return nil, fmt.Errorf("create evaluations dir: %w", err)
	}

	s := &PromoAPIService{
		store:        store,
		engine:       engine,
		cfg:          cfg,
		logger:       logger.With("component", "promo_api"),
		recorder:     noopRecorder{},
		jsonlMutexes: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func evaluationsDir(cfg *config.PromoAPIConfig) string {
	return filepath.Join(cfg.DataDir, "evaluations")
}

// getJSONLMutex returns mutex for given filename, creating if not exists.
// The map grows by one entry per day.
func (s *PromoAPIService) getJSONLMutex(filename string) *sync.Mutex {
	s.mutexLock.Lock()
	defer s.mutexLock.Unlock()

	if _, ok := s.jsonlMutexes[filename]; !ok {
		s.jsonlMutexes[filename] = &sync.Mutex{}
	}
	return s.jsonlMutexes[filename]
}

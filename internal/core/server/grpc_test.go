package server

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/promokeeper/internal/core/api"
	"github.com/solatis/promokeeper/internal/core/auth"
	"github.com/solatis/promokeeper/internal/core/config"
	"github.com/solatis/promokeeper/internal/core/db"
	"github.com/solatis/promokeeper/internal/core/metrics"
	"github.com/solatis/promokeeper/internal/rules"
)

const testSecretID = "0123456789abcdef0123456789abcdef"

var testSecret = []byte("0123456789abcdef0123456789abcdef-secret")

type harness struct {
	client  *api.PromoAPIClient
	health  grpc_health_v1.HealthClient
	metrics *metrics.Metrics
	key     string
	logs    *bytes.Buffer
}

func startServer(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	conn, err := db.Open("sqlite://" + filepath.Join(dir, "promo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.MigrateUp(conn))
	queries, err := db.LoadQueries(conn)
	require.NoError(t, err)

	key, hash, err := auth.GenerateAPIKey(testSecretID, testSecret)
	require.NoError(t, err)
	require.NoError(t, queries.InsertAPIKey(context.Background(), db.APIKey{
		APIKeyID:     "key-1",
		StorefrontID: "store-1",
		Name:         "test",
		SecretID:     testSecretID,
		KeyHash:      hash,
		CreatedAt:    time.Now(),
	}))

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := config.DefaultPromoAPIConfig()
	cfg.DataDir = filepath.Join(dir, "data")

	m := metrics.New()
	svc, err := api.NewPromoAPIService(queries, rules.NewEngine(logger), cfg, logger, api.WithRecorder(m))
	require.NoError(t, err)
	authenticator := auth.NewAuthenticator(map[string][]byte{testSecretID: testSecret}, queries, logger)

	srv, err := NewGRPCServer(cfg, svc, authenticator, logger, m.UnaryInterceptor())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { cc.Close() })

	return &harness{
		client:  api.NewPromoAPIClient(cc),
		health:  grpc_health_v1.NewHealthClient(cc),
		metrics: m,
		key:     key,
		logs:    logs,
	}
}

func (h *harness) authed() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), auth.APIKeyHeader, h.key)
}

func TestNewGRPCServerValidation(t *testing.T) {
	cfg := config.DefaultPromoAPIConfig()
	_, err := NewGRPCServer(nil, nil, nil, nil)
	assert.Error(t, err)
	_, err = NewGRPCServer(cfg, nil, nil, nil)
	assert.Error(t, err)
}

func TestServerEndToEnd(t *testing.T) {
	h := startServer(t)

	t.Run("health check without key", func(t *testing.T) {
		resp, err := h.health.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: api.ServiceName})
		require.NoError(t, err)
		assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)
	})

	t.Run("missing key rejected", func(t *testing.T) {
		req, _ := structpb.NewStruct(map[string]any{"rule": "MINUS 5", "context": map[string]any{"total": 10.0}})
		_, err := h.client.EvaluateRule(context.Background(), req)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("evaluate rule", func(t *testing.T) {
		req, _ := structpb.NewStruct(map[string]any{
			"rule":    "PERCENT 10 IF TOTAL > 200",
			"context": map[string]any{"total": 350.0, "category": "Food", "quantity": 2.0, "shipping": 15.0},
		})
		resp, err := h.client.EvaluateRule(h.authed(), req)
		require.NoError(t, err)
		assert.Equal(t, true, resp.AsMap()["applied"])
		assert.Equal(t, 35.0, resp.AsMap()["discount"])
	})

	t.Run("coupon round trip", func(t *testing.T) {
		put, _ := structpb.NewStruct(map[string]any{"code": "FOOD", "rule": `MINUS 50 IF CATEGORY == "Food"`})
		_, err := h.client.PutCoupon(h.authed(), put)
		require.NoError(t, err)

		eval, _ := structpb.NewStruct(map[string]any{"code": "FOOD", "context": map[string]any{"total": 80.0, "category": "Food"}})
		resp, err := h.client.EvaluateCoupon(h.authed(), eval)
		require.NoError(t, err)
		assert.Equal(t, 50.0, resp.AsMap()["discount"])
		assert.Equal(t, "minus 50", resp.AsMap()["message"])

		list, err := h.client.ListCoupons(h.authed(), &structpb.Struct{})
		require.NoError(t, err)
		assert.Len(t, list.AsMap()["coupons"], 1)
	})

	t.Run("unknown coupon", func(t *testing.T) {
		eval, _ := structpb.NewStruct(map[string]any{"code": "MISSING", "context": map[string]any{"total": 1.0}})
		_, err := h.client.EvaluateCoupon(h.authed(), eval)
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("metrics recorded", func(t *testing.T) {
		n, err := testutil.GatherAndCount(h.metrics.Registry(),
			"promokeeper_promo_api_requests_total", "promokeeper_rules_evaluations_total")
		require.NoError(t, err)
		assert.Greater(t, n, 2)
	})

	t.Run("calls are logged", func(t *testing.T) {
		assert.Contains(t, h.logs.String(), "method=/promokeeper.v1.PromoAPI/EvaluateRule")
	})
}

func TestTimeoutInterceptor(t *testing.T) {
	interceptor := TimeoutInterceptor(50 * time.Millisecond)
	info := &grpc.UnaryServerInfo{FullMethod: api.EvaluateRuleMethod}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	interceptor := LoggingInterceptor(logger)
	info := &grpc.UnaryServerInfo{FullMethod: api.ListCouponsMethod}

	_, _ = interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.NotFound, "missing")
	})
	assert.Empty(t, buf.String(), "client errors stay below warn")

	_, _ = interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.Unavailable, "db down")
	})
	assert.Contains(t, buf.String(), "code=Unavailable")
}

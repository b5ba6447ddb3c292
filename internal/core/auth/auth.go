// Package auth provides HMAC-based API key authentication for gRPC services.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/solatis/promokeeper/internal/types"
)

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

// storefrontIDKey is the context key for storing the authenticated storefront ID.
const storefrontIDKey = contextKey("storefront_id")

// APIKeyHeader is the metadata key carrying the API key.
const APIKeyHeader = "x-api-key"

// lastUsedThrottle bounds last_used_at writes per key.
const lastUsedThrottle = time.Minute

// Queries defines database operations needed for authentication.
// Implemented by *db.Queries.
type Queries interface {
	Get(ctx context.Context, name string, dest any, args ...any) error
	Exec(ctx context.Context, name string, args ...any) (sql.Result, error)
}

// Authenticator validates API keys using HMAC-SHA256 signatures.
// Holds in-memory secret map for O(1) lookup and queries for key verification.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
	logger  *slog.Logger
}

// NewAuthenticator creates an authenticator with HMAC secrets and query interface.
func NewAuthenticator(secrets map[string][]byte, queries Queries, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Authenticator{
		secrets: secrets,
		queries: queries,
		logger:  logger.With("component", "auth"),
	}
}

// Authenticate validates an API key and returns its storefront ID.
// Returns ErrDatabase (wrapped) when the key store is unreachable.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (types.StorefrontID, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	computedHash := ComputeHMAC(secret, apiKey)

	// key_hash is unique, so at most one row matches
	var result struct {
		APIKeyID     string       `db:"api_key_id"`
		StorefrontID string       `db:"storefront_id"`
		RevokedAt    sql.NullTime `db:"revoked_at"`
		LastUsedAt   sql.NullTime `db:"last_used_at"`
	}

	err = a.queries.Get(ctx, "get-api-key-by-hash", &result, computedHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidKey
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if result.RevokedAt.Valid {
		return "", ErrKeyRevoked
	}

	if shouldUpdateLastUsed(result.LastUsedAt, time.Now()) {
		if _, err := a.queries.Exec(ctx, "update-last-used", time.Now().UTC(), result.APIKeyID); err != nil {
			a.logger.WarnContext(ctx, "failed to update last_used_at", "api_key_id", result.APIKeyID, "error", err)
		}
	}

	return types.StorefrontID(result.StorefrontID), nil
}

// shouldUpdateLastUsed throttles last_used_at writes to once per minute.
func shouldUpdateLastUsed(lastUsed sql.NullTime, now time.Time) bool {
	if !lastUsed.Valid {
		return true
	}
	return now.Sub(lastUsed.Time) > lastUsedThrottle
}

// UnaryInterceptor returns gRPC interceptor that authenticates requests.
// Methods listed in skip (full method names) bypass authentication.
func (a *Authenticator) UnaryInterceptor(skip ...string) grpc.UnaryServerInterceptor {
	public := make(map[string]bool, len(skip))
	for _, m := range skip {
		public[m] = true
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if public[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKeys := md.Get(APIKeyHeader)
		if len(apiKeys) == 0 {
			return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
		}

		storefrontID, err := a.Authenticate(ctx, apiKeys[0])
		if err != nil {
			return nil, status.Error(statusCode(err), err.Error())
		}

		return handler(WithStorefrontID(ctx, storefrontID), req)
	}
}

// statusCode maps authentication failures to gRPC codes.
// Revoked keys confirm existence (PermissionDenied); every other failure is
// Unauthenticated except store outages, which are retryable (Unavailable).
func statusCode(err error) codes.Code {
	switch {
	case errors.Is(err, ErrKeyRevoked):
		return codes.PermissionDenied
	case errors.Is(err, ErrDatabase):
		return codes.Unavailable
	default:
		return codes.Unauthenticated
	}
}

// WithStorefrontID returns a context carrying an authenticated storefront ID.
func WithStorefrontID(ctx context.Context, id types.StorefrontID) context.Context {
	return context.WithValue(ctx, storefrontIDKey, id)
}

// StorefrontIDFromContext extracts the storefront ID from context.
// Returns empty string if not found.
func StorefrontIDFromContext(ctx context.Context) types.StorefrontID {
	if id, ok := ctx.Value(storefrontIDKey).(types.StorefrontID); ok {
		return id
	}
	return ""
}

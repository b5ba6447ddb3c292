// Package config provides configuration management for PromoKeeper services.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// PromoAPIConfig holds configuration for the gRPC promotion API service.
type PromoAPIConfig struct {
	Host            string
	Port            int
	MaxConnections  int
	RequestTimeout  time.Duration
	MaxListSize     int
	DataDir         string
	DefaultShipping float64

	// MetricsAddr is the Prometheus listen address; empty disables it.
	MetricsAddr string

	// EvaluationLogRetentionDays bounds the daily JSONL files kept under
	// DataDir/evaluations. Zero keeps them forever.
	EvaluationLogRetentionDays int
	PruneSchedule              string
}

// DefaultPromoAPIConfig returns configuration with default values.
func DefaultPromoAPIConfig() *PromoAPIConfig {
	return &PromoAPIConfig{
		Host:            "0.0.0.0",
		Port:            50061,
		MaxConnections:  1000,
		RequestTimeout:  10 * time.Second,
		MaxListSize:     1000,
		DataDir:         "./data",
		DefaultShipping: 15,

		MetricsAddr:                "127.0.0.1:9461",
		EvaluationLogRetentionDays: 30,
		PruneSchedule:              "0 3 * * *",
	}
}

// HMACSecrets extracts HMAC secrets from environment variables.
// Supports PK_HMAC_SECRET (single) and PK_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)

	add := func(key, val string) error {
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if _, exists := secrets[secretID]; exists {
			return fmt.Errorf("duplicate secret_id '%s' found in environment variables (check PK_HMAC_SECRET and PK_HMAC_SECRET_* for conflicts)", secretID)
		}
		secrets[secretID] = decoded
		return nil
	}

	// Format: <secret_id>:<base64_secret>
	if val := os.Getenv("PK_HMAC_SECRET"); val != "" {
		if err := add("PK_HMAC_SECRET", val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets keep old and new keys valid during rotation
	for i := 1; ; i++ {
		key := fmt.Sprintf("PK_HMAC_SECRET_%d", i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := add(key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// CurrentHMACSecret returns the secret new API keys are minted with:
// PK_HMAC_SECRET when set, otherwise the highest numbered PK_HMAC_SECRET_N.
func CurrentHMACSecret() (secretID string, secret []byte, err error) {
	if val := os.Getenv("PK_HMAC_SECRET"); val != "" {
		return ParseHMACSecretWithID(val)
	}
	var last string
	for i := 1; ; i++ {
		val := os.Getenv(fmt.Sprintf("PK_HMAC_SECRET_%d", i))
		if val == "" {
			break
		}
		last = val
	}
	if last == "" {
		return "", nil, fmt.Errorf("no HMAC secrets configured (set PK_HMAC_SECRET environment variable)")
	}
	return ParseHMACSecretWithID(last)
}

// ParseHMACSecret decodes base64-encoded HMAC secret from environment variable.
func ParseHMACSecret(envValue string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envValue))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(decoded) < 32 {
		return nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(decoded))
	}
	return decoded, nil
}

// ParseHMACSecretWithID parses secret_id:base64_secret format.
// Secret ID must be 32 hex chars (UUIDv7 without hyphens).
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	parts := strings.SplitN(strings.TrimSpace(envValue), ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	secretID = parts[0]
	if len(secretID) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars (UUIDv7 without hyphens)")
	}

	for _, c := range secretID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("secret_id must be hex chars only")
		}
	}

	secret, err = ParseHMACSecret(parts[1])
	if err != nil {
		return "", nil, err
	}

	return secretID, secret, nil
}

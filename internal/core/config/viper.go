package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"host":             "promo_api.host",
	"port":             "promo_api.port",
	"data-dir":         "promo_api.data_dir",
	"default-shipping": "promo_api.default_shipping",
	"metrics-addr":     "promo_api.metrics_addr",
}

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
// flags may be nil; only flags the user changed override other sources.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*PromoAPIConfig, error) {
	v := viper.New()

	def := DefaultPromoAPIConfig()
	v.SetDefault("promo_api.host", def.Host)
	v.SetDefault("promo_api.port", def.Port)
	v.SetDefault("promo_api.max_connections", def.MaxConnections)
	v.SetDefault("promo_api.request_timeout", def.RequestTimeout.String())
	v.SetDefault("promo_api.max_list_size", def.MaxListSize)
	v.SetDefault("promo_api.data_dir", def.DataDir)
	v.SetDefault("promo_api.default_shipping", def.DefaultShipping)
	v.SetDefault("promo_api.metrics_addr", def.MetricsAddr)
	v.SetDefault("promo_api.evaluation_log_retention_days", def.EvaluationLogRetentionDays)
	v.SetDefault("promo_api.prune_schedule", def.PruneSchedule)

	// Bind environment variables with PK_ prefix
	v.SetEnvPrefix("PK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets must be environment-only per 12-factor principles
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &PromoAPIConfig{
		Host:            v.GetString("promo_api.host"),
		Port:            v.GetInt("promo_api.port"),
		MaxConnections:  v.GetInt("promo_api.max_connections"),
		RequestTimeout:  v.GetDuration("promo_api.request_timeout"),
		MaxListSize:     v.GetInt("promo_api.max_list_size"),
		DataDir:         v.GetString("promo_api.data_dir"),
		DefaultShipping: v.GetFloat64("promo_api.default_shipping"),

		MetricsAddr:                v.GetString("promo_api.metrics_addr"),
		EvaluationLogRetentionDays: v.GetInt("promo_api.evaluation_log_retention_days"),
		PruneSchedule:              v.GetString("promo_api.prune_schedule"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive limits.
func validateConfig(cfg *PromoAPIConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.MaxConnections)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxListSize <= 0 {
		return fmt.Errorf("max_list_size must be positive, got %d", cfg.MaxListSize)
	}
	if cfg.DefaultShipping < 0 {
		return fmt.Errorf("default_shipping must not be negative, got %v", cfg.DefaultShipping)
	}
	if cfg.EvaluationLogRetentionDays < 0 {
		return fmt.Errorf("evaluation_log_retention_days must not be negative, got %d", cfg.EvaluationLogRetentionDays)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("promo_api.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use PK_HMAC_SECRET environment variable)")
	}
	return nil
}

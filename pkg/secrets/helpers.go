package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/fraatlas/backend/config"
)

// Secret keys
const (
	KeyJWTSecret   = "JWT_SECRET"
	KeyDatabaseURL = "DATABASE_URL"
	KeyRedisURL    = "REDIS_URL"
	KeySentryDSN   = "SENTRY_DSN"
)

// LoadString loads a secret, returning fallback when it is absent
func LoadString(ctx context.Context, m Manager, key, fallback string) (string, error) {
	value, err := m.GetSecret(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	return value, nil
}

// LoadStringRequired loads a required secret (fails if not found)
func LoadStringRequired(ctx context.Context, m Manager, key string) (string, error) {
	value, err := m.GetSecret(ctx, key)
	if err != nil {
		return "", fmt.Errorf("required secret %s not found: %w", key, err)
	}
	return value, nil
}

// Apply overlays credentials from m onto cfg. The JWT secret is required
// in production; other keys keep their configured value when absent.
func Apply(ctx context.Context, m Manager, cfg *config.Config) error {
	if cfg.IsProduction() {
		jwtSecret, err := LoadStringRequired(ctx, m, KeyJWTSecret)
		if err != nil {
			return err
		}
		cfg.JWTSecret = jwtSecret
	} else {
		var err error
		if cfg.JWTSecret, err = LoadString(ctx, m, KeyJWTSecret, cfg.JWTSecret); err != nil {
			return err
		}
	}

	targets := []struct {
		key string
		dst *string
	}{
		{KeyDatabaseURL, &cfg.DatabaseURL},
		{KeyRedisURL, &cfg.RedisURL},
		{KeySentryDSN, &cfg.SentryDSN},
	}
	for _, t := range targets {
		value, err := LoadString(ctx, m, t.key, *t.dst)
		if err != nil {
			return err
		}
		*t.dst = value
	}
	return nil
}

// ConfigFor builds the manager config from application settings
func ConfigFor(cfg *config.Config) Config {
	sc := DefaultConfig()
	if cfg.SecretsBackend != "" {
		sc.Backend = cfg.SecretsBackend
	}
	if cfg.AWSRegion != "" {
		sc.AWSRegion = cfg.AWSRegion
	}
	sc.Prefix = cfg.SecretsPrefix
	return sc
}

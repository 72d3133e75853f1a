package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/fraatlas/backend/pkg/cache"
	"github.com/fraatlas/backend/pkg/domain"
)

// TokenBlacklist manages revoked JWT tokens
type TokenBlacklist struct {
	cache domain.CacheRepository
}

// NewTokenBlacklist creates a new token blacklist
func NewTokenBlacklist(c domain.CacheRepository) *TokenBlacklist {
	return &TokenBlacklist{
		cache: c,
	}
}

// Add adds a token to the blacklist with expiration
func (b *TokenBlacklist) Add(ctx context.Context, token string, expiration time.Duration) error {
	return b.cache.Set(ctx, b.key(token), "revoked", expiration)
}

// IsBlacklisted checks if a token is blacklisted
func (b *TokenBlacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	_, err := b.cache.Get(ctx, b.key(token))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	return false, err
}

// key hashes the token so raw tokens are never stored
func (b *TokenBlacklist) key(token string) string {
	hash := sha256.Sum256([]byte(token))
	return "auth:blacklist:" + hex.EncodeToString(hash[:])
}

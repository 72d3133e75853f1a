package domain

import (
	"context"
	"time"

	"github.com/fraatlas/backend/pkg/dss"
	"github.com/fraatlas/backend/pkg/models"
)

// ClaimRepository defines read access to forest rights claims
type ClaimRepository interface {
	GetClaim(ctx context.Context, id string) (*models.Claim, error)
	ListPendingClaims(ctx context.Context, filter models.ClaimFilter) ([]models.Claim, error)
}

// AssetRepository defines read access to mapped asset parcels
type AssetRepository interface {
	AssetsForLocality(ctx context.Context, village, district string) ([]models.AssetRecord, error)
}

// RecommendationRepository defines storage of recommendation sets
type RecommendationRepository interface {
	UpsertRecommendations(ctx context.Context, result *dss.Result) error
	LatestRecommendations(ctx context.Context, claimID string) (*dss.Result, error)
}

// CacheRepository defines caching operations
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// Add stores value only when key is absent and reports whether it did
	Add(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// AuditLogger defines audit logging operations
type AuditLogger interface {
	Log(ctx context.Context, entry models.AuditEntry) error
}

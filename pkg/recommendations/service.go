// Package recommendations generates, stores and serves recommendation sets
// for forest rights claims.
package recommendations

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fraatlas/backend/pkg/auth"
	"github.com/fraatlas/backend/pkg/cache"
	"github.com/fraatlas/backend/pkg/domain"
	"github.com/fraatlas/backend/pkg/dss"
	"github.com/fraatlas/backend/pkg/logger"
	"github.com/fraatlas/backend/pkg/metrics"
	"github.com/fraatlas/backend/pkg/models"
)

// DefaultBulkLimit is used when a bulk request sets no limit
const DefaultBulkLimit = 100

// Repository is the storage the service needs
type Repository interface {
	domain.ClaimRepository
	domain.AssetRepository
	domain.RecommendationRepository
}

// Service handles recommendation generation and retrieval
type Service struct {
	repo     Repository
	engine   *dss.Engine
	logger   logger.Logger
	cache    domain.CacheRepository
	cacheTTL time.Duration
	audit    domain.AuditLogger
	metrics  *metrics.Metrics

	bulkLimit int
	now       func() time.Time
}

// NewService creates a new recommendations service
func NewService(repo Repository, engine *dss.Engine, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:      repo,
		engine:    engine,
		logger:    log.With("component", "recommendations"),
		bulkLimit: DefaultBulkLimit,
		now:       time.Now,
	}
}

// WithCache enables caching of latest recommendation sets
func (s *Service) WithCache(c domain.CacheRepository, ttl time.Duration) *Service {
	s.cache = c
	s.cacheTTL = ttl
	return s
}

// WithAudit records generation runs in the activity log
func (s *Service) WithAudit(a domain.AuditLogger) *Service {
	s.audit = a
	return s
}

// WithMetrics records generation metrics
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// WithBulkLimit overrides the default bulk limit
func (s *Service) WithBulkLimit(limit int) *Service {
	if limit > 0 {
		s.bulkLimit = limit
	}
	return s
}

// CachePrefix namespaces cached recommendation sets
const CachePrefix = "dss:recommendations:"

// CacheKey is the cache key of a claim's latest recommendation set
func CacheKey(claimID string) string {
	return CachePrefix + claimID
}

// Generate scores a claim, saves the result and returns it. A nil
// principal means a trusted system caller.
func (s *Service) Generate(ctx context.Context, claimID string, principal *auth.Principal) (*dss.Result, error) {
	claim, err := s.repo.GetClaim(ctx, claimID)
	if err != nil {
		s.metrics.RecordGenerationFailure("claim")
		return nil, err
	}
	if principal != nil && !principal.CanAccessClaim(claim) {
		return nil, domain.NewForbiddenError("You do not have access to this claim")
	}

	result, err := s.generateForClaim(ctx, claim)
	if err != nil {
		return nil, err
	}

	actor := ""
	if principal != nil {
		actor = principal.UserID
	}
	s.recordAudit(ctx, models.AuditEntry{
		UserID: actor,
		Action: models.ActionGenerateRecommendations,
		Metadata: map[string]interface{}{
			"claim_id":              claim.ID,
			"recommendations_count": result.TotalSchemes,
		},
	})

	return result, nil
}

// generateForClaim runs the engine for a loaded claim and persists the set.
// Asset lookup failures only degrade the result.
func (s *Service) generateForClaim(ctx context.Context, claim *models.Claim) (*dss.Result, error) {
	assets, err := s.repo.AssetsForLocality(ctx, claim.VillageName, claim.District)
	if err != nil {
		s.metrics.RecordGenerationFailure("assets")
		s.logger.Warn("asset fetch failed",
			"claim_id", claim.ID,
			"village", claim.VillageName,
			"district", claim.District,
			"error", err,
		)
		assets = nil
	}

	start := time.Now()
	result := s.engine.Generate(*claim, assets, s.now())
	elapsed := time.Since(start)

	if err := s.repo.UpsertRecommendations(ctx, &result); err != nil {
		s.metrics.RecordGenerationFailure("persist")
		s.logger.Error("failed to save recommendations", "claim_id", claim.ID, "error", err)
		return nil, err
	}
	s.metrics.RecordGenerated(result.TotalSchemes, elapsed)
	s.refreshCache(ctx, &result)

	s.logger.Info("recommendations generated",
		"claim_id", claim.ID,
		"total", result.TotalSchemes,
		"high", result.HighPriorityCount,
		"medium", result.MediumPriorityCount,
		"low", result.LowPriorityCount,
	)
	return &result, nil
}

// GetLatest returns the most recently saved set for a claim
func (s *Service) GetLatest(ctx context.Context, claimID string, principal *auth.Principal) (*dss.Result, error) {
	if principal != nil {
		claim, err := s.repo.GetClaim(ctx, claimID)
		if err != nil {
			return nil, err
		}
		if !principal.CanAccessClaim(claim) {
			return nil, domain.NewForbiddenError("You do not have access to this claim")
		}
	}

	if cached, ok := s.fromCache(ctx, claimID); ok {
		return cached, nil
	}

	result, err := s.repo.LatestRecommendations(ctx, claimID)
	if err != nil {
		return nil, err
	}
	s.fillCache(ctx, result)
	return result, nil
}

func (s *Service) fromCache(ctx context.Context, claimID string) (*dss.Result, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, CacheKey(claimID))
	if err != nil {
		if !cache.IsMiss(err) {
			s.logger.Warn("cache read failed", "claim_id", claimID, "error", err)
		}
		s.metrics.RecordCacheMiss("recommendations")
		return nil, false
	}

	var result dss.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		s.logger.Warn("discarding undecodable cache entry", "claim_id", claimID, "error", err)
		s.metrics.RecordCacheMiss("recommendations")
		return nil, false
	}

	s.metrics.RecordCacheHit("recommendations")
	return &result, true
}

func (s *Service) encode(result *dss.Result) ([]byte, bool) {
	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("failed to encode recommendations for cache", "claim_id", result.ClaimID, "error", err)
		return nil, false
	}
	return payload, true
}

// refreshCache writes a freshly generated set through. When the write fails
// the old entry is dropped so it cannot outlive the upsert.
func (s *Service) refreshCache(ctx context.Context, result *dss.Result) {
	if s.cache == nil {
		return
	}
	key := CacheKey(result.ClaimID)
	if payload, ok := s.encode(result); ok {
		err := s.cache.Set(ctx, key, payload, s.cacheTTL)
		if err == nil {
			return
		}
		s.logger.Warn("cache write failed", "claim_id", result.ClaimID, "error", err)
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("cache invalidation failed", "claim_id", result.ClaimID, "error", err)
	}
}

// fillCache stores a set read from the store only if no entry exists. A
// regeneration racing with the read has already written a newer set, and
// that one wins.
func (s *Service) fillCache(ctx context.Context, result *dss.Result) {
	if s.cache == nil {
		return
	}
	payload, ok := s.encode(result)
	if !ok {
		return
	}
	if _, err := s.cache.Add(ctx, CacheKey(result.ClaimID), payload, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", "claim_id", result.ClaimID, "error", err)
	}
}

func (s *Service) recordAudit(ctx context.Context, entry models.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", "action", entry.Action, "error", err)
	}
}

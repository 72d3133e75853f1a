package recommendations

import (
	"context"

	"github.com/fraatlas/backend/pkg/models"
)

// GenerateBulk regenerates recommendations for pending claims one at a
// time. A failing claim is counted and skipped; only a failure to list the
// claims fails the run. Cancellation is checked between claims and ends the
// run early with the counts so far and Interrupted set.
func (s *Service) GenerateBulk(ctx context.Context, req models.BulkRecommendationRequest, actor string) (models.BulkRecommendationResponse, error) {
	var resp models.BulkRecommendationResponse

	limit := req.Limit
	if limit <= 0 {
		limit = s.bulkLimit
	}

	claims, err := s.repo.ListPendingClaims(ctx, models.ClaimFilter{
		District: req.District,
		State:    req.State,
		Limit:    limit,
	})
	if err != nil {
		s.logger.Error("failed to fetch claims for bulk processing", "error", err)
		return resp, err
	}

	log := s.logger.With("district", req.District, "state", req.State)
	log.Info("bulk generation started", "claims", len(claims))

	for i := range claims {
		if err := ctx.Err(); err != nil {
			log.Warn("bulk generation interrupted", "processed", resp.Processed, "failed", resp.Failed, "remaining", len(claims)-i, "error", err)
			resp.Interrupted = true
			break
		}

		if err := s.generateByID(ctx, claims[i].ID); err != nil {
			log.Error("failed to process claim", "claim_id", claims[i].ID, "error", err)
			resp.Failed++
			continue
		}
		resp.Processed++
	}

	s.metrics.RecordBulkRun(resp.Processed, resp.Failed)
	if !resp.Interrupted {
		log.Info("bulk generation finished", "processed", resp.Processed, "failed", resp.Failed)
	}

	s.recordAudit(context.WithoutCancel(ctx), models.AuditEntry{
		UserID: actor,
		Action: models.ActionBulkGenerateRecommendations,
		Metadata: map[string]interface{}{
			"district":    req.District,
			"state":       req.State,
			"limit":       limit,
			"processed":   resp.Processed,
			"failed":      resp.Failed,
			"interrupted": resp.Interrupted,
		},
	})

	return resp, nil
}

// generateByID reloads the claim so each run sees its current state
func (s *Service) generateByID(ctx context.Context, claimID string) error {
	claim, err := s.repo.GetClaim(ctx, claimID)
	if err != nil {
		s.metrics.RecordGenerationFailure("claim")
		return err
	}
	_, err = s.generateForClaim(ctx, claim)
	return err
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fraatlas/backend/pkg/audit"
	"github.com/fraatlas/backend/pkg/database"
	"github.com/fraatlas/backend/pkg/dss"
	"github.com/fraatlas/backend/pkg/logger"
	"github.com/fraatlas/backend/pkg/models"
	"github.com/fraatlas/backend/pkg/recommendations"
	"github.com/fraatlas/backend/pkg/store"
)

// newService wires the service the way the API does. The returned func
// releases the redis connection, if one was opened.
func (a *app) newService(client *database.Client, log logger.Logger) (*recommendations.Service, func()) {
	svc := recommendations.NewService(store.New(client), dss.NewEngine(), log).
		WithAudit(audit.NewService(client))

	rc := a.openCache(log)
	if rc == nil {
		return svc, func() {}
	}
	svc.WithCache(rc, a.v.GetDuration("recommendation-cache-ttl"))
	return svc, func() { rc.Close() }
}

func newGenerateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <claim-id>",
		Short: "Generate and save recommendations for one claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.openDB()
			if err != nil {
				return err
			}
			defer client.Close()

			svc, closeCache := a.newService(client, a.logger(cmd))
			defer closeCache()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			// operator runs act as a trusted system caller
			result, err := svc.Generate(ctx, args[0], nil)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), result)
		},
	}
}

func newBulkCommand(a *app) *cobra.Command {
	var req models.BulkRecommendationRequest

	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Regenerate recommendations for pending claims",
		Long: `Processes pending claims one at a time, oldest submission first.
A claim that fails is counted and skipped; the run continues.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			client, err := a.openDB()
			if err != nil {
				return err
			}
			defer client.Close()

			svc, closeCache := a.newService(client, a.logger(cmd))
			defer closeCache()

			ctx, cancel := context.WithTimeout(cmd.Context(), a.v.GetDuration("bulk-timeout"))
			defer cancel()

			resp, err := svc.GenerateBulk(ctx, req, "")
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&req.District, "district", "", "only claims in this district")
	cmd.Flags().StringVar(&req.State, "state", "", "only claims in this state")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, fmt.Sprintf("maximum claims to process (default %d)", recommendations.DefaultBulkLimit))
	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fraatlas/backend/pkg/store"
	"github.com/fraatlas/backend/pkg/testdata"
)

func newSeedCommand(a *app) *cobra.Command {
	var (
		count    int
		state    string
		district string
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert generated claims and village asset maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return fmt.Errorf("--claims must be positive")
			}
			if district != "" && state == "" {
				return fmt.Errorf("--district requires --state")
			}

			cfg := testdata.DefaultConfig(count)
			cfg.State = state
			cfg.District = district
			cfg.Seed = seed
			fx := testdata.NewGenerator(cfg).Generate()

			client, err := a.openDB()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := testdata.Insert(cmd.Context(), store.New(client), fx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d claims and %d asset parcels\n", len(fx.Claims), len(fx.Assets))
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "claims", 50, "number of claims to generate")
	cmd.Flags().StringVar(&state, "state", "", "state for every claim (random when empty)")
	cmd.Flags().StringVar(&district, "district", "", "district for every claim")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.openDB()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fraatlas/backend/pkg/export"
	"github.com/fraatlas/backend/pkg/models"
	"github.com/fraatlas/backend/pkg/store"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		filter models.ClaimFilter
		dir    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the latest recommendations of pending claims to an .xlsx file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.v.GetString("export-dir")
			}

			client, err := a.openDB()
			if err != nil {
				return err
			}
			defer client.Close()

			path, err := export.NewService(store.New(client), dir, a.logger(cmd)).SaveExcel(cmd.Context(), filter)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.District, "district", "", "only claims in this district")
	cmd.Flags().StringVar(&filter.State, "state", "", "only claims in this state")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum claims (default 100)")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default $EXPORT_DIR)")
	return cmd
}

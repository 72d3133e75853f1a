package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fraatlas/backend/pkg/dss"
	"github.com/fraatlas/backend/pkg/schemes"
)

func newSchemesCommand(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "schemes",
		Short: "List the welfare scheme catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := schemes.All()
			if category != "" {
				c := schemes.Category(category)
				if !c.Valid() {
					return fmt.Errorf("unknown scheme category %q", category)
				}
				list = schemes.ByCategory(c)
			}
			return a.render(cmd.OutOrStdout(), list)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "agriculture, forest, livelihood, infrastructure or social")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the scoring engine version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dss engine %s\n", dss.EngineVersion)
		},
	}
}

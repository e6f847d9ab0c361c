package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/openats/internal/store"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every collection",
		Long:  "Export the archive, templates and candidates as one JSON or YAML document on stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			return a.withStores(func(s *store.Stores) error {
				if err := store.EncodeSnapshot(cmd.OutOrStdout(), s.Export(cmd.Context()), format); err != nil {
					return fmt.Errorf("export: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringP("format", "f", store.FormatJSON, "Output format: json or yaml")
	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/openats/internal/store"
)

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import collections from stdin",
		Long: "Import a document produced by export from stdin. Each collection present in the document " +
			"replaces the stored one, or with --merge overwrites records sharing an identity.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			merge, _ := cmd.Flags().GetBool("merge")

			snap, err := store.DecodeSnapshot(cmd.InOrStdin(), format)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			return a.withStores(func(s *store.Stores) error {
				res, err := s.Import(cmd.Context(), snap, merge)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"ok": true, "imported": res}, false)
			})
		},
	}
	cmd.Flags().StringP("format", "f", store.FormatJSON, "Input format: json or yaml")
	cmd.Flags().Bool("merge", false, "Merge into existing records instead of replacing")
	return cmd
}

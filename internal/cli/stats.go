package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/openats/internal/store"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show storage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(func(s *store.Stores) error {
				st, err := s.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("stats: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"driver":      a.cfg.Storage.Driver,
					"path":        a.cfg.Storage.Path,
					"collections": st.Collections,
					"other_keys":  st.OtherKeys,
				}, true)
			})
		},
	}
}

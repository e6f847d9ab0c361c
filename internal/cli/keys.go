package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/openats/internal/store"
)

func newKeysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List every key in the storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(func(s *store.Stores) error {
				keys, err := s.Storage().Keys(cmd.Context())
				if err != nil {
					return fmt.Errorf("list keys: %w", err)
				}
				if keys == nil {
					keys = []string{}
				}
				return printJSON(cmd.OutOrStdout(), keys, true)
			})
		},
	}
}

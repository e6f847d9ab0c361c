package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcliao/openats/internal/kv"
	"github.com/rcliao/openats/internal/store"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print a line whenever another process changes a collection",
		Long:  "Print a JSON line whenever another process changes a stored key. Requires the file storage driver.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(func(s *store.Stores) error {
				fs, ok := s.Storage().(*kv.FileStorage)
				if !ok {
					return fmt.Errorf("watch: %w (driver %q)", kv.ErrWatchUnsupported, a.cfg.Storage.Driver)
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				out := cmd.OutOrStdout()
				return fs.Watch(ctx, func(ch kv.Change) {
					line := map[string]any{"key": ch.Key, "removed": ch.Removed}
					if st, err := s.Stats(ctx); err == nil {
						for _, ks := range st.Collections {
							if ks.Key == ch.Key {
								line["records"] = ks.Records
								line["status"] = ks.Status
							}
						}
					}
					if err := printJSON(out, line, false); err != nil {
						a.log.Warn().Err(err).Msg("write change")
					}
				})
			})
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/openats/internal/model"
	"github.com/rcliao/openats/internal/store"
)

func newArchiveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Archived jobs, candidates and offers",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Archive an item",
		Long:  "Archive an item. Archiving an (id, type) pair that is already archived does nothing.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			typ, _ := cmd.Flags().GetString("type")
			name, _ := cmd.Flags().GetString("name")
			detail, _ := cmd.Flags().GetString("detail")

			return a.withStores(func(s *store.Stores) error {
				entry, added, err := s.Archive.Archive(cmd.Context(), store.ArchiveInput{
					ID:     id,
					Type:   model.ArchiveType(typ),
					Name:   name,
					Detail: detail,
				})
				if err != nil {
					return fmt.Errorf("archive: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"added": added, "entry": entry}, false)
			})
		},
	}
	addCmd.Flags().String("id", "", "Item id (required)")
	addCmd.Flags().StringP("type", "t", "", "Item type: job, candidate or offer (required)")
	addCmd.Flags().String("name", "", "Display name")
	addCmd.Flags().String("detail", "", "Secondary detail line")
	addCmd.MarkFlagRequired("id")
	addCmd.MarkFlagRequired("type")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List archived items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, _ := cmd.Flags().GetString("type")
			if typ != "" && !model.ValidArchiveTypes[model.ArchiveType(typ)] {
				return fmt.Errorf("list archive: unknown type %q", typ)
			}
			return a.withStores(func(s *store.Stores) error {
				return printJSON(cmd.OutOrStdout(), s.Archive.Archived(cmd.Context(), model.ArchiveType(typ)), true)
			})
		},
	}
	listCmd.Flags().StringP("type", "t", "", "Only this type: job, candidate or offer")

	rmCmd := &cobra.Command{
		Use:   "rm",
		Short: "Permanently delete an archived item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			typ, _ := cmd.Flags().GetString("type")
			return a.withStores(func(s *store.Stores) error {
				if err := s.Archive.PermanentlyDelete(cmd.Context(), id, model.ArchiveType(typ)); err != nil {
					return fmt.Errorf("delete archived item: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"ok": true}, false)
			})
		},
	}
	rmCmd.Flags().String("id", "", "Item id (required)")
	rmCmd.Flags().StringP("type", "t", "", "Item type (required)")
	rmCmd.MarkFlagRequired("id")
	rmCmd.MarkFlagRequired("type")

	cmd.AddCommand(addCmd, listCmd, rmCmd)
	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rcliao/openats/internal/model"
	"github.com/rcliao/openats/internal/store"
)

func newCandidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candidate",
		Short: "Candidates submitted through the careers page",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List candidates, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(func(s *store.Stores) error {
				return printJSON(cmd.OutOrStdout(), s.Candidates.Load(cmd.Context()), true)
			})
		},
	}

	getCmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(func(s *store.Stores) error {
				c, ok := s.Candidates.Get(cmd.Context(), args[0])
				if !ok {
					return fmt.Errorf("get candidate: %w: %s", store.ErrNotFound, args[0])
				}
				return printJSON(cmd.OutOrStdout(), c, true)
			})
		},
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Store a candidate record as given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := candidateFromFlags(cmd.Flags())
			c.ID, _ = cmd.Flags().GetString("id")
			return a.withStores(func(s *store.Stores) error {
				saved, err := s.Candidates.Save(cmd.Context(), c)
				if err != nil {
					return fmt.Errorf("add candidate: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), saved, false)
			})
		},
	}
	addCmd.Flags().String("id", "", "Candidate id (generated when empty)")
	candidateFlags(addCmd.Flags())
	addCmd.MarkFlagRequired("name")

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Submit an application as the careers page does",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			var in store.Application
			in.FirstName, _ = f.GetString("first-name")
			in.LastName, _ = f.GetString("last-name")
			in.Email, _ = f.GetString("email")
			in.PhoneCode, _ = f.GetString("phone-code")
			in.PhoneNumber, _ = f.GetString("phone")
			in.Role, _ = f.GetString("role")
			return a.withStores(func(s *store.Stores) error {
				c, err := s.Candidates.Apply(cmd.Context(), in)
				if err != nil {
					return fmt.Errorf("apply: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), c, false)
			})
		},
	}
	applyCmd.Flags().String("first-name", "", "First name (required)")
	applyCmd.Flags().String("last-name", "", "Last name")
	applyCmd.Flags().String("email", "", "Email address")
	applyCmd.Flags().String("phone-code", model.DefaultPhoneCode, "Phone country code")
	applyCmd.Flags().String("phone", "", "Phone number")
	applyCmd.Flags().String("role", "", "Position applied for")
	applyCmd.MarkFlagRequired("first-name")

	updateCmd := &cobra.Command{
		Use:   "update ID",
		Short: "Replace a candidate record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := candidateFromFlags(cmd.Flags())
			return a.withStores(func(s *store.Stores) error {
				updated, ok, err := s.Candidates.Update(cmd.Context(), args[0], c)
				if err != nil {
					return fmt.Errorf("update candidate: %w", err)
				}
				if !ok {
					return fmt.Errorf("update candidate: %w: %s", store.ErrNotFound, args[0])
				}
				return printJSON(cmd.OutOrStdout(), updated, false)
			})
		},
	}
	candidateFlags(updateCmd.Flags())
	updateCmd.MarkFlagRequired("name")

	rmCmd := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(func(s *store.Stores) error {
				if err := s.Candidates.Delete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("delete candidate: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"ok": true}, false)
			})
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find candidates by name, role, email or tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStores(func(s *store.Stores) error {
				return printJSON(cmd.OutOrStdout(), s.Candidates.Search(cmd.Context(), args[0]), true)
			})
		},
	}

	cmd.AddCommand(listCmd, getCmd, addCmd, applyCmd, updateCmd, rmCmd, searchCmd)
	return cmd
}

func candidateFlags(f *pflag.FlagSet) {
	f.String("name", "", "Full name")
	f.String("status", model.StatusScreening, "Pipeline status")
	f.String("status-color", model.StatusScreeningColor, "Status badge classes")
	f.String("role", model.Placeholder, "Role")
	f.String("tags", model.Placeholder, "Tags")
	f.String("applied-on", model.AppliedJustNow, "Applied-on label")
	f.String("email", "", "Email address")
	f.String("phone", "", "Phone number")
	f.String("linkedin", model.Placeholder, "LinkedIn profile")
}

func candidateFromFlags(f *pflag.FlagSet) model.Candidate {
	var c model.Candidate
	c.Name, _ = f.GetString("name")
	c.Status, _ = f.GetString("status")
	c.StatusColor, _ = f.GetString("status-color")
	c.Role, _ = f.GetString("role")
	c.Tags, _ = f.GetString("tags")
	c.AppliedOn, _ = f.GetString("applied-on")
	c.Email, _ = f.GetString("email")
	c.Phone, _ = f.GetString("phone")
	c.LinkedIn, _ = f.GetString("linkedin")
	return c
}

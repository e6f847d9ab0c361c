package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rcliao/openats/internal/blocktext"
	"github.com/rcliao/openats/internal/model"
	"github.com/rcliao/openats/internal/store"
)

func newTemplateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"tpl"},
		Short:   "Message templates",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List templates (the built-in set until something is saved)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, _ := cmd.Flags().GetString("type")
			return a.withStores(func(s *store.Stores) error {
				all := s.Templates.List(cmd.Context())
				if typ != "" {
					out := []model.Template{}
					for _, t := range all {
						if string(t.Type) == typ {
							out = append(out, t)
						}
					}
					all = out
				}
				return printJSON(cmd.OutOrStdout(), all, true)
			})
		},
	}
	listCmd.Flags().StringP("type", "t", "", "Only this type: offer, rejection, assessment or general")

	getCmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTemplateID(args[0])
			if err != nil {
				return err
			}
			return a.withStores(func(s *store.Stores) error {
				t, ok := s.Templates.Get(cmd.Context(), id)
				if !ok {
					return fmt.Errorf("get template: %w: %d", store.ErrNotFound, id)
				}
				return printJSON(cmd.OutOrStdout(), t, true)
			})
		},
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := templateInput(cmd)
			if err != nil {
				return err
			}
			return a.withStores(func(s *store.Stores) error {
				t, err := s.Templates.Add(cmd.Context(), in)
				if err != nil {
					return fmt.Errorf("add template: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), t, false)
			})
		},
	}
	templateFlags(addCmd.Flags())
	addCmd.MarkFlagRequired("name")
	addCmd.MarkFlagRequired("type")

	updateCmd := &cobra.Command{
		Use:   "update ID",
		Short: "Replace every field of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTemplateID(args[0])
			if err != nil {
				return err
			}
			in, err := templateInput(cmd)
			if err != nil {
				return err
			}
			return a.withStores(func(s *store.Stores) error {
				ok, err := s.Templates.Update(cmd.Context(), id, in)
				if err != nil {
					return fmt.Errorf("update template: %w", err)
				}
				if !ok {
					return fmt.Errorf("update template: %w: %d", store.ErrNotFound, id)
				}
				t, _ := s.Templates.Get(cmd.Context(), id)
				return printJSON(cmd.OutOrStdout(), t, false)
			})
		},
	}
	templateFlags(updateCmd.Flags())
	updateCmd.MarkFlagRequired("name")
	updateCmd.MarkFlagRequired("type")

	patchCmd := &cobra.Command{
		Use:   "patch ID",
		Short: "Change only the given fields of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTemplateID(args[0])
			if err != nil {
				return err
			}
			p, err := templatePatch(cmd)
			if err != nil {
				return err
			}
			return a.withStores(func(s *store.Stores) error {
				t, ok, err := s.Templates.Patch(cmd.Context(), id, p)
				if err != nil {
					return fmt.Errorf("patch template: %w", err)
				}
				if !ok {
					return fmt.Errorf("patch template: %w: %d", store.ErrNotFound, id)
				}
				return printJSON(cmd.OutOrStdout(), t, false)
			})
		},
	}
	templateFlags(patchCmd.Flags())

	rmCmd := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTemplateID(args[0])
			if err != nil {
				return err
			}
			return a.withStores(func(s *store.Stores) error {
				if err := s.Templates.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete template: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"ok": true}, false)
			})
		},
	}

	dupCmd := &cobra.Command{
		Use:   "dup ID",
		Short: "Duplicate a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTemplateID(args[0])
			if err != nil {
				return err
			}
			return a.withStores(func(s *store.Stores) error {
				t, ok, err := s.Templates.Duplicate(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("duplicate template: %w", err)
				}
				if !ok {
					return fmt.Errorf("duplicate template: %w: %d", store.ErrNotFound, id)
				}
				return printJSON(cmd.OutOrStdout(), t, false)
			})
		},
	}

	renderCmd := &cobra.Command{
		Use:   "render ID",
		Short: "Fill a template's placeholders",
		Long:  "Fill a template's {{placeholders}}. Values not given with --var use the editor's preview values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTemplateID(args[0])
			if err != nil {
				return err
			}
			vars, _ := cmd.Flags().GetStringToString("var")
			return a.withStores(func(s *store.Stores) error {
				t, ok := s.Templates.Render(cmd.Context(), id, vars)
				if !ok {
					return fmt.Errorf("render template: %w: %d", store.ErrNotFound, id)
				}
				return printJSON(cmd.OutOrStdout(), t, true)
			})
		},
	}
	renderCmd.Flags().StringToString("var", nil, "Placeholder value, name=value (repeatable)")

	bodyCmd := &cobra.Command{
		Use:   "body ID",
		Short: "Print a template's blocks as a text body",
		Long:  "Print a template's blocks in the text form accepted by --body-file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTemplateID(args[0])
			if err != nil {
				return err
			}
			return a.withStores(func(s *store.Stores) error {
				t, ok := s.Templates.Get(cmd.Context(), id)
				if !ok {
					return fmt.Errorf("template body: %w: %d", store.ErrNotFound, id)
				}
				_, err := io.WriteString(cmd.OutOrStdout(), blocktext.Format(t.Blocks))
				return err
			})
		},
	}

	varsCmd := &cobra.Command{
		Use:   "vars TYPE",
		Short: "List the placeholders a template type supports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ := model.TemplateType(args[0])
			if !model.ValidTemplateTypes[typ] {
				return fmt.Errorf("unknown template type %q", args[0])
			}
			return printJSON(cmd.OutOrStdout(), model.Variables(typ), false)
		},
	}

	cmd.AddCommand(listCmd, getCmd, addCmd, updateCmd, patchCmd, rmCmd, dupCmd, renderCmd, bodyCmd, varsCmd)
	return cmd
}

func templateFlags(f *pflag.FlagSet) {
	f.String("name", "", "Template name")
	f.StringP("type", "t", "", "Type: offer, rejection, assessment or general")
	f.String("subject", "", "Email subject")
	f.String("edited-at", "", "Last edited label")
	f.String("created-by", "", "Author")
	f.StringArrayP("block", "b", nil, "Content block as kind:content, in order (repeatable)")
	f.String("body-file", "", "Read the blocks from a text body file (- for stdin); overrides --block")
}

func templateInput(cmd *cobra.Command) (store.TemplateInput, error) {
	f := cmd.Flags()
	name, _ := f.GetString("name")
	typ, _ := f.GetString("type")
	subject, _ := f.GetString("subject")
	editedAt, _ := f.GetString("edited-at")
	createdBy, _ := f.GetString("created-by")
	blocks, _, err := blocksFromFlags(cmd)
	if err != nil {
		return store.TemplateInput{}, err
	}
	if editedAt == "" {
		editedAt = model.EditedJustNow
	}
	return store.TemplateInput{
		Name:      name,
		Type:      model.TemplateType(typ),
		Subject:   subject,
		Blocks:    blocks,
		EditedAt:  editedAt,
		CreatedBy: createdBy,
	}, nil
}

func templatePatch(cmd *cobra.Command) (store.TemplatePatch, error) {
	f := cmd.Flags()
	var p store.TemplatePatch
	str := func(name string) *string {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetString(name)
		return &v
	}
	p.Name = str("name")
	p.Subject = str("subject")
	p.EditedAt = str("edited-at")
	p.CreatedBy = str("created-by")
	if t := str("type"); t != nil {
		typ := model.TemplateType(*t)
		p.Type = &typ
	}
	blocks, set, err := blocksFromFlags(cmd)
	if err != nil {
		return p, err
	}
	if set {
		p.Blocks = &blocks
	}
	return p, nil
}

// blocksFromFlags reads --body-file, or else the --block list. set reports
// whether either flag was given.
func blocksFromFlags(cmd *cobra.Command) (blocks []model.Block, set bool, err error) {
	f := cmd.Flags()
	if path, _ := f.GetString("body-file"); path != "" {
		var b []byte
		if path == "-" {
			b, err = io.ReadAll(cmd.InOrStdin())
		} else {
			b, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, false, fmt.Errorf("read body: %w", err)
		}
		return blocktext.Parse(string(b)), true, nil
	}
	raw, _ := f.GetStringArray("block")
	blocks, err = parseBlocks(raw)
	return blocks, f.Changed("block"), err
}

func parseBlocks(raw []string) ([]model.Block, error) {
	blocks := make([]model.Block, 0, len(raw))
	for _, r := range raw {
		kind, content, _ := strings.Cut(r, ":")
		kind = strings.TrimSpace(kind)
		if kind == "" {
			return nil, fmt.Errorf("block %q: missing kind", r)
		}
		blocks = append(blocks, model.Block{Kind: model.BlockKind(kind), Content: content})
	}
	return blocks, nil
}

func parseTemplateID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid template id %q", s)
	}
	return id, nil
}

package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/datadict/datadict/internal/cli/ui"
	"github.com/datadict/datadict/internal/dict"
)

func newRootsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "root",
		Aliases: []string{"roots"},
		Short:   "Manage dictionary roots",
	}
	cmd.AddCommand(newRootAddCommand(opts))
	cmd.AddCommand(newRootListCommand(opts))
	return cmd
}

func newRootAddCommand(opts *options) *cobra.Command {
	var (
		in                dict.RootInput
		aliases           []string
		acceptAlternative bool
	)

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a root",
		Long: `Create a root. When the name is taken the suggested alternative is
offered; --accept-alternative takes it without asking.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()
			svc := e.service()

			in.Name = args[0]
			root, err := svc.CreateRoot(cmd.Context(), in)
			if de, ok := dict.AsError(err); ok && de.Kind == dict.RootNameConflict && len(de.Alternatives) > 0 {
				alt := de.Alternatives[0]
				accept := acceptAlternative
				if !accept {
					fmt.Fprint(cmd.ErrOrStderr(), ui.DictionaryError(err, color.NoColor))
					accept, err = opts.confirm(fmt.Sprintf("Create %q instead?", alt))
					if err != nil {
						return err
					}
				}
				if !accept {
					return de
				}
				in.Name = alt
				root, err = svc.CreateRoot(cmd.Context(), in)
			}
			if err != nil {
				return err
			}

			for _, alias := range aliases {
				updated, err := svc.AddAlias(cmd.Context(), root.ID, alias)
				if err != nil {
					return fmt.Errorf("root %s created but alias %q failed: %w", root.Canonical, alias, err)
				}
				root = updated
			}

			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Created root %s (ID: %d)", root.Canonical, root.ID), color.NoColor)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Remark, "remark", "", "free-form remark")
	cmd.Flags().StringSliceVar(&in.Tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringSliceVar(&aliases, "alias", nil, "alias (repeatable)")
	cmd.Flags().BoolVarP(&acceptAlternative, "accept-alternative", "y", false, "take the suggested name on conflict")
	return cmd
}

func newRootListCommand(opts *options) *cobra.Command {
	var params dict.ListParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			if params.Status != "" && !params.Status.Valid() {
				return fmt.Errorf("invalid status %q", params.Status)
			}

			e, err := opts.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			roots, page, err := e.service().ListRoots(cmd.Context(), params)
			if err != nil {
				return err
			}

			table := ui.NewTable(cmd.OutOrStdout(), []string{"ID", "NAME", "ALIASES", "USAGE", "STATUS"}, &ui.TableOptions{
				NoColor:    color.NoColor,
				RightAlign: []int{0, 3},
				Empty:      "No roots found",
			})
			for _, r := range roots {
				table.AddRow(
					strconv.FormatInt(r.ID, 10),
					r.Canonical,
					strings.Join(r.Aliases, ","),
					strconv.Itoa(r.UsageCount),
					string(r.Status),
				)
			}
			table.Render()
			fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d of %d (%d roots)\n", page.Page, max(page.TotalPages, 1), page.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&params.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&params.PageSize, "page-size", dict.DefaultPageSize, "page size")
	cmd.Flags().StringVarP(&params.Search, "search", "s", "", "substring of the name")
	cmd.Flags().StringVar((*string)(&params.Status), "status", "", "active or deprecated")
	return cmd
}

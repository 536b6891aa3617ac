package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/datadict/datadict/internal/cli/ui"
	"github.com/datadict/datadict/internal/dict"
)

// errNameUnavailable makes a failed check exit non-zero
var errNameUnavailable = errors.New("name is not available")

func newCheckCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a root or field name is available",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "root NAME",
		Short: "Check a root name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()
			svc := e.service()

			check, err := svc.CheckRootName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !check.Unique {
				writeUnavailable(cmd.ErrOrStderr(), check.Message, check.Alternatives)
				return errNameUnavailable
			}

			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("%q is available as %q", check.Name, check.Canonical), color.NoColor)

			names, err := rootNames(cmd.Context(), svc)
			if err != nil {
				return err
			}
			if similar := ui.SimilarNames(check.Canonical, names, 0); len(similar) > 0 {
				fmt.Fprint(cmd.OutOrStdout(), ui.Warning("similar roots already exist",
					[]string{"consider reusing " + strings.Join(similar, ", ")}, color.NoColor))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "field NAME",
		Short: "Check a field name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			check, err := e.service().CheckFieldName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !check.Unique {
				writeUnavailable(cmd.ErrOrStderr(), check.Message, check.Alternatives)
				return errNameUnavailable
			}
			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("%q is available as %q", check.Name, check.Canonical), color.NoColor)
			return nil
		},
	})

	return cmd
}

func writeUnavailable(w io.Writer, message string, alternatives []string) {
	suggestions := make([]string, 0, len(alternatives))
	for _, alt := range alternatives {
		suggestions = append(suggestions, "try "+alt)
	}
	ui.WriteError(w, ui.ErrorOptions{
		Context:     "NAME UNAVAILABLE",
		Problem:     message,
		Suggestions: suggestions,
		NoColor:     color.NoColor,
	})
}

// rootNames pages through every root and returns the canonical names
func rootNames(ctx context.Context, svc *dict.Service) ([]string, error) {
	var names []string
	params := dict.ListParams{Page: 1, PageSize: dict.MaxPageSize}
	for {
		roots, page, err := svc.ListRoots(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, r := range roots {
			names = append(names, r.Canonical)
		}
		if !page.HasNext {
			return names, nil
		}
		params.Page++
	}
}

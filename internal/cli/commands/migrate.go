package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/datadict/datadict/internal/cli/ui"
	"github.com/datadict/datadict/internal/orm/migrate"
)

func newMigrateCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the dictionary schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			applied, err := e.store.Migrate(cmd.Context())
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.MigrationError(err.Error(), []string{
					fmt.Sprintf("%d migration(s) applied before the failure", applied),
				}, color.NoColor))
				return err
			}
			if applied == 0 {
				fmt.Fprint(cmd.OutOrStdout(), ui.Info("Database is up to date", color.NoColor))
				return nil
			}
			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Applied %d migration(s)", applied), color.NoColor)
			return nil
		},
	})

	var force bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last applied migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			if !force {
				ok, err := opts.confirm("Roll back the last migration? Dictionary data in dropped tables is lost.")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}

			m, err := e.store.Migrator().MigrateDown(cmd.Context())
			if errors.Is(err, migrate.ErrNothingToRollback) {
				fmt.Fprint(cmd.OutOrStdout(), ui.Info("Nothing to roll back", color.NoColor))
				return nil
			}
			if err != nil {
				return err
			}
			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Rolled back %d_%s", m.Version, m.Name), color.NoColor)
			return nil
		},
	}
	down.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			all, err := migrate.Load(e.store.Dialect())
			if err != nil {
				return err
			}
			status, err := e.store.Migrator().Status(cmd.Context(), all)
			if err != nil {
				return err
			}

			table := ui.NewTable(cmd.OutOrStdout(), []string{"VERSION", "NAME", "STATUS", "APPLIED AT"}, &ui.TableOptions{
				NoColor:    color.NoColor,
				RightAlign: []int{0},
			})
			for _, m := range status.Applied {
				table.AddRow(strconv.FormatInt(m.Version, 10), m.Name, "applied", m.AppliedAt.Format("2006-01-02 15:04:05"))
			}
			for _, m := range status.Pending {
				table.AddRow(strconv.FormatInt(m.Version, 10), m.Name, "pending", "-")
			}
			table.Render()
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), status.Summary())
			return nil
		},
	})

	return cmd
}

package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/datadict/datadict/internal/cli/ui"
	"github.com/datadict/datadict/internal/seed"
)

func newSeedCommand(opts *options) *cobra.Command {
	var skipExisting bool

	cmd := &cobra.Command{
		Use:   "seed FILE",
		Short: "Load roots, fields and models from a YAML file",
		Long: `Load a dictionary document. Roots are created first, then fields, then
models with their bindings. With --skip-existing, entries whose names are
already taken are skipped instead of aborting the load.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}

			e, err := opts.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := seed.NewSeeder(e.service(), e.logger, skipExisting).Apply(cmd.Context(), f)
			if err != nil {
				return err
			}

			ui.WriteSuccess(cmd.OutOrStdout(), "Seed applied", color.NoColor)
			kv := ui.NewKeyValueTable(cmd.OutOrStdout(), color.NoColor)
			kv.AddRow("Roots created", fmt.Sprint(report.RootsCreated))
			kv.AddRow("Fields created", fmt.Sprint(report.FieldsCreated))
			kv.AddRow("Models created", fmt.Sprint(report.ModelsCreated))
			kv.AddRow("Bindings", fmt.Sprint(report.Bindings))
			kv.AddRow("Skipped", fmt.Sprint(report.Skipped))
			kv.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "skip entries whose names already exist")
	return cmd
}

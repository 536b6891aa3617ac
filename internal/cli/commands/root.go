package commands

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/datadict/datadict/internal/cli/ui"
	"github.com/datadict/datadict/internal/dict"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// options are shared by every subcommand
type options struct {
	configPath string
	noColor    bool

	// confirm asks a yes/no question; replaced in tests
	confirm func(message string) (bool, error)
}

func surveyConfirm(message string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: message, Default: true}, &ok)
	return ok, err
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	return newRootCommand(&options{confirm: surveyConfirm})
}

func newRootCommand(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "datadict",
		Short: "Data dictionary service and tooling",
		Long: color.CyanString(`datadict - governed naming for data warehouses

Roots are the approved vocabulary. Fields are named by joining roots in
order, and models bind fields. datadict keeps every canonical name unique
across roots, aliases and fields, and keeps usage counts and lineage
consistent with what references what.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: ./datadict.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newMigrateCommand(opts))
	rootCmd.AddCommand(newCheckCommand(opts))
	rootCmd.AddCommand(newRootsCommand(opts))
	rootCmd.AddCommand(newSeedCommand(opts))
	rootCmd.AddCommand(newTokenCommand(opts))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the datadict version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			kv := ui.NewKeyValueTable(cmd.OutOrStdout(), color.NoColor)
			kv.AddRow("datadict version", Version)
			kv.AddRow("Git commit", GitCommit)
			kv.AddRow("Build date", BuildDate)
			kv.AddRow("Go version", goVer)
			kv.Render()
		},
	}
}

// Execute runs the root command and reports a failure on stderr
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		reportError(rootCmd, err)
		return err
	}
	return nil
}

func reportError(cmd *cobra.Command, err error) {
	if _, ok := dict.AsError(err); ok {
		fmt.Fprint(cmd.ErrOrStderr(), ui.DictionaryError(err, color.NoColor))
		return
	}
	var cfgErr *configError
	if errors.As(err, &cfgErr) {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(cfgErr.Error(), color.NoColor))
		return
	}
	errorColor := color.New(color.FgRed, color.Bold)
	errorColor.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
}

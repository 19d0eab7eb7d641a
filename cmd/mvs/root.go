package main

import (
	"github.com/spf13/cobra"
)

const version = "0.3.0"

func newRootCommand() *cobra.Command {
	var configFlag string
	var verbose bool

	ctx := newCommandContext(&configFlag, &verbose)

	rootCmd := &cobra.Command{
		Use:           "mvs",
		Short:         "Create, build, and share MolViewSpec stories",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress at the configured level instead of warnings only")

	rootCmd.AddCommand(
		// authoring
		newCreateCommand(ctx),
		newBuildCommand(ctx),
		newConvertCommand(ctx),
		newInspectCommand(ctx),
		newWatchCommand(ctx),
		// sharing
		newServeCommand(ctx),
		newLibraryCommand(ctx),
		// operations
		newConfigCommand(ctx),
		newDoctorCommand(ctx),
		newLogsCommand(ctx),
	)

	return rootCmd
}

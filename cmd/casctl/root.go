package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var socketFlag string
	var repoFlag string
	var execFlag string

	ctx := newCommandContext(&configFlag, &socketFlag, &repoFlag, &execFlag)

	rootCmd := &cobra.Command{
		Use:           "casctl",
		Short:         "Lifecycle controller for the casd daemon",
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
	rootCmd.PersistentFlags().StringVar(&socketFlag, "socket", "", "Path to the casctld control socket")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "Repository directory (overrides configuration)")
	rootCmd.PersistentFlags().StringVar(&execFlag, "exec", "", "Path to the casd binary (overrides configuration)")

	rootCmd.AddCommand(newInitCommand(ctx))
	rootCmd.AddCommand(newUpCommand(ctx))
	rootCmd.AddCommand(newDownCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newVersionCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newPoolCommand(ctx))

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

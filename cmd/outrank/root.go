package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outrank",
		Short: "Outrank - generate and rank LLM outputs against a rubric",
		Long: `Outrank generates multiple completions for a prompt, has a judge model
score each one against a criteria template, and ranks the results
best-first.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newRankCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newReportCommand())
	cmd.AddCommand(newModelsCommand())
	cmd.AddCommand(newCacheCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

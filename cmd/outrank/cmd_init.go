package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/outrank-dev/outrank/internal/models"
	"github.com/outrank-dev/outrank/internal/wizard"
)

func newInitCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ranking job",
		Long: `Initialize a new ranking job file.

Creates a job.yaml with a starter prompt and criteria template.

Use --interactive to run a guided wizard that collects the prompt,
model, and run settings.

If no directory is specified, the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initCommandE(cmd, args, interactive)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Run guided job creation wizard")

	return cmd
}

func initCommandE(cmd *cobra.Command, args []string, interactive bool) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	// Create the root directory if it doesn't exist
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	jobPath := filepath.Join(dir, "job.yaml")

	if interactive {
		draft, err := wizard.RunJobWizard(cmd.InOrStdin(), cmd.OutOrStdout(), "")
		if err != nil {
			return fmt.Errorf("wizard failed: %w", err)
		}

		if _, err := wizard.BuildRankingJob(draft); err != nil {
			return fmt.Errorf("invalid job settings: %w", err)
		}

		content, err := wizard.GenerateJobYAML(draft)
		if err != nil {
			return fmt.Errorf("failed to generate job.yaml: %w", err)
		}

		if err := os.WriteFile(jobPath, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write job.yaml: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Initialized ranking job:") //nolint:errcheck
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", jobPath)           //nolint:errcheck
		return nil
	}

	// Generate a starter job.yaml with defaults
	job := models.RankingJob{
		Name:         "my-ranking-job",
		Prompt:       "Write a tagline for a coffee shop",
		Template:     models.DefaultTemplate,
		VariantCount: models.DefaultVariantCount,
		ThreadCount:  2,
		Model:        "openai/gpt-4o-mini",
		Provider:     "openrouter",
	}

	jobData, err := yaml.Marshal(&job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := os.WriteFile(jobPath, jobData, 0o644); err != nil {
		return fmt.Errorf("failed to write job.yaml: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Initialized ranking job:") //nolint:errcheck
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", jobPath)           //nolint:errcheck

	return nil
}

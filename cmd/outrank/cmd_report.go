package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/outrank-dev/outrank/internal/models"
	"github.com/outrank-dev/outrank/internal/providers"
	"github.com/outrank-dev/outrank/internal/reporting"
)

func newReportCommand() *cobra.Command {
	var (
		format     string
		reportPath string
	)

	cmd := &cobra.Command{
		Use:   "report <outcome.json>",
		Short: "Render a saved ranking outcome",
		Long: `Render a saved ranking outcome as a readable report.

Reads the JSON file produced by 'rank --output' and renders it as
markdown, HTML, or a plain-language summary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return reportCommandE(cmd, args[0], format, reportPath)
		},
	}

	cmd.Flags().StringVar(&format, "format", "markdown", "Report format: markdown, html, summary")
	cmd.Flags().StringVarP(&reportPath, "output", "o", "", "Write the report to a file instead of stdout")

	return cmd
}

func reportCommandE(cmd *cobra.Command, outcomePath, format, reportPath string) error {
	data, err := os.ReadFile(outcomePath)
	if err != nil {
		return fmt.Errorf("failed to read outcome: %w", err)
	}

	var outcome models.RankingOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return fmt.Errorf("failed to parse outcome: %w", err)
	}

	var rendered []byte
	switch format {
	case "markdown":
		rendered = []byte(reporting.FormatMarkdown(&outcome))
	case "html":
		md := reporting.FormatMarkdown(&outcome)
		rendered, err = reporting.RenderHTML([]byte(md))
		if err != nil {
			return fmt.Errorf("failed to render HTML: %w", err)
		}
	case "summary":
		rendered = []byte(reporting.FormatSummaryReport(&outcome))
	default:
		return fmt.Errorf("unknown report format: %s (supported: markdown, html, summary)", format)
	}

	if reportPath != "" {
		if err := os.WriteFile(reportPath, rendered, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report saved to: %s\n", reportPath) //nolint:errcheck
		return nil
	}

	_, err = cmd.OutOrStdout().Write(rendered)
	return err
}

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List known model aliases",
		Long:  `List the model aliases that 'rank --model' resolves to full provider names.`,
		RunE:  modelsCommandE,
	}
}

func modelsCommandE(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, alias := range providers.ModelAliases() {
		fmt.Fprintf(out, "%-20s %s\n", alias, providers.ResolveModelAlias(alias)) //nolint:errcheck
	}
	return nil
}

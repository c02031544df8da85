package reporting

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/outrank-dev/outrank/internal/models"
	"github.com/outrank-dev/outrank/internal/statistics"
)

func sampleOutcome() *models.RankingOutcome {
	return &models.RankingOutcome{
		RunID:     "run-20260831-120000-1a2b",
		JobName:   "tagline",
		Prompt:    "Write a tagline for a coffee shop",
		Model:     "openai/gpt-4o-mini",
		Provider:  "openrouter",
		Timestamp: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		State:     models.StateCompleted,
		Digest: models.RunDigest{
			Attempted: 4,
			Succeeded: 3,
			Dropped:   1,
			Batches:   2,
			BestScore: 0.91,
			MeanScore: 0.72,
			MinScore:  0.48,
			MaxScore:  0.91,
			StdDev:    0.18,
			ScoreCI: &statistics.ConfidenceInterval{
				Lower: 0.55, Upper: 0.88, Mean: 0.72, ConfidenceLevel: 0.95, NumBootstraps: 10000,
			},
			DurationMs: 4200,
		},
		Outputs: []models.RankedOutput{
			{
				Index:   2,
				Output:  "Brewed awakenings, daily.",
				LogProb: 0.91,
				AttributeScores: []models.AttributeScore{
					{Name: "catchy", Score: 0.95, Explanation: "strong pun"},
					{Name: "clear", Score: 0.87},
				},
			},
			{Index: 0, Output: "Coffee, but better.", LogProb: 0.77},
			{Index: 1, Output: "We sell coffee here.", LogProb: 0.48},
		},
	}
}

func TestFormatMarkdown(t *testing.T) {
	md := FormatMarkdown(sampleOutcome())

	require.Contains(t, md, "# tagline")
	require.Contains(t, md, "run-20260831-120000-1a2b")
	require.Contains(t, md, "openai/gpt-4o-mini")
	require.Contains(t, md, "> Write a tagline for a coffee shop")
	require.Contains(t, md, "| 4 | 3 | 1 | 2 |")
	require.Contains(t, md, "Score 95% CI: [0.550, 0.880]")
	require.Contains(t, md, "### 1. Score 0.910 (candidate 2)")
	require.Contains(t, md, "Brewed awakenings, daily.")
	require.Contains(t, md, "| catchy | 0.950 |")
	require.Contains(t, md, "**catchy:** strong pun")

	// Outputs appear best-first.
	require.Less(t,
		strings.Index(md, "Brewed awakenings"),
		strings.Index(md, "We sell coffee here"))
}

func TestFormatMarkdown_Failed(t *testing.T) {
	outcome := sampleOutcome()
	outcome.State = models.StateFailed
	outcome.Error = "all candidates failed"
	outcome.Outputs = nil

	md := FormatMarkdown(outcome)
	require.Contains(t, md, "**State:** failed")
	require.Contains(t, md, "all candidates failed")
	require.NotContains(t, md, "## Ranked Outputs")
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML([]byte(FormatMarkdown(sampleOutcome())))
	require.NoError(t, err)

	s := string(html)
	require.Contains(t, s, "<!DOCTYPE html>")
	require.Contains(t, s, "<h1>tagline</h1>")
	require.Contains(t, s, "<table>")
	require.Contains(t, s, "Brewed awakenings, daily.")
}

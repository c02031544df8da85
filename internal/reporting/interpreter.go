package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/outrank-dev/outrank/internal/models"
)

// InterpretScore returns a plain-language label for a score (0–1).
func InterpretScore(score float64) string {
	pct := score * 100
	switch {
	case pct > 90:
		return "Excellent (>90%)"
	case pct >= 70:
		return "Good (70-90%)"
	case pct >= 50:
		return "Mixed (50-70%)"
	default:
		return "Poor (<50%)"
	}
}

// InterpretSpread explains how separated the candidates are. A tight
// spread means the rubric is not discriminating between them.
func InterpretSpread(stdDev float64) string {
	switch {
	case stdDev < 0.05:
		return "Scores are nearly identical - the rubric barely separates these candidates."
	case stdDev < 0.15:
		return "Scores are close together. Consider a stricter rubric or more variants."
	default:
		return "Scores are well separated."
	}
}

// InterpretDropRate explains candidate loss during the run.
func InterpretDropRate(attempted, dropped int) string {
	if attempted == 0 || dropped == 0 {
		return "All candidates survived the pipeline."
	}
	pct := float64(dropped) / float64(attempted) * 100
	if pct >= 50 {
		return fmt.Sprintf("%d of %d candidates were dropped (%.0f%%) - check provider health and rate limits.", dropped, attempted, pct)
	}
	return fmt.Sprintf("%d of %d candidates were dropped (%.0f%%).", dropped, attempted, pct)
}

// FormatSummaryReport produces a full plain-language report from a
// RankingOutcome.
func FormatSummaryReport(outcome *models.RankingOutcome) string {
	var b strings.Builder

	d := outcome.Digest
	duration := time.Duration(d.DurationMs) * time.Millisecond

	b.WriteString("=== Interpretation ===\n\n")

	fmt.Fprintf(&b, "State:      %s\n", outcome.State)
	fmt.Fprintf(&b, "Best Score: %.2f - %s\n", d.BestScore, InterpretScore(d.BestScore))
	fmt.Fprintf(&b, "Mean Score: %.2f - %s\n", d.MeanScore, InterpretScore(d.MeanScore))
	fmt.Fprintf(&b, "Duration:   %v\n", duration)

	if d.Attempted > 0 {
		fmt.Fprintf(&b, "Candidates: %d survived out of %d attempted in %d batches\n",
			d.Succeeded, d.Attempted, d.Batches)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n", InterpretSpread(d.StdDev))
	fmt.Fprintf(&b, "%s\n", InterpretDropRate(d.Attempted, d.Dropped))

	if d.ScoreCI != nil && d.ScoreCI.Width() > 0.3 {
		fmt.Fprintf(&b, "The score confidence interval is wide ([%.2f, %.2f]) - judgments are noisy at this sample size.\n",
			d.ScoreCI.Lower, d.ScoreCI.Upper)
	}
	if d.StoppedEarly {
		b.WriteString("The run auto-stopped after scores plateaued.\n")
	}

	if best := outcome.Best(); best != nil {
		fmt.Fprintf(&b, "\nTop candidate (index %d, score %.2f):\n%s\n", best.Index, best.LogProb, best.Output)
	}

	return b.String()
}

package reporting

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outrank-dev/outrank/internal/models"
	"github.com/outrank-dev/outrank/internal/statistics"
)

func TestInterpretScore(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.95, "Excellent (>90%)"},
		{0.901, "Excellent (>90%)"},
		{0.90, "Good (70-90%)"},
		{0.70, "Good (70-90%)"},
		{0.69, "Mixed (50-70%)"},
		{0.50, "Mixed (50-70%)"},
		{0.49, "Poor (<50%)"},
		{0.0, "Poor (<50%)"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, InterpretScore(tt.score), "score %v", tt.score)
	}
}

func TestInterpretSpread(t *testing.T) {
	require.Contains(t, InterpretSpread(0.01), "nearly identical")
	require.Contains(t, InterpretSpread(0.10), "close together")
	require.Contains(t, InterpretSpread(0.25), "well separated")
}

func TestInterpretDropRate(t *testing.T) {
	require.Equal(t, "All candidates survived the pipeline.", InterpretDropRate(5, 0))
	require.Equal(t, "All candidates survived the pipeline.", InterpretDropRate(0, 0))
	require.Equal(t, "1 of 4 candidates were dropped (25%).", InterpretDropRate(4, 1))
	require.Contains(t, InterpretDropRate(4, 2), "check provider health")
}

func TestFormatSummaryReport(t *testing.T) {
	report := FormatSummaryReport(sampleOutcome())

	require.Contains(t, report, "=== Interpretation ===")
	require.Contains(t, report, "State:      completed")
	require.Contains(t, report, "Best Score: 0.91 - Excellent (>90%)")
	require.Contains(t, report, "Mean Score: 0.72 - Good (70-90%)")
	require.Contains(t, report, "Candidates: 3 survived out of 4 attempted in 2 batches")
	require.Contains(t, report, "Scores are well separated.")
	require.Contains(t, report, "1 of 4 candidates were dropped (25%).")
	require.Contains(t, report, "confidence interval is wide ([0.55, 0.88])")
	require.Contains(t, report, "Top candidate (index 2, score 0.91)")
	require.Contains(t, report, "Brewed awakenings, daily.")
	require.NotContains(t, report, "auto-stopped")
}

func TestFormatSummaryReport_AutoStopped(t *testing.T) {
	outcome := sampleOutcome()
	outcome.Digest.StoppedEarly = true
	outcome.Digest.ScoreCI = &statistics.ConfidenceInterval{
		Lower: 0.65, Upper: 0.80, Mean: 0.72, ConfidenceLevel: 0.95, NumBootstraps: 10000,
	}

	report := FormatSummaryReport(outcome)
	require.Contains(t, report, "auto-stopped after scores plateaued")
	require.NotContains(t, report, "confidence interval is wide")
}

func TestFormatSummaryReport_NoOutputs(t *testing.T) {
	outcome := sampleOutcome()
	outcome.State = models.StateFailed
	outcome.Outputs = nil

	report := FormatSummaryReport(outcome)
	require.Contains(t, report, "State:      failed")
	require.NotContains(t, report, "Top candidate")
}

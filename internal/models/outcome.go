package models

import (
	"math"
	"time"

	"github.com/outrank-dev/outrank/internal/statistics"
)

// RunState is the lifecycle state of a ranking run.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateAborted   RunState = "aborted"
	StateFailed    RunState = "failed"
)

// Terminal reports whether the run has finished, for any reason.
func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateAborted || s == StateFailed
}

// RunDigest summarizes a finished run.
type RunDigest struct {
	// Attempted counts candidates that got an index assigned, including
	// dropped ones.
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Dropped   int `json:"dropped"`
	Batches   int `json:"batches"`

	BestScore float64 `json:"best_score"`
	MeanScore float64 `json:"mean_score"`
	MinScore  float64 `json:"min_score"`
	MaxScore  float64 `json:"max_score"`
	StdDev    float64 `json:"std_dev"`

	// ScoreCI is a bootstrap confidence interval over the surviving
	// candidates' scores. Omitted for runs too small to resample.
	ScoreCI *statistics.ConfidenceInterval `json:"score_ci,omitempty"`

	// StoppedEarly is set when an auto-stop run ended because scores
	// plateaued rather than because of cancellation or failure.
	StoppedEarly bool `json:"stopped_early,omitempty"`

	DurationMs int64 `json:"duration_ms"`
}

// RankingOutcome is the persisted result of one ranking run. Outputs are
// always sorted best-first, even when the run aborted or failed partway.
type RankingOutcome struct {
	RunID     string    `json:"run_id"`
	JobName   string    `json:"job_name,omitempty"`
	Prompt    string    `json:"prompt"`
	Model     string    `json:"model"`
	Provider  string    `json:"provider,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	State RunState `json:"state"`

	// Error holds the failure reason when State is failed.
	Error string `json:"error,omitempty"`

	Digest  RunDigest      `json:"digest"`
	Outputs []RankedOutput `json:"outputs"`
}

// Best returns the top-ranked output, or nil when the run produced none.
func (o *RankingOutcome) Best() *RankedOutput {
	if len(o.Outputs) == 0 {
		return nil
	}
	return &o.Outputs[0]
}

// BuildDigest computes the summary block for a set of surviving outputs.
func BuildDigest(outputs []RankedOutput, attempted, batches int, stoppedEarly bool, duration time.Duration) RunDigest {
	d := RunDigest{
		Attempted:    attempted,
		Succeeded:    len(outputs),
		Dropped:      attempted - len(outputs),
		Batches:      batches,
		StoppedEarly: stoppedEarly,
		DurationMs:   duration.Milliseconds(),
	}

	if len(outputs) == 0 {
		return d
	}

	scores := make([]float64, 0, len(outputs))
	minScore := math.Inf(1)
	maxScore := math.Inf(-1)
	sum := 0.0
	for _, out := range outputs {
		scores = append(scores, out.LogProb)
		sum += out.LogProb
		minScore = math.Min(minScore, out.LogProb)
		maxScore = math.Max(maxScore, out.LogProb)
	}

	d.BestScore = maxScore
	d.MaxScore = maxScore
	d.MinScore = minScore
	d.MeanScore = sum / float64(len(scores))
	d.StdDev = ComputeStdDev(scores)

	if len(scores) >= 2 {
		ci := statistics.BootstrapCI(scores)
		d.ScoreCI = &ci
	}

	return d
}

// ComputeStdDev calculates the sample standard deviation of values.
// Returns 0 for fewer than two values.
func ComputeStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0.0
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(n - 1)

	return math.Sqrt(variance)
}

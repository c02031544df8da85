package models

import "sort"

// AttributeScore is one rubric attribute's score for a candidate.
type AttributeScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`

	// Explanation carries the judge's reasoning when the judgment value
	// was a structured object rather than a bare boolean.
	Explanation string `json:"explanation,omitempty"`
}

// RankedOutput is one generated candidate together with its judgment.
type RankedOutput struct {
	// Index is the candidate's generation order, assigned before the
	// generation call is made. Indices are dense per run; a dropped
	// candidate leaves a gap in the surviving set.
	Index int `json:"index"`

	// Output is the generated completion text.
	Output string `json:"output"`

	// LogProb is the candidate's overall score, the mean of its
	// attribute scores. Higher is better.
	LogProb float64 `json:"logprob"`

	AttributeScores []AttributeScore `json:"attribute_scores,omitempty"`

	// RawEvaluation is the judge's verbatim response, kept for debugging
	// parse fallbacks.
	RawEvaluation string `json:"raw_evaluation,omitempty"`

	DurationMs int64 `json:"duration_ms,omitempty"`
}

// SortRankedOutputs orders outputs best-first. The sort is stable so
// equal scores keep generation order.
func SortRankedOutputs(outputs []RankedOutput) {
	sort.SliceStable(outputs, func(i, j int) bool {
		return outputs[i].LogProb > outputs[j].LogProb
	})
}

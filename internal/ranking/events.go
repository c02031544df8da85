package ranking

import "github.com/outrank-dev/outrank/internal/models"

// ProgressListener receives progress updates during a run.
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventRankStart         EventType = "rank_start"
	EventRankComplete      EventType = "rank_complete"
	EventRankCached        EventType = "rank_cached"
	EventBatchStart        EventType = "batch_start"
	EventBatchComplete     EventType = "batch_complete"
	EventCandidateStart    EventType = "candidate_start"
	EventCandidateComplete EventType = "candidate_complete"
	EventCandidateDropped  EventType = "candidate_dropped"
	EventAutoStop          EventType = "auto_stop"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType EventType

	// Index is the candidate index for candidate-level events.
	Index int

	// BatchNum is 1-based for batch-level events.
	BatchNum  int
	BatchSize int

	// Total is the target variant count, 0 for auto-stop runs.
	Total int

	// Score is the candidate score on candidate_complete, or the best
	// score so far on batch_complete.
	Score float64

	State      models.RunState
	DurationMs int64

	// Snapshot is the sorted surviving outputs, set on batch_complete
	// and rank_complete. Listeners own the slice.
	Snapshot []models.RankedOutput

	Details map[string]any
}

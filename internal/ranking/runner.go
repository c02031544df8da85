// Package ranking orchestrates ranking runs: batches of candidate
// pipelines, score tracking, auto-stop, and lifecycle state.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/sync/errgroup"

	"github.com/outrank-dev/outrank/internal/cache"
	"github.com/outrank-dev/outrank/internal/config"
	"github.com/outrank-dev/outrank/internal/evaluation"
	"github.com/outrank-dev/outrank/internal/models"
	"github.com/outrank-dev/outrank/internal/providers"
)

// ErrRunnerReused reports a second Run call on the same Runner. A
// finished run cannot be restarted; create a new Runner.
var ErrRunnerReused = errors.New("runner has already been started")

// ErrAllCandidatesFailed reports a run where every candidate pipeline
// failed. The returned outcome still carries the (empty) result set.
var ErrAllCandidatesFailed = errors.New("all candidates failed")

// Runner executes one ranking run.
type Runner struct {
	cfg      *config.RankerConfig
	provider providers.CompletionProvider
	scorer   *evaluation.Scorer
	schema   *jsonschema.Schema

	cache *cache.Cache

	progressMu sync.Mutex
	listeners  []ProgressListener

	stateMu sync.Mutex
	state   models.RunState
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCache enables result caching.
func WithCache(c *cache.Cache) RunnerOption {
	return func(r *Runner) {
		r.cache = c
	}
}

// WithScorer overrides the scorer. Tests use this to pin seeds.
func WithScorer(s *evaluation.Scorer) RunnerOption {
	return func(r *Runner) {
		r.scorer = s
	}
}

// NewRunner creates a runner for the given config and provider.
func NewRunner(cfg *config.RankerConfig, provider providers.CompletionProvider, opts ...RunnerOption) (*Runner, error) {
	job := cfg.Job()
	if job == nil {
		return nil, fmt.Errorf("config has no job")
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job: %w", err)
	}

	r := &Runner{
		cfg:       cfg,
		provider:  provider,
		scorer:    evaluation.NewScorer(cfg.Seed()),
		listeners: []ProgressListener{},
		state:     models.StateIdle,
	}

	if job.EvaluationSchema != nil {
		schema, err := evaluation.CompileSchema(job.EvaluationSchema)
		if err != nil {
			return nil, err
		}
		r.schema = schema
	}

	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// OnProgress registers a progress listener.
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}

// State returns the run's lifecycle state.
func (r *Runner) State() models.RunState {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.state
}

func (r *Runner) setState(s models.RunState) {
	r.stateMu.Lock()
	r.state = s
	r.stateMu.Unlock()
}

// batchResult tracks one batch worker's output. A nil output with a nil
// err means the candidate was dropped due to cancellation.
type batchResult struct {
	output *models.RankedOutput
	err    error
}

// Run executes the ranking run to completion. The returned outcome is
// non-nil whenever the run started, including aborted and failed runs,
// and its outputs are sorted best-first. The error is non-nil only for
// failed runs.
func (r *Runner) Run(ctx context.Context) (*models.RankingOutcome, error) {
	r.stateMu.Lock()
	if r.state != models.StateIdle {
		r.stateMu.Unlock()
		return nil, ErrRunnerReused
	}
	r.state = models.StateRunning
	r.stateMu.Unlock()

	job := r.cfg.Job()
	start := time.Now()

	if r.cache != nil {
		if key, err := cache.Key(job, r.provider.Name()); err == nil {
			if cached, ok := r.cache.Get(key); ok {
				slog.Debug("cache hit", "key", key)
				r.setState(models.StateCompleted)
				r.notifyProgress(ProgressEvent{
					EventType: EventRankCached,
					State:     models.StateCompleted,
					Snapshot:  append([]models.RankedOutput(nil), cached.Outputs...),
				})
				return cached, nil
			}
		}
	}

	total := job.VariantCount
	if job.AutoStop {
		total = 0
	}

	r.notifyProgress(ProgressEvent{
		EventType: EventRankStart,
		Total:     total,
		State:     models.StateRunning,
	})

	outcome := &models.RankingOutcome{
		RunID:     newRunID(),
		JobName:   job.Name,
		Prompt:    job.Prompt,
		Model:     job.Model,
		Provider:  r.provider.Name(),
		Timestamp: start.UTC(),
	}

	var (
		outputs      []models.RankedOutput
		attempted    int
		batches      int
		nextIndex    int
		best         = math.Inf(-1)
		noImprove    int
		stoppedEarly bool
	)

	for {
		if ctx.Err() != nil {
			break
		}

		batchSize := job.ThreadCount
		if !job.AutoStop {
			remaining := job.VariantCount - nextIndex
			if remaining <= 0 {
				break
			}
			if batchSize > remaining {
				batchSize = remaining
			}
		}

		batches++
		r.notifyProgress(ProgressEvent{
			EventType: EventBatchStart,
			BatchNum:  batches,
			BatchSize: batchSize,
			Total:     total,
		})

		// Indices are assigned before any calls are made, so a dropped
		// candidate still consumes its index.
		firstIndex := nextIndex
		nextIndex += batchSize
		attempted += batchSize

		results := r.runBatch(ctx, firstIndex, batchSize, total)

		batchBest := math.Inf(-1)
		for _, res := range results {
			if res.output == nil {
				continue
			}
			outputs = append(outputs, *res.output)
			if res.output.LogProb > batchBest {
				batchBest = res.output.LogProb
			}
		}

		models.SortRankedOutputs(outputs)

		if ctx.Err() != nil {
			break
		}

		improved := batchBest > best
		if improved {
			best = batchBest
			noImprove = 0
		} else {
			noImprove++
		}

		r.notifyProgress(ProgressEvent{
			EventType: EventBatchComplete,
			BatchNum:  batches,
			BatchSize: batchSize,
			Total:     total,
			Score:     best,
			Snapshot:  append([]models.RankedOutput(nil), outputs...),
			Details:   map[string]any{"improved": improved},
		})

		if job.AutoStop && noImprove >= job.AutoStopThreshold {
			stoppedEarly = true
			r.notifyProgress(ProgressEvent{
				EventType: EventAutoStop,
				BatchNum:  batches,
				Score:     best,
				Details:   map[string]any{"batches_without_improvement": noImprove},
			})
			break
		}
	}

	outcome.Outputs = outputs
	outcome.Digest = models.BuildDigest(outputs, attempted, batches, stoppedEarly, time.Since(start))

	var runErr error
	switch {
	case ctx.Err() != nil:
		outcome.State = models.StateAborted
	case attempted > 0 && len(outputs) == 0:
		outcome.State = models.StateFailed
		outcome.Error = ErrAllCandidatesFailed.Error()
		runErr = fmt.Errorf("%w (%d attempted)", ErrAllCandidatesFailed, attempted)
	default:
		outcome.State = models.StateCompleted
	}
	r.setState(outcome.State)

	if r.cache != nil && outcome.State == models.StateCompleted {
		if key, err := cache.Key(job, r.provider.Name()); err == nil {
			if err := r.cache.Put(key, outcome); err != nil {
				slog.Warn("failed to write cache entry", "error", err)
			}
		}
	}

	r.notifyProgress(ProgressEvent{
		EventType:  EventRankComplete,
		State:      outcome.State,
		Score:      outcome.Digest.BestScore,
		DurationMs: outcome.Digest.DurationMs,
		Snapshot:   append([]models.RankedOutput(nil), outputs...),
	})

	return outcome, runErr
}

// runBatch runs batchSize candidate pipelines concurrently. A failed
// pipeline drops its candidate; it never fails the batch.
func (r *Runner) runBatch(ctx context.Context, firstIndex, batchSize, total int) []batchResult {
	results := make([]batchResult, batchSize)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < batchSize; i++ {
		slot := i
		index := firstIndex + i

		g.Go(func() error {
			r.notifyProgress(ProgressEvent{
				EventType: EventCandidateStart,
				Index:     index,
				Total:     total,
			})

			out, err := r.runPipeline(gctx, index)
			if err != nil {
				results[slot] = batchResult{err: err}
				if gctx.Err() == nil {
					slog.Debug("candidate dropped", "index", index, "error", err)
					r.notifyProgress(ProgressEvent{
						EventType: EventCandidateDropped,
						Index:     index,
						Total:     total,
						Details:   map[string]any{"error": err.Error()},
					})
				}
				return nil
			}

			results[slot] = batchResult{output: out}
			r.notifyProgress(ProgressEvent{
				EventType:  EventCandidateComplete,
				Index:      index,
				Total:      total,
				Score:      out.LogProb,
				DurationMs: out.DurationMs,
			})
			return nil
		})
	}

	// Workers always return nil; Wait is just the join point.
	_ = g.Wait()
	return results
}

func newRunID() string {
	return fmt.Sprintf("run-%s-%04x", time.Now().UTC().Format("20060102-150405"), rand.Intn(0x10000))
}

package ranking

import (
	"context"
	"sync"

	"github.com/outrank-dev/outrank/internal/config"
	"github.com/outrank-dev/outrank/internal/models"
	"github.com/outrank-dev/outrank/internal/providers"
)

// Subscription is a handle to a ranking run in progress. Snapshots of
// the current ranking arrive on Snapshots as batches finish; Done closes
// when the run reaches a terminal state.
type Subscription struct {
	runner *Runner
	cancel context.CancelFunc

	snapshots chan []models.RankedOutput
	done      chan struct{}

	mu      sync.Mutex
	outcome *models.RankingOutcome
	err     error
}

// snapshotBuffer bounds the snapshots channel. A slow consumer loses
// old snapshots, never new ones.
const snapshotBuffer = 8

// StartRanking begins a run in the background and returns a handle to
// it. Runner construction errors surface through Outcome after Done
// closes, which happens immediately in that case.
func StartRanking(ctx context.Context, cfg *config.RankerConfig, provider providers.CompletionProvider, opts ...RunnerOption) *Subscription {
	ctx, cancel := context.WithCancel(ctx)

	sub := &Subscription{
		cancel:    cancel,
		snapshots: make(chan []models.RankedOutput, snapshotBuffer),
		done:      make(chan struct{}),
	}

	runner, err := NewRunner(cfg, provider, opts...)
	if err != nil {
		sub.err = err
		close(sub.snapshots)
		close(sub.done)
		cancel()
		return sub
	}
	sub.runner = runner

	runner.OnProgress(func(event ProgressEvent) {
		if event.EventType != EventBatchComplete && event.EventType != EventRankCached {
			return
		}
		sub.push(event.Snapshot)
	})

	go func() {
		defer close(sub.done)
		defer cancel()

		outcome, err := runner.Run(ctx)

		sub.mu.Lock()
		sub.outcome = outcome
		sub.err = err
		sub.mu.Unlock()

		close(sub.snapshots)
	}()

	return sub
}

// push delivers a snapshot without blocking, discarding the oldest
// pending snapshot when the buffer is full.
func (s *Subscription) push(snapshot []models.RankedOutput) {
	for {
		select {
		case s.snapshots <- snapshot:
			return
		default:
		}
		select {
		case <-s.snapshots:
		default:
		}
	}
}

// Snapshots delivers the sorted surviving outputs after each batch. The
// channel closes when the run finishes.
func (s *Subscription) Snapshots() <-chan []models.RankedOutput {
	return s.snapshots
}

// Done closes when the run reaches a terminal state.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Cancel stops the run. Completed candidates are kept; the outcome will
// be in the aborted state. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.cancel()
}

// State returns the run's lifecycle state.
func (s *Subscription) State() models.RunState {
	if s.runner == nil {
		return models.StateFailed
	}
	return s.runner.State()
}

// Outcome returns the run result and error. Valid after Done closes;
// before that it returns nil.
func (s *Subscription) Outcome() (*models.RankingOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome, s.err
}

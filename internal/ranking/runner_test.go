package ranking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outrank-dev/outrank/internal/config"
	"github.com/outrank-dev/outrank/internal/models"
	"github.com/outrank-dev/outrank/internal/providers"
)

// scriptedProvider gives tests full control over generation and
// judgment responses, plus concurrency accounting.
type scriptedProvider struct {
	mu          sync.Mutex
	genCalls    int
	inFlight    int
	maxInFlight int
	generate    func(genCall int) (string, error)
	judge       func(candidate string) (string, error)
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) CreateChatCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.inFlight++
	if p.inFlight > p.maxInFlight {
		p.maxInFlight = p.inFlight
	}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	var user string
	for _, m := range req.Messages {
		if m.Role == providers.RoleUser {
			user = m.Content
		}
	}

	var content string
	var err error
	if strings.Contains(user, "Text to evaluate:") {
		candidate := strings.TrimPrefix(strings.SplitN(user, "\n\n", 2)[0], "Text to evaluate:\n")
		if p.judge != nil {
			content, err = p.judge(candidate)
		} else {
			content = `{"interesting": true, "useful": false}`
		}
	} else {
		p.mu.Lock()
		p.genCalls++
		call := p.genCalls
		p.mu.Unlock()
		if p.generate != nil {
			content, err = p.generate(call)
		} else {
			content = fmt.Sprintf("cand-%d", call)
		}
	}
	if err != nil {
		return nil, err
	}

	return &providers.CompletionResponse{
		Choices: []providers.Choice{{Message: providers.Message{Role: providers.RoleAssistant, Content: content}}},
	}, nil
}

func testRunnerJob(variants, threads int) *models.RankingJob {
	job := &models.RankingJob{
		Prompt:       "Write a tagline for a coffee shop",
		Model:        "test-model",
		VariantCount: variants,
		ThreadCount:  threads,
		Template:     `{"interesting": LOGPROB_TRUE, "useful": LOGPROB_TRUE}`,
	}
	job.ApplyDefaults()
	return job
}

func TestRunner_CompletesAndSorts(t *testing.T) {
	p := &scriptedProvider{}
	cfg := config.NewRankerConfig(testRunnerJob(3, 1), config.WithSeed(11))

	r, err := NewRunner(cfg, p)
	require.NoError(t, err)
	require.Equal(t, models.StateIdle, r.State())

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.StateCompleted, outcome.State)
	require.Equal(t, models.StateCompleted, r.State())

	require.Len(t, outcome.Outputs, 3)
	for i := 1; i < len(outcome.Outputs); i++ {
		require.GreaterOrEqual(t, outcome.Outputs[i-1].LogProb, outcome.Outputs[i].LogProb)
	}

	// Every output carries one score per rubric attribute, and the
	// candidate score is their mean.
	for _, out := range outcome.Outputs {
		require.Len(t, out.AttributeScores, 2)
		mean := (out.AttributeScores[0].Score + out.AttributeScores[1].Score) / 2
		require.InDelta(t, mean, out.LogProb, 1e-9)
		require.NotEmpty(t, out.Output)
		require.NotEmpty(t, out.RawEvaluation)
	}

	require.Equal(t, 3, outcome.Digest.Attempted)
	require.Equal(t, 3, outcome.Digest.Succeeded)
	require.Zero(t, outcome.Digest.Dropped)
	require.Equal(t, 3, outcome.Digest.Batches)
}

func TestRunner_IndicesDenseAndUnique(t *testing.T) {
	p := &scriptedProvider{}
	cfg := config.NewRankerConfig(testRunnerJob(7, 3), config.WithSeed(1))

	r, err := NewRunner(cfg, p)
	require.NoError(t, err)

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcome.Outputs, 7)

	seen := map[int]bool{}
	for _, out := range outcome.Outputs {
		require.False(t, seen[out.Index], "index %d assigned twice", out.Index)
		require.GreaterOrEqual(t, out.Index, 0)
		require.Less(t, out.Index, 7)
		seen[out.Index] = true
	}
}

func TestRunner_BatchBound(t *testing.T) {
	p := &scriptedProvider{}
	cfg := config.NewRankerConfig(testRunnerJob(10, 3), config.WithSeed(2))

	r, err := NewRunner(cfg, p)
	require.NoError(t, err)

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)

	// 10 variants at 3 threads: batches of 3, 3, 3, 1.
	require.Equal(t, 4, outcome.Digest.Batches)
	require.Equal(t, 10, outcome.Digest.Attempted)
	require.LessOrEqual(t, p.maxInFlight, 3)
	require.Equal(t, 10, p.genCalls)
}

func TestRunner_PartialFailure(t *testing.T) {
	p := &scriptedProvider{
		generate: func(genCall int) (string, error) {
			if genCall == 4 {
				return "", errors.New("rate limited")
			}
			return fmt.Sprintf("cand-%d", genCall), nil
		},
	}
	cfg := config.NewRankerConfig(testRunnerJob(5, 1), config.WithSeed(3))

	r, err := NewRunner(cfg, p)
	require.NoError(t, err)

	var dropped []int
	r.OnProgress(func(e ProgressEvent) {
		if e.EventType == EventCandidateDropped {
			dropped = append(dropped, e.Index)
		}
	})

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.StateCompleted, outcome.State)

	// Candidate 3 dropped; the other four survive with their original
	// indices.
	require.Len(t, outcome.Outputs, 4)
	indices := map[int]bool{}
	for _, out := range outcome.Outputs {
		indices[out.Index] = true
	}
	require.Equal(t, map[int]bool{0: true, 1: true, 2: true, 4: true}, indices)
	require.Equal(t, []int{3}, dropped)

	require.Equal(t, 5, outcome.Digest.Attempted)
	require.Equal(t, 4, outcome.Digest.Succeeded)
	require.Equal(t, 1, outcome.Digest.Dropped)
}

func TestRunner_AutoStop(t *testing.T) {
	// Batch 1 judges true (high band), every later batch judges false
	// (low band), so the best score never improves again.
	p := &scriptedProvider{
		judge: func(candidate string) (string, error) {
			if candidate == "cand-1" || candidate == "cand-2" {
				return `{"interesting": true, "useful": true}`, nil
			}
			return `{"interesting": false, "useful": false}`, nil
		},
	}

	job := testRunnerJob(0, 2)
	job.AutoStop = true
	job.AutoStopThreshold = 2
	job.ApplyDefaults()

	cfg := config.NewRankerConfig(job, config.WithSeed(4))
	r, err := NewRunner(cfg, p)
	require.NoError(t, err)

	var autoStops int
	r.OnProgress(func(e ProgressEvent) {
		if e.EventType == EventAutoStop {
			autoStops++
		}
	})

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.StateCompleted, outcome.State)

	// Improving batch, then exactly two non-improving batches.
	require.Equal(t, 3, outcome.Digest.Batches)
	require.True(t, outcome.Digest.StoppedEarly)
	require.Equal(t, 1, autoStops)
	require.Len(t, outcome.Outputs, 6)

	// The batch 1 candidates hold the top of the ranking.
	top := outcome.Outputs[0].Output
	require.Contains(t, []string{"cand-1", "cand-2"}, top)
}

func TestRunner_AllCandidatesFailed(t *testing.T) {
	p := &scriptedProvider{
		generate: func(int) (string, error) {
			return "", errors.New("provider down")
		},
	}
	cfg := config.NewRankerConfig(testRunnerJob(4, 2), config.WithSeed(5))

	r, err := NewRunner(cfg, p)
	require.NoError(t, err)

	outcome, err := r.Run(context.Background())
	require.ErrorIs(t, err, ErrAllCandidatesFailed)
	require.NotNil(t, outcome)
	require.Equal(t, models.StateFailed, outcome.State)
	require.Empty(t, outcome.Outputs)
	require.Equal(t, 4, outcome.Digest.Attempted)
	require.NotEmpty(t, outcome.Error)
}

func TestRunner_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := &scriptedProvider{
		generate: func(genCall int) (string, error) {
			if genCall >= 3 {
				cancel()
				return "", ctx.Err()
			}
			return fmt.Sprintf("cand-%d", genCall), nil
		},
	}
	cfg := config.NewRankerConfig(testRunnerJob(6, 1), config.WithSeed(6))

	r, err := NewRunner(cfg, p)
	require.NoError(t, err)

	outcome, err := r.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, models.StateAborted, outcome.State)

	// The two candidates that finished before cancellation survive,
	// sorted.
	require.Len(t, outcome.Outputs, 2)
	for i := 1; i < len(outcome.Outputs); i++ {
		require.GreaterOrEqual(t, outcome.Outputs[i-1].LogProb, outcome.Outputs[i].LogProb)
	}
}

func TestRunner_CannotBeReused(t *testing.T) {
	p := &scriptedProvider{}
	cfg := config.NewRankerConfig(testRunnerJob(1, 1), config.WithSeed(7))

	r, err := NewRunner(cfg, p)
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.ErrorIs(t, err, ErrRunnerReused)
}

func TestRunner_InvalidJob(t *testing.T) {
	cfg := config.NewRankerConfig(&models.RankingJob{})
	_, err := NewRunner(cfg, &scriptedProvider{})
	require.ErrorContains(t, err, "invalid job")
}

func TestRunner_UnparseableJudgmentUsesTemplateFallback(t *testing.T) {
	p := &scriptedProvider{
		judge: func(string) (string, error) {
			return "I refuse to answer in JSON.", nil
		},
	}
	cfg := config.NewRankerConfig(testRunnerJob(2, 1), config.WithSeed(8))

	r, err := NewRunner(cfg, p)
	require.NoError(t, err)

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcome.Outputs, 2)

	// Fallback scores come from the template attributes, in the 0.5-1.0
	// band.
	for _, out := range outcome.Outputs {
		require.Len(t, out.AttributeScores, 2)
		require.Equal(t, "interesting", out.AttributeScores[0].Name)
		require.Equal(t, "useful", out.AttributeScores[1].Name)
		for _, a := range out.AttributeScores {
			require.GreaterOrEqual(t, a.Score, 0.5)
			require.Less(t, a.Score, 1.0)
		}
	}
}

func TestRunner_EvaluationSchemaGate(t *testing.T) {
	p := &scriptedProvider{
		judge: func(string) (string, error) {
			// Parseable, but fails the schema below.
			return `{"interesting": "kinda"}`, nil
		},
	}

	job := testRunnerJob(1, 1)
	job.EvaluationSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"interesting": map[string]any{"type": "boolean"},
		},
	}

	cfg := config.NewRankerConfig(job, config.WithSeed(9))
	r, err := NewRunner(cfg, p)
	require.NoError(t, err)

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcome.Outputs, 1)

	// Rejected judgment falls back to template attributes.
	require.Len(t, outcome.Outputs[0].AttributeScores, 2)
	for _, a := range outcome.Outputs[0].AttributeScores {
		require.GreaterOrEqual(t, a.Score, 0.5)
	}
}

package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/outrank-dev/outrank/internal/evaluation"
	"github.com/outrank-dev/outrank/internal/models"
	"github.com/outrank-dev/outrank/internal/providers"
)

// runPipeline takes one candidate through generation, judgment, and
// scoring. The index was assigned before this call and sticks with the
// candidate whether or not it survives.
func (r *Runner) runPipeline(ctx context.Context, index int) (*models.RankedOutput, error) {
	start := time.Now()

	candidate, err := r.generateCandidate(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("generating candidate %d: %w", index, err)
	}

	out, err := r.evaluateCandidate(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("evaluating candidate %d: %w", index, err)
	}

	out.Index = index
	out.DurationMs = time.Since(start).Milliseconds()
	return out, nil
}

func (r *Runner) generateCandidate(ctx context.Context, index int) (string, error) {
	job := r.cfg.Job()

	resp, err := r.provider.CreateChatCompletion(ctx, &providers.CompletionRequest{
		Model: job.Model,
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: job.SystemPrompt},
			{Role: providers.RoleUser, Content: job.Prompt},
		},
		Temperature: job.Sampling.Temperature,
		TopP:        job.Sampling.TopP,
		MaxTokens:   job.Sampling.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	content, ok := resp.FirstContent()
	if !ok || content == "" {
		return "", providers.ErrNoChoices
	}

	slog.Debug("generated candidate", "index", index, "length", len(content))
	return content, nil
}

// evaluateCandidate asks the judge for a verdict and converts it to
// scores. A judge response that cannot be parsed does not fail the
// candidate: scoring falls back to the rubric's attribute names, and
// past that to a single uniform random score.
func (r *Runner) evaluateCandidate(ctx context.Context, candidate string) (*models.RankedOutput, error) {
	job := r.cfg.Job()

	system, user := evaluation.BuildEvaluationMessages(job.EvaluationPrompt, job.Template, candidate)

	maxTokens := models.EvaluationMaxTokens
	if job.Sampling.MaxTokens < maxTokens {
		maxTokens = job.Sampling.MaxTokens
	}

	resp, err := r.provider.CreateChatCompletion(ctx, &providers.CompletionRequest{
		Model: job.Model,
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: system},
			{Role: providers.RoleUser, Content: user},
		},
		Temperature: models.EvaluationTemperature,
		TopP:        models.DefaultTopP,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, err
	}

	raw, ok := resp.FirstContent()
	if !ok {
		return nil, providers.ErrNoChoices
	}

	out := &models.RankedOutput{
		Output:        candidate,
		RawEvaluation: raw,
	}

	judgments, parseErr := evaluation.ParseEvaluation(raw)
	if parseErr == nil && r.schema != nil {
		if errs := evaluation.ValidateJudgments(r.schema, judgments); len(errs) > 0 {
			slog.Debug("judgment failed schema validation, falling back", "errors", errs)
			parseErr = fmt.Errorf("judgment rejected by evaluation schema")
		}
	}

	switch {
	case parseErr == nil:
		out.AttributeScores = r.scorer.ScoreJudgments(judgments)
		out.LogProb = evaluation.Aggregate(out.AttributeScores)

	default:
		slog.Debug("unparseable judgment, using template fallback", "reason", parseErr)
		names := evaluation.ExtractTemplateAttributes(job.Template)
		if len(names) > 0 {
			out.AttributeScores = r.scorer.ScoreTemplateFallback(names)
			out.LogProb = evaluation.Aggregate(out.AttributeScores)
		} else {
			out.LogProb = r.scorer.FallbackScore()
		}
	}

	return out, nil
}

package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default values applied to a RankingJob when the field is left unset.
const (
	DefaultVariantCount      = 5
	DefaultThreadCount       = 1
	DefaultAutoStopThreshold = 2
	DefaultMaxTokens         = 1000
	DefaultTopP              = 1.0

	// DefaultGenerationTemperature is used for candidate generation when the
	// job does not set its own temperature. Generation wants variety.
	DefaultGenerationTemperature = 0.9

	// EvaluationTemperature is always used for judgment calls. Judging wants
	// to be near-deterministic.
	EvaluationTemperature = 0.1

	// EvaluationMaxTokens caps the judgment response. A judgment is a small
	// JSON object and never needs the generation budget.
	EvaluationMaxTokens = 256
)

// DefaultTemplate is the rubric used when a job does not supply one.
const DefaultTemplate = `{
  "interesting": LOGPROB_TRUE,
  "creative": LOGPROB_TRUE,
  "useful": LOGPROB_TRUE
}`

// DefaultSystemPrompt instructs the model during candidate generation.
const DefaultSystemPrompt = "You are a creative assistant that provides a single concise response."

// DefaultEvaluationPrompt is the preamble for judgment calls.
const DefaultEvaluationPrompt = "You are an evaluator. Judge the text below against each criterion. " +
	"Return ONLY a JSON object matching the criteria template. Use JSON boolean values (true/false)."

// SamplingConfig holds the sampling parameters used for generation calls.
type SamplingConfig struct {
	Temperature float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	TopP        float64 `yaml:"top_p,omitempty" json:"top_p,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
}

// RankingJob describes a single ranking run: the prompt to generate
// candidates for, the rubric to judge them with, and how hard to push.
type RankingJob struct {
	// Name identifies the job in reports and cache keys. Optional.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Prompt is the user prompt candidates are generated from.
	Prompt string `yaml:"prompt" json:"prompt"`

	// Template is the JSON rubric. Values to be judged are marked with the
	// LOGPROB_TRUE sentinel.
	Template string `yaml:"template,omitempty" json:"template,omitempty"`

	// VariantCount is how many candidates to generate. Ignored when
	// AutoStop is set.
	VariantCount int `yaml:"variants,omitempty" json:"variants,omitempty"`

	// ThreadCount bounds how many candidate pipelines run at once.
	ThreadCount int `yaml:"threads,omitempty" json:"threads,omitempty"`

	// AutoStop runs batches until scores stop improving instead of a
	// fixed variant count.
	AutoStop bool `yaml:"auto_stop,omitempty" json:"auto_stop,omitempty"`

	// AutoStopThreshold is how many consecutive non-improving batches end
	// an auto-stop run.
	AutoStopThreshold int `yaml:"auto_stop_threshold,omitempty" json:"auto_stop_threshold,omitempty"`

	// Model is the model identifier passed to the provider.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// Provider selects the completion backend ("openrouter", "copilot",
	// "mock"). Empty means openrouter.
	Provider string `yaml:"provider,omitempty" json:"provider,omitempty"`

	Sampling SamplingConfig `yaml:"sampling,omitempty" json:"sampling,omitempty"`

	// SystemPrompt overrides the generation system prompt.
	SystemPrompt string `yaml:"system_prompt,omitempty" json:"system_prompt,omitempty"`

	// EvaluationPrompt overrides the judgment preamble.
	EvaluationPrompt string `yaml:"evaluation_prompt,omitempty" json:"evaluation_prompt,omitempty"`

	// EvaluationSchema, when set, is a JSON Schema the parsed judgment
	// must satisfy before it is scored.
	EvaluationSchema map[string]any `yaml:"evaluation_schema,omitempty" json:"evaluation_schema,omitempty"`
}

// LoadRankingJob reads and parses a job YAML file. Defaults are applied;
// the caller still needs Validate before running.
func LoadRankingJob(path string) (*RankingJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	var job RankingJob
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job file %s: %w", path, err)
	}

	job.ApplyDefaults()
	return &job, nil
}

// ApplyDefaults fills unset fields with their default values.
func (j *RankingJob) ApplyDefaults() {
	if j.Template == "" {
		j.Template = DefaultTemplate
	}
	if j.VariantCount <= 0 {
		j.VariantCount = DefaultVariantCount
	}
	if j.ThreadCount <= 0 {
		j.ThreadCount = DefaultThreadCount
	}
	if j.AutoStop && j.AutoStopThreshold <= 0 {
		j.AutoStopThreshold = DefaultAutoStopThreshold
	}
	if j.SystemPrompt == "" {
		j.SystemPrompt = DefaultSystemPrompt
	}
	if j.EvaluationPrompt == "" {
		j.EvaluationPrompt = DefaultEvaluationPrompt
	}
	if j.Sampling.Temperature <= 0 {
		j.Sampling.Temperature = DefaultGenerationTemperature
	}
	if j.Sampling.TopP <= 0 {
		j.Sampling.TopP = DefaultTopP
	}
	if j.Sampling.MaxTokens <= 0 {
		j.Sampling.MaxTokens = DefaultMaxTokens
	}
}

// Validate checks that the job is runnable.
func (j *RankingJob) Validate() error {
	if j.Prompt == "" {
		return fmt.Errorf("job is missing required field: prompt")
	}
	if j.Template == "" {
		return fmt.Errorf("job is missing required field: template")
	}
	if j.ThreadCount < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", j.ThreadCount)
	}
	if !j.AutoStop && j.VariantCount < 1 {
		return fmt.Errorf("variants must be at least 1, got %d", j.VariantCount)
	}
	if j.AutoStop && j.AutoStopThreshold < 1 {
		return fmt.Errorf("auto_stop_threshold must be at least 1, got %d", j.AutoStopThreshold)
	}
	if j.Model == "" {
		return fmt.Errorf("job is missing required field: model")
	}
	return nil
}

// Package config carries run configuration: the job plus everything that
// came from flags and the environment.
package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"

	"github.com/outrank-dev/outrank/internal/models"
)

// Credentials holds environment-sourced provider settings.
type Credentials struct {
	APIKey  string `env:"OPENROUTER_API_KEY"`
	BaseURL string `env:"OPENROUTER_BASE_URL, default=https://openrouter.ai/api/v1"`

	// Referer and Title feed OpenRouter's attribution headers.
	Referer string `env:"OPENROUTER_REFERER"`
	Title   string `env:"OPENROUTER_TITLE, default=outrank"`

	// DefaultModel is used when neither the job nor the flags name one.
	DefaultModel string `env:"OUTRANK_MODEL, default=openai/gpt-4o-mini"`
}

// LoadCredentials reads provider settings from the environment.
func LoadCredentials(ctx context.Context) (*Credentials, error) {
	var creds Credentials
	if err := envconfig.Process(ctx, &creds); err != nil {
		return nil, fmt.Errorf("reading environment configuration: %w", err)
	}
	return &creds, nil
}

// CanGenerate reports whether the OpenRouter credential is present. The
// copilot and mock providers carry their own credentials (or none).
func (c *Credentials) CanGenerate() bool {
	return c != nil && c.APIKey != ""
}

// RankerConfig bundles a job with run-level settings.
type RankerConfig struct {
	job *models.RankingJob

	verbose    bool
	outputPath string
	cacheDir   string
	seed       int64
}

// RankerOption customizes a RankerConfig.
type RankerOption func(*RankerConfig)

// NewRankerConfig creates a config for the given job.
func NewRankerConfig(job *models.RankingJob, opts ...RankerOption) *RankerConfig {
	cfg := &RankerConfig{
		job:  job,
		seed: -1,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithVerbose enables per-candidate progress output.
func WithVerbose(verbose bool) RankerOption {
	return func(c *RankerConfig) { c.verbose = verbose }
}

// WithOutputPath sets where the outcome JSON is written.
func WithOutputPath(path string) RankerOption {
	return func(c *RankerConfig) { c.outputPath = path }
}

// WithCacheDir enables result caching in the given directory.
func WithCacheDir(dir string) RankerOption {
	return func(c *RankerConfig) { c.cacheDir = dir }
}

// WithSeed fixes the scoring seed for reproducible runs. Negative means
// non-deterministic.
func WithSeed(seed int64) RankerOption {
	return func(c *RankerConfig) { c.seed = seed }
}

// Job returns the job this run executes.
func (c *RankerConfig) Job() *models.RankingJob { return c.job }

// Verbose returns whether per-candidate progress output is on.
func (c *RankerConfig) Verbose() bool { return c.verbose }

// OutputPath returns the outcome JSON destination, or empty.
func (c *RankerConfig) OutputPath() string { return c.outputPath }

// CacheDir returns the cache directory, or empty when caching is off.
func (c *RankerConfig) CacheDir() string { return c.cacheDir }

// Seed returns the scoring seed. Negative means non-deterministic.
func (c *RankerConfig) Seed() int64 { return c.seed }

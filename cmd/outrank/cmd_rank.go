package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/outrank-dev/outrank/internal/cache"
	"github.com/outrank-dev/outrank/internal/config"
	"github.com/outrank-dev/outrank/internal/models"
	"github.com/outrank-dev/outrank/internal/providers"
	"github.com/outrank-dev/outrank/internal/ranking"
	"github.com/outrank-dev/outrank/internal/reporting"
)

var (
	promptFlag    string
	templateFlag  string
	variants      int
	threads       int
	autoStop      bool
	stopThreshold int
	temperature   float64
	topP          float64
	maxTokens     int
	modelFlag     string
	providerName  string
	outputPath    string
	verbose       bool
	interpret     bool
	enableCache   bool
	rankCacheDir  string
	seed          int64
)

func newRankCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank [job.yaml]",
		Short: "Generate and rank candidate outputs",
		Long: `Generate candidate outputs for a prompt and rank them by judged quality.

Settings come from a job file, from flags, or both. Flags override the
job file. With --auto-stop, batches keep running until a batch fails to
improve on the best score.`,
		Args: cobra.MaximumNArgs(1),
		RunE: rankCommandE,
	}

	cmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Prompt to generate candidates from")
	cmd.Flags().StringVar(&templateFlag, "template", "", "Criteria template: JSON with LOGPROB_TRUE values, or a path to a template file")
	cmd.Flags().IntVarP(&variants, "variants", "n", 0, "Number of candidates to generate")
	cmd.Flags().IntVar(&threads, "threads", 0, "Number of candidates to run concurrently")
	cmd.Flags().BoolVar(&autoStop, "auto-stop", false, "Keep generating batches until scores stop improving")
	cmd.Flags().IntVar(&stopThreshold, "auto-stop-threshold", 0, "Consecutive non-improving batches before an auto-stop run ends")
	cmd.Flags().Float64VarP(&temperature, "temperature", "t", 0, "Generation temperature")
	cmd.Flags().Float64Var(&topP, "top-p", 0, "Generation top_p")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Generation token budget")
	cmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Model to use (name or alias)")
	cmd.Flags().StringVar(&providerName, "provider", "", "Provider: openrouter, copilot, mock")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output JSON file for results")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-candidate progress")
	cmd.Flags().BoolVar(&interpret, "interpret", false, "Print a plain-language interpretation of the results")
	cmd.Flags().BoolVar(&enableCache, "cache", false, "Enable result caching (default: false)")
	cmd.Flags().StringVar(&rankCacheDir, "cache-dir", ".outrank-cache", "Cache directory for storing results")
	cmd.Flags().Int64Var(&seed, "seed", -1, "Random seed for score banding (-1 for nondeterministic)")

	return cmd
}

func rankCommandE(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	creds, err := config.LoadCredentials(ctx)
	if err != nil {
		return err
	}

	job, err := buildJob(cmd, args, creds)
	if err != nil {
		return err
	}

	provider, err := buildProvider(job, creds)
	if err != nil {
		return err
	}
	defer providers.CloseProvider(provider) //nolint:errcheck

	cfgOpts := []config.RankerOption{
		config.WithVerbose(verbose),
		config.WithOutputPath(outputPath),
		config.WithSeed(seed),
	}
	runnerOpts := []ranking.RunnerOption{}

	if enableCache {
		absCacheDir, err := filepath.Abs(rankCacheDir)
		if err != nil {
			return fmt.Errorf("resolving cache directory: %w", err)
		}
		cfgOpts = append(cfgOpts, config.WithCacheDir(absCacheDir))
		runnerOpts = append(runnerOpts, ranking.WithCache(cache.New(absCacheDir)))
		if verbose {
			fmt.Printf("Cache enabled: %s\n", absCacheDir)
		}
	}

	cfg := config.NewRankerConfig(job, cfgOpts...)

	runner, err := ranking.NewRunner(cfg, provider, runnerOpts...)
	if err != nil {
		return err
	}

	if verbose {
		runner.OnProgress(verboseProgressListener)
	} else {
		runner.OnProgress(simpleProgressListener)
	}

	printRankHeader(job, provider)

	outcome, err := runner.Run(ctx)
	if err != nil && !errors.Is(err, ranking.ErrAllCandidatesFailed) {
		return err
	}

	printRanking(cmd.OutOrStdout(), outcome)

	if interpret {
		fmt.Println()
		fmt.Print(reporting.FormatSummaryReport(outcome))
	}

	if outputPath != "" {
		if err := saveOutcome(outcome, outputPath); err != nil {
			return fmt.Errorf("failed to save output: %w", err)
		}
		fmt.Printf("\nResults saved to: %s\n", outputPath)
	}

	if outcome.State == models.StateFailed {
		return &RunFailureError{
			Message: fmt.Sprintf("ranking failed: all %d candidate(s) were dropped", outcome.Digest.Attempted),
		}
	}

	return nil
}

// buildJob assembles the ranking job from the optional job file plus
// flag overrides.
func buildJob(cmd *cobra.Command, args []string, creds *config.Credentials) (*models.RankingJob, error) {
	var job *models.RankingJob

	if len(args) > 0 {
		loaded, err := models.LoadRankingJob(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to load job: %w", err)
		}
		job = loaded
	} else {
		job = &models.RankingJob{Name: "adhoc"}
	}

	flags := cmd.Flags()
	if flags.Changed("prompt") {
		job.Prompt = promptFlag
	}
	if flags.Changed("template") {
		tmpl, err := resolveTemplate(templateFlag)
		if err != nil {
			return nil, err
		}
		job.Template = tmpl
	}
	if flags.Changed("variants") {
		job.VariantCount = variants
	}
	if flags.Changed("threads") {
		job.ThreadCount = threads
	}
	if flags.Changed("auto-stop") {
		job.AutoStop = autoStop
	}
	if flags.Changed("auto-stop-threshold") {
		job.AutoStopThreshold = stopThreshold
	}
	if flags.Changed("temperature") {
		job.Sampling.Temperature = temperature
	}
	if flags.Changed("top-p") {
		job.Sampling.TopP = topP
	}
	if flags.Changed("max-tokens") {
		job.Sampling.MaxTokens = maxTokens
	}
	if flags.Changed("model") {
		job.Model = modelFlag
	}
	if flags.Changed("provider") {
		job.Provider = providerName
	}

	if job.Model == "" {
		job.Model = creds.DefaultModel
	}
	if job.Provider == "" {
		job.Provider = "openrouter"
	}
	job.ApplyDefaults()

	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

// resolveTemplate treats the flag value as a file path when one exists,
// matching how job templates are usually kept in files.
func resolveTemplate(value string) (string, error) {
	if info, err := os.Stat(value); err == nil && !info.IsDir() {
		data, err := os.ReadFile(value)
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		return string(data), nil
	}
	return value, nil
}

func buildProvider(job *models.RankingJob, creds *config.Credentials) (providers.CompletionProvider, error) {
	switch job.Provider {
	case "openrouter":
		return providers.NewOpenRouterProvider(providers.OpenRouterOptions{
			APIKey:  creds.APIKey,
			BaseURL: creds.BaseURL,
			Referer: creds.Referer,
			Title:   creds.Title,
		})
	case "copilot":
		return providers.NewCopilotProvider(nil), nil
	case "mock":
		return providers.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: openrouter, copilot, mock)", job.Provider)
	}
}

func printRankHeader(job *models.RankingJob, provider providers.CompletionProvider) {
	fmt.Printf("Ranking job: %s\n", job.Name)
	fmt.Printf("Provider: %s\n", provider.Name())
	fmt.Printf("Model: %s\n", job.Model)
	if job.AutoStop {
		fmt.Printf("Variants: auto (stop after %d non-improving batches)\n", job.AutoStopThreshold)
	} else {
		fmt.Printf("Variants: %d\n", job.VariantCount)
	}
	fmt.Printf("Threads: %d\n", job.ThreadCount)
	fmt.Println()
}

func saveOutcome(outcome *models.RankingOutcome, path string) error {
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

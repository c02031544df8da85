package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/outrank-dev/outrank/internal/cache"
)

var cacheDir string

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the ranking result cache",
		Long: `Manage the ranking result cache.

The cache stores completed ranking outcomes to avoid re-running identical
jobs. Cached results are keyed by the job configuration, model, and
provider.`,
	}

	cmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", ".outrank-cache", "Cache directory")

	cmd.AddCommand(newCacheStatsCommand())
	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry count and size",
		RunE:  cacheStatsE,
	}
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the ranking result cache",
		Long: `Clear all cached ranking outcomes.

This removes all cached results. The next run will re-generate and
re-judge all candidates from scratch.`,
		RunE: cacheClearE,
	}
}

func cacheStatsE(cmd *cobra.Command, args []string) error {
	absDir, err := filepath.Abs(cacheDir)
	if err != nil {
		return fmt.Errorf("resolving cache directory: %w", err)
	}

	c := cache.New(absDir)
	entries, bytes, err := c.Stats()
	if err != nil {
		return fmt.Errorf("reading cache: %w", err)
	}

	fmt.Printf("Cache: %s\n", absDir)
	fmt.Printf("Entries: %d\n", entries)
	fmt.Printf("Size: %d bytes\n", bytes)
	return nil
}

func cacheClearE(cmd *cobra.Command, args []string) error {
	// Resolve to absolute path
	absDir, err := filepath.Abs(cacheDir)
	if err != nil {
		return fmt.Errorf("resolving cache directory: %w", err)
	}

	c := cache.New(absDir)
	if err := c.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	fmt.Printf("Cache cleared: %s\n", absDir)
	return nil
}

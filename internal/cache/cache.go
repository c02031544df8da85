// Package cache stores finished run outcomes keyed by job content, so
// repeating an identical job skips the provider entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/outrank-dev/outrank/internal/models"
)

const entryExt = ".json.zst"

// Cache provides compressed on-disk caching for ranking outcomes. An
// empty directory disables it.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a cache instance rooted at dir.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Key generates a cache key for a job run. The key covers everything
// that changes the run's outputs:
//   - provider and model
//   - prompts (generation, system, evaluation) and rubric template
//   - sampling parameters
//   - run shape (variants, threads, auto-stop settings)
func Key(job *models.RankingJob, provider string) (string, error) {
	h := sha256.New()

	for _, s := range []string{
		provider,
		job.Model,
		job.Prompt,
		job.SystemPrompt,
		job.EvaluationPrompt,
		job.Template,
	} {
		if err := writeString(h, s); err != nil {
			return "", err
		}
	}

	for _, n := range []int{
		job.VariantCount,
		job.ThreadCount,
		boolToInt(job.AutoStop),
		job.AutoStopThreshold,
		job.Sampling.MaxTokens,
	} {
		if err := writeInt(h, n); err != nil {
			return "", err
		}
	}

	if err := writeString(h, fmt.Sprintf("%g\x00%g", job.Sampling.Temperature, job.Sampling.TopP)); err != nil {
		return "", err
	}

	if job.EvaluationSchema != nil {
		schemaJSON, err := json.Marshal(job.EvaluationSchema)
		if err != nil {
			return "", fmt.Errorf("marshaling evaluation schema: %w", err)
		}
		if _, err := h.Write(schemaJSON); err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get retrieves a cached outcome if it exists.
func (c *Cache) Get(key string) (*models.RankingOutcome, bool) {
	if c.dir == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	compressed, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		// Cache miss
		return nil, false
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, false
	}
	defer dec.Close()

	data, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		// Corrupt entry, treat as miss
		return nil, false
	}

	var outcome models.RankingOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, false
	}
	return &outcome, true
}

// Put stores an outcome in the cache.
func (c *Cache) Put(key string, outcome *models.RankingOutcome) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshaling outcome: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("creating zstd encoder: %w", err)
	}
	compressed := enc.EncodeAll(data, nil)
	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing zstd encoder: %w", err)
	}

	if err := os.WriteFile(c.entryPath(key), compressed, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Stats reports the number of entries and their total size on disk.
func (c *Cache) Stats() (entries int, bytes int64, err error) {
	if c.dir == "" {
		return 0, 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dirEntries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("reading cache directory: %w", err)
	}

	for _, entry := range dirEntries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), entryExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		entries++
		bytes += info.Size()
	}
	return entries, bytes, nil
}

// Clear removes all cached results. It refuses to remove a directory
// that holds anything other than cache entries.
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	if len(entries) > 0 {
		hasValidCache := false
		for _, entry := range entries {
			if entry.IsDir() {
				return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
			}
			if strings.HasSuffix(entry.Name(), entryExt) {
				hasValidCache = true
			} else {
				return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
			}
		}
		if !hasValidCache {
			return fmt.Errorf("no valid cache files found in directory - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+entryExt)
}

func writeString(w io.Writer, s string) error {
	// Null byte delimiter prevents hash collisions across fields.
	_, err := w.Write([]byte(s + "\x00"))
	return err
}

func writeInt(w io.Writer, i int) error {
	_, err := fmt.Fprintf(w, "%d\x00", i)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

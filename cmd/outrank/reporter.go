package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/outrank-dev/outrank/internal/models"
	"github.com/outrank-dev/outrank/internal/ranking"
)

// formatDuration formats a duration in a consistent, human-readable way.
// This ensures stable output regardless of Go version changes.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// outputWidth returns the column budget for single-line candidate
// previews.
func outputWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 40 {
		return w - 20
	}
	return 80
}

// truncate shortens s to maxWidth display cells, appending "..." if
// truncated. Width-aware so wide runes don't overflow the column.
func truncate(s string, maxWidth int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

func verboseProgressListener(event ranking.ProgressEvent) {
	switch event.EventType {
	case ranking.EventRankStart:
		if event.Total > 0 {
			fmt.Printf("Generating %d candidate(s)...\n\n", event.Total)
		} else {
			fmt.Printf("Generating candidates until scores plateau...\n\n")
		}
	case ranking.EventRankCached:
		fmt.Printf("Using cached results (%d output(s))\n\n", len(event.Snapshot))
	case ranking.EventBatchStart:
		fmt.Printf("Batch %d (%d candidate(s))...\n", event.BatchNum, event.BatchSize)
	case ranking.EventCandidateStart:
		fmt.Printf("  [%d] generating...\n", event.Index)
	case ranking.EventCandidateComplete:
		duration := time.Duration(event.DurationMs) * time.Millisecond
		fmt.Printf("  [%d] score=%.3f (%s)\n", event.Index, event.Score, formatDuration(duration))
	case ranking.EventCandidateDropped:
		fmt.Printf("  [%d] dropped\n", event.Index)
	case ranking.EventBatchComplete:
		improved := ""
		if got, ok := event.Details["improved"].(bool); ok && got {
			improved = " (improved)"
		}
		fmt.Printf("Batch %d complete, best=%.3f%s\n\n", event.BatchNum, event.Score, improved)
	case ranking.EventAutoStop:
		fmt.Printf("Auto-stop: no improvement in %d batch(es)\n\n", event.BatchNum)
	case ranking.EventRankComplete:
		duration := time.Duration(event.DurationMs) * time.Millisecond
		fmt.Printf("Ranking completed in %s\n\n", formatDuration(duration))
	}
}

func simpleProgressListener(event ranking.ProgressEvent) {
	switch event.EventType {
	case ranking.EventRankCached:
		fmt.Println("[cached]")
	case ranking.EventCandidateComplete:
		fmt.Printf("✓ [%d] %.3f\n", event.Index, event.Score)
	case ranking.EventCandidateDropped:
		fmt.Printf("✗ [%d] dropped\n", event.Index)
	case ranking.EventAutoStop:
		fmt.Println("… auto-stop")
	}
}

func printRanking(w io.Writer, outcome *models.RankingOutcome) {
	fmt.Fprintln(w, "="+strings.Repeat("=", 50))
	fmt.Fprintln(w, " RANKED OUTPUTS")
	fmt.Fprintln(w, "="+strings.Repeat("=", 50))
	fmt.Fprintln(w)

	digest := outcome.Digest

	fmt.Fprintf(w, "State:      %s\n", outcome.State)
	if outcome.Error != "" {
		fmt.Fprintf(w, "Error:      %s\n", outcome.Error)
	}
	fmt.Fprintf(w, "Attempted:  %d\n", digest.Attempted)
	fmt.Fprintf(w, "Survived:   %d\n", digest.Succeeded)
	fmt.Fprintf(w, "Dropped:    %d\n", digest.Dropped)
	fmt.Fprintf(w, "Batches:    %d\n", digest.Batches)
	if digest.Succeeded > 0 {
		fmt.Fprintf(w, "Best Score: %.3f\n", digest.BestScore)
		fmt.Fprintf(w, "Mean Score: %.3f\n", digest.MeanScore)
		fmt.Fprintf(w, "Std Dev:    %.4f\n", digest.StdDev)
	}
	if digest.ScoreCI != nil {
		fmt.Fprintf(w, "Score CI:   [%.3f, %.3f] (%.0f%%)\n",
			digest.ScoreCI.Lower, digest.ScoreCI.Upper, digest.ScoreCI.ConfidenceLevel*100)
	}
	if digest.StoppedEarly {
		fmt.Fprintln(w, "Stopped early: scores plateaued")
	}

	duration := time.Duration(digest.DurationMs) * time.Millisecond
	fmt.Fprintf(w, "Duration:   %s\n", formatDuration(duration))
	fmt.Fprintln(w)

	width := outputWidth()
	for rank, out := range outcome.Outputs {
		fmt.Fprintf(w, "%2d. %.3f  %s\n", rank+1, out.LogProb, truncate(out.Output, width))
		for _, attr := range out.AttributeScores {
			fmt.Fprintf(w, "      %-14s %.3f\n", attr.Name, attr.Score)
		}
	}
	if len(outcome.Outputs) > 0 {
		fmt.Fprintln(w)
	}
}

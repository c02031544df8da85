// Package reporting renders finished runs for humans: markdown and HTML
// reports plus plain-language interpretation.
package reporting

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/outrank-dev/outrank/internal/models"
)

// FormatMarkdown renders a full run report as markdown.
func FormatMarkdown(outcome *models.RankingOutcome) string {
	var b strings.Builder

	title := outcome.JobName
	if title == "" {
		title = "Ranking Report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	fmt.Fprintf(&b, "- **Run:** %s\n", outcome.RunID)
	fmt.Fprintf(&b, "- **Model:** %s", outcome.Model)
	if outcome.Provider != "" {
		fmt.Fprintf(&b, " (%s)", outcome.Provider)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- **State:** %s\n", outcome.State)
	fmt.Fprintf(&b, "- **When:** %s\n", outcome.Timestamp.Format(time.RFC3339))
	if outcome.Error != "" {
		fmt.Fprintf(&b, "- **Error:** %s\n", outcome.Error)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Prompt\n\n> %s\n\n", strings.ReplaceAll(outcome.Prompt, "\n", "\n> "))

	d := outcome.Digest
	b.WriteString("## Summary\n\n")
	b.WriteString("| Candidates | Survived | Dropped | Batches | Best | Mean | Std Dev |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %.3f | %.3f | %.3f |\n\n",
		d.Attempted, d.Succeeded, d.Dropped, d.Batches, d.BestScore, d.MeanScore, d.StdDev)

	if d.ScoreCI != nil {
		fmt.Fprintf(&b, "Score %.0f%% CI: [%.3f, %.3f]\n\n",
			d.ScoreCI.ConfidenceLevel*100, d.ScoreCI.Lower, d.ScoreCI.Upper)
	}
	if d.StoppedEarly {
		b.WriteString("Run stopped early: scores plateaued.\n\n")
	}

	if len(outcome.Outputs) > 0 {
		b.WriteString("## Ranked Outputs\n\n")
		for rank, out := range outcome.Outputs {
			fmt.Fprintf(&b, "### %d. Score %.3f (candidate %d)\n\n", rank+1, out.LogProb, out.Index)
			fmt.Fprintf(&b, "%s\n\n", out.Output)
			if len(out.AttributeScores) > 0 {
				b.WriteString("| Attribute | Score |\n|---|---|\n")
				for _, a := range out.AttributeScores {
					fmt.Fprintf(&b, "| %s | %.3f |\n", a.Name, a.Score)
				}
				b.WriteString("\n")
				for _, a := range out.AttributeScores {
					if a.Explanation != "" {
						fmt.Fprintf(&b, "- **%s:** %s\n", a.Name, a.Explanation)
					}
				}
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

// RenderHTML converts a markdown report to a standalone HTML document.
func RenderHTML(markdown []byte) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert(markdown, &body); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	var doc bytes.Buffer
	doc.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	doc.WriteString("<style>body{font-family:sans-serif;max-width:60rem;margin:2rem auto;padding:0 1rem}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:0.3rem 0.6rem}blockquote{color:#555;border-left:3px solid #ccc;margin-left:0;padding-left:1rem}</style>\n")
	doc.WriteString("</head>\n<body>\n")
	doc.Write(body.Bytes())
	doc.WriteString("</body>\n</html>\n")
	return doc.Bytes(), nil
}

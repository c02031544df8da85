package wizard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/outrank-dev/outrank/internal/models"
)

// JobDraft holds all fields collected during the interactive wizard.
type JobDraft struct {
	Name     string
	Prompt   string
	Model    string
	Variants int
	Threads  int
	AutoStop bool
}

const jobYAMLTemplate = `# Ranking job for outrank.
name: {{ .Name }}
prompt: >
  {{ .Prompt }}
model: {{ .Model }}
variants: {{ .Variants }}
threads: {{ .Threads }}
auto_stop: {{ .AutoStop }}
{{- if .AutoStop }}
auto_stop_threshold: {{ .Threshold }}
{{- end }}

# Criteria template. Each LOGPROB_TRUE value becomes a judged attribute.
template: |
{{ .TemplateBlock }}
`

// RunJobWizard runs an interactive huh form to collect ranking job
// settings. If initialName is non-empty, it pre-populates the name field.
func RunJobWizard(in io.Reader, out io.Writer, initialName string) (*JobDraft, error) {
	var (
		name        = initialName
		prompt      string
		model       = "openai/gpt-4o-mini"
		variantsRaw = strconv.Itoa(models.DefaultVariantCount)
		threadsRaw  = "2"
		autoStopRaw = "n"
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Job name").
				Description("A short name for this ranking job").
				Placeholder("my-job").
				Value(&name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("job name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Prompt").
				Description("The prompt to generate candidate outputs from").
				Placeholder("Write a tagline for a coffee shop").
				Value(&prompt).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("prompt is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Model").
				Description("Model name or alias (e.g. gpt-4o, claude-3-sonnet)").
				Value(&model),
			huh.NewInput().
				Title("Variants").
				Description("How many candidate outputs to generate").
				Value(&variantsRaw).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Threads").
				Description("How many candidates to run concurrently").
				Value(&threadsRaw).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Auto-stop (y/n)").
				Description("Keep generating batches until scores stop improving").
				Value(&autoStopRaw).
				Validate(validateYesNo),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	variants, _ := strconv.Atoi(strings.TrimSpace(variantsRaw))
	threads, _ := strconv.Atoi(strings.TrimSpace(threadsRaw))

	return &JobDraft{
		Name:     strings.TrimSpace(name),
		Prompt:   strings.TrimSpace(prompt),
		Model:    strings.TrimSpace(model),
		Variants: variants,
		Threads:  threads,
		AutoStop: isYes(autoStopRaw),
	}, nil
}

// BuildRankingJob converts a draft into a validated RankingJob with
// defaults applied.
func BuildRankingJob(draft *JobDraft) (*models.RankingJob, error) {
	job := &models.RankingJob{
		Name:         draft.Name,
		Prompt:       draft.Prompt,
		Model:        draft.Model,
		VariantCount: draft.Variants,
		ThreadCount:  draft.Threads,
		AutoStop:     draft.AutoStop,
	}
	job.ApplyDefaults()
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

// GenerateJobYAML renders a commented job.yaml from the given draft.
func GenerateJobYAML(draft *JobDraft) (string, error) {
	tmpl, err := template.New("jobyaml").Parse(jobYAMLTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf strings.Builder
	data := struct {
		*JobDraft
		Threshold     int
		TemplateBlock string
	}{
		JobDraft:      draft,
		Threshold:     models.DefaultAutoStopThreshold,
		TemplateBlock: indentBlock(models.DefaultTemplate, "  "),
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func validateYesNo(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "n", "no", "":
		return nil
	}
	return fmt.Errorf("answer y or n")
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}

func indentBlock(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

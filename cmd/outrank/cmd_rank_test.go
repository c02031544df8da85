package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outrank-dev/outrank/internal/models"
)

func TestRankCommand_MockProvider(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "outcome.json")

	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{
		"rank",
		"--prompt", "Write a tagline for a coffee shop",
		"--provider", "mock",
		"--variants", "2",
		"--threads", "2",
		"--seed", "7",
		"--output", outPath,
	})

	require.NoError(t, root.Execute())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var outcome models.RankingOutcome
	require.NoError(t, json.Unmarshal(data, &outcome))

	assert.Equal(t, models.StateCompleted, outcome.State)
	assert.Equal(t, 2, outcome.Digest.Attempted)
	require.Len(t, outcome.Outputs, 2)
	assert.GreaterOrEqual(t, outcome.Outputs[0].LogProb, outcome.Outputs[1].LogProb)

	// Default template judges three attributes, sorted by name.
	require.Len(t, outcome.Outputs[0].AttributeScores, 3)
	assert.Equal(t, "creative", outcome.Outputs[0].AttributeScores[0].Name)
}

func TestRankCommand_JobFileWithFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	jobPath := filepath.Join(dir, "job.yaml")
	jobYAML := `name: tagline
prompt: Write a tagline
model: mock-model
provider: mock
variants: 4
threads: 2
`
	require.NoError(t, os.WriteFile(jobPath, []byte(jobYAML), 0o644))

	outPath := filepath.Join(dir, "outcome.json")

	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{
		"rank", jobPath,
		"--variants", "3",
		"--seed", "7",
		"--output", outPath,
	})

	require.NoError(t, root.Execute())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var outcome models.RankingOutcome
	require.NoError(t, json.Unmarshal(data, &outcome))

	assert.Equal(t, "tagline", outcome.JobName)
	assert.Equal(t, "mock-model", outcome.Model)
	assert.Equal(t, 3, outcome.Digest.Attempted)
}

func TestRankCommand_UnknownProvider(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{
		"rank",
		"--prompt", "Write a tagline",
		"--provider", "telepathy",
	})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestRankCommand_MissingPrompt(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"rank", "--provider", "mock"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt")
}

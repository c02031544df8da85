package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	copilot "github.com/github/copilot-sdk/go"

	"github.com/outrank-dev/outrank/internal/utils"
)

// CopilotProvider runs completions through the GitHub Copilot CLI. It
// holds one CLI process for its lifetime and opens a fresh session per
// completion so generation calls do not share conversation state.
//
// Copilot sessions have no sampling controls, so temperature and top_p in
// requests are ignored.
type CopilotProvider struct {
	client copilotClient

	startOnce sync.Once
}

// CopilotProviderOptions configures a CopilotProvider.
type CopilotProviderOptions struct {
	// NewCopilotClient overrides client construction. Used by tests.
	NewCopilotClient func(clientOptions *copilot.ClientOptions) copilotClient
}

// NewCopilotProvider creates a provider backed by the Copilot CLI.
func NewCopilotProvider(options *CopilotProviderOptions) *CopilotProvider {
	copilotOptions := &copilot.ClientOptions{
		LogLevel: "error",
		// NOTE: autostart runs into issues when triggered from separate
		// goroutines, so we start explicitly in CreateChatCompletion.
		AutoStart: utils.Ptr(false),
	}

	var client copilotClient
	if options == nil || options.NewCopilotClient == nil {
		client = newCopilotClient(copilotOptions)
	} else {
		client = options.NewCopilotClient(copilotOptions)
	}

	return &CopilotProvider{client: client}
}

func (p *CopilotProvider) Name() string {
	return "copilot"
}

func (p *CopilotProvider) CreateChatCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	var startErr error
	p.startOnce.Do(func() {
		startErr = p.client.Start(ctx)
	})
	if startErr != nil {
		return nil, fmt.Errorf("copilot failed to start: %w", startErr)
	}

	session, err := p.client.CreateSession(ctx, &copilot.SessionConfig{
		Model: req.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create copilot session: %w", err)
	}

	// Copilot has no separate system message slot, so system content is
	// folded into the prompt.
	prompt := flattenMessages(req.Messages)

	var parts []string
	unsubscribe := session.On(func(event copilot.SessionEvent) {
		if event.Type == copilot.AssistantMessage && event.Data.Content != nil {
			parts = append(parts, *event.Data.Content)
		}
	})
	defer unsubscribe()

	unsubscribe = session.On(utils.SessionToSlog)
	defer unsubscribe()

	resp, err := session.SendAndWait(ctx, copilot.MessageOptions{
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("copilot completion failed: %w", err)
	}

	content := strings.Join(parts, "")
	if content == "" && resp != nil && resp.Data.Content != nil {
		content = *resp.Data.Content
	}
	if content == "" {
		return nil, fmt.Errorf("copilot: %w", ErrNoChoices)
	}

	slog.Debug("copilot completion", "model", req.Model, "length", len(content))

	return &CompletionResponse{
		Choices: []Choice{{Message: Message{Role: RoleAssistant, Content: content}}},
	}, nil
}

// Close stops the Copilot CLI process.
func (p *CopilotProvider) Close() error {
	return p.client.Stop()
}

func flattenMessages(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Content)
	}
	return b.String()
}

package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenRouterBaseURL is the OpenRouter OpenAI-compatible endpoint.
const DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterOptions configures an OpenRouterProvider.
type OpenRouterOptions struct {
	APIKey  string
	BaseURL string

	// Referer and Title populate OpenRouter's attribution headers.
	// Optional.
	Referer string
	Title   string
}

// OpenRouterProvider talks to OpenRouter (or any OpenAI-compatible
// endpoint) over the OpenAI chat completions API.
type OpenRouterProvider struct {
	client openai.Client
}

// NewOpenRouterProvider creates a provider for OpenRouter. Returns
// ErrNoCredential when no API key is configured, so callers can fail
// before any candidates are generated.
func NewOpenRouterProvider(opts OpenRouterOptions) (*OpenRouterProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openrouter: %w (set OPENROUTER_API_KEY)", ErrNoCredential)
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenRouterBaseURL
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(baseURL),
	}
	if opts.Referer != "" {
		reqOpts = append(reqOpts, option.WithHeader("HTTP-Referer", opts.Referer))
	}
	if opts.Title != "" {
		reqOpts = append(reqOpts, option.WithHeader("X-Title", opts.Title))
	}

	return &OpenRouterProvider{client: openai.NewClient(reqOpts...)}, nil
}

func (p *OpenRouterProvider) Name() string {
	return "openrouter"
}

func (p *OpenRouterProvider) CreateChatCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(ResolveModelAlias(req.Model)),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
		TopP:        openai.Float(req.TopP),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openrouter completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openrouter: %w", ErrNoChoices)
	}

	slog.Debug("openrouter completion",
		"model", params.Model,
		"choices", len(completion.Choices),
		"completionTokens", completion.Usage.CompletionTokens)

	resp := &CompletionResponse{Choices: make([]Choice, 0, len(completion.Choices))}
	for _, c := range completion.Choices {
		resp.Choices = append(resp.Choices, Choice{
			Message: Message{Role: RoleAssistant, Content: c.Message.Content},
		})
	}
	return resp, nil
}

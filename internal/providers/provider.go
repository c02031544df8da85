// Package providers abstracts the chat completion backends used for
// candidate generation and judgment calls.
package providers

import (
	"context"
	"errors"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNoChoices reports that a provider returned a response with no usable
// completion in it.
var ErrNoChoices = errors.New("provider returned no choices")

// ErrNoCredential reports that a provider cannot be constructed because
// its credential is missing.
var ErrNoCredential = errors.New("no API credential configured")

// Message is one chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a provider-agnostic chat completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Choice is one completion alternative in a response.
type Choice struct {
	Message Message `json:"message"`
}

// CompletionResponse is a provider-agnostic chat completion response.
type CompletionResponse struct {
	Choices []Choice `json:"choices"`
}

// FirstContent returns the first choice's content, if any.
func (r *CompletionResponse) FirstContent() (string, bool) {
	if r == nil || len(r.Choices) == 0 {
		return "", false
	}
	return r.Choices[0].Message.Content, true
}

// CompletionProvider is a chat completion backend.
type CompletionProvider interface {
	// Name identifies the provider in outcomes and cache keys.
	Name() string

	// CreateChatCompletion performs one chat completion call.
	CreateChatCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// Closer is implemented by providers that hold a connection or child
// process open between calls.
type Closer interface {
	Close() error
}

// CloseProvider shuts down a provider if it needs shutting down.
func CloseProvider(p CompletionProvider) error {
	if c, ok := p.(Closer); ok {
		return c.Close()
	}
	return nil
}

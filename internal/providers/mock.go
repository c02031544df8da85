package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockProvider is a scripted, in-process provider for tests and dry runs.
// With no scripted responses it fabricates plausible ones: generation
// requests get numbered mock completions and judgment requests get a JSON
// verdict, so a full ranking run works offline.
type MockProvider struct {
	mu        sync.Mutex
	responses []string
	next      int
	calls     int

	// Err, when set, is returned by every call.
	Err error

	// FailEveryNth makes every nth call (1-based) fail, to exercise
	// partial-failure paths. Zero disables it.
	FailEveryNth int
}

// NewMockProvider creates a mock. Scripted responses, if any, are served
// in order and then recycled.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{responses: responses}
}

func (m *MockProvider) Name() string {
	return "mock"
}

// Calls reports how many completion calls were made.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockProvider) CreateChatCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.Err != nil {
		return nil, m.Err
	}
	if m.FailEveryNth > 0 && m.calls%m.FailEveryNth == 0 {
		return nil, fmt.Errorf("mock provider: scripted failure on call %d", m.calls)
	}

	var content string
	switch {
	case len(m.responses) > 0:
		content = m.responses[m.next%len(m.responses)]
		m.next++
	case isJudgmentRequest(req):
		content = `{"interesting": true, "creative": true, "useful": false}`
	default:
		content = fmt.Sprintf("Mock response %d for: %s", m.calls, lastUserContent(req))
	}

	return &CompletionResponse{
		Choices: []Choice{{Message: Message{Role: RoleAssistant, Content: content}}},
	}, nil
}

func isJudgmentRequest(req *CompletionRequest) bool {
	for _, msg := range req.Messages {
		if strings.Contains(msg.Content, "Text to evaluate:") {
			return true
		}
	}
	return false
}

func lastUserContent(req *CompletionRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

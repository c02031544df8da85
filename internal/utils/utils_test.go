package utils

import (
	"testing"

	copilot "github.com/github/copilot-sdk/go"
	"github.com/stretchr/testify/assert"
)

func TestPtr(t *testing.T) {
	v := 42
	p := Ptr(v)

	assert.NotNil(t, p)
	assert.Equal(t, 42, *p)

	s := Ptr("hello")
	assert.Equal(t, "hello", *s)
}

func TestSessionToSlog_NoPanicOnSparseEvent(t *testing.T) {
	// Most event fields are optional pointers; none of them should be
	// required for logging.
	SessionToSlog(copilot.SessionEvent{Type: copilot.SessionEventType("message")})

	content := "hello"
	SessionToSlog(copilot.SessionEvent{
		Type: copilot.AssistantMessage,
		Data: copilot.Data{Content: &content},
	})
}

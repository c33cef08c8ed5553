package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/enricher/ai"
)

// MockChat is a test double for ai.ChatModel. By default it echoes the last
// message and counts its words as tokens.
type MockChat struct {
	ChatFunc func(ctx context.Context, messages []ai.ChatMessage) (*ai.ChatReply, error)

	mu       sync.Mutex
	requests [][]ai.ChatMessage
}

// NewMockChat creates a mock chat model.
func NewMockChat() *MockChat {
	return &MockChat{}
}

// Chat returns the scripted or echoed reply.
func (m *MockChat) Chat(ctx context.Context, messages []ai.ChatMessage) (*ai.ChatReply, error) {
	m.mu.Lock()
	m.requests = append(m.requests, append([]ai.ChatMessage(nil), messages...))
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	var last string
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	content := "echo: " + last
	return &ai.ChatReply{Content: content, TokenCount: len(strings.Fields(content))}, nil
}

// Requests returns every conversation sent to the model.
func (m *MockChat) Requests() [][]ai.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]ai.ChatMessage(nil), m.requests...)
}

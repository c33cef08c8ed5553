package mock

import (
	"context"
	"fmt"
	"sync"
)

// MockTranslator is a test double for ai.Translator.
// By default it returns "[to] text" for every input.
type MockTranslator struct {
	// TranslateBatchFunc is called by Translate and TranslateBatch if set.
	TranslateBatchFunc func(ctx context.Context, texts []string, from, to string) ([]string, error)

	mu        sync.Mutex
	callCount int
	calls     []TranslateCall
}

// TranslateCall records one batch request.
type TranslateCall struct {
	Texts []string
	From  string
	To    string
}

// NewMockTranslator creates a mock translator with default behavior.
func NewMockTranslator() *MockTranslator {
	return &MockTranslator{}
}

// Translate translates a single text.
func (m *MockTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	out, err := m.TranslateBatch(ctx, []string{text}, from, to)
	if err != nil {
		return "", err
	}
	return out[0], nil
}

// TranslateBatch translates texts.
func (m *MockTranslator) TranslateBatch(ctx context.Context, texts []string, from, to string) ([]string, error) {
	m.mu.Lock()
	m.callCount++
	m.calls = append(m.calls, TranslateCall{Texts: append([]string(nil), texts...), From: from, To: to})
	fn := m.TranslateBatchFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, texts, from, to)
	}
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = fmt.Sprintf("[%s] %s", to, text)
	}
	return out, nil
}

// CallCount returns the number of batch requests made.
func (m *MockTranslator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Calls returns the recorded requests.
func (m *MockTranslator) Calls() []TranslateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TranslateCall(nil), m.calls...)
}

// Reset clears recorded calls and injected behavior.
func (m *MockTranslator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.calls = nil
	m.TranslateBatchFunc = nil
}

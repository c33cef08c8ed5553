// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import "github.com/poiesic/enricher/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder, translator and chat instances.
type MockProvider struct {
	embedder   *MockEmbedder
	translator *MockTranslator
	chat       *MockChat
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockTranslator() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithServices(NewMockEmbedder(), NewMockTranslator(), NewMockChat())
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
func NewMockProviderWithServices(embedder *MockEmbedder, translator *MockTranslator, chat *MockChat) *MockProvider {
	return &MockProvider{
		embedder:   embedder,
		translator: translator,
		chat:       chat,
	}
}

// Embedder returns the mock embedder, or nil if none was configured.
func (p *MockProvider) Embedder() ai.Embedder {
	if p.embedder == nil {
		return nil
	}
	return p.embedder
}

// Translator returns the mock translator, or nil if none was configured.
func (p *MockProvider) Translator() ai.Translator {
	if p.translator == nil {
		return nil
	}
	return p.translator
}

// Chat returns the mock chat model, or nil if none was configured.
func (p *MockProvider) Chat() ai.ChatModel {
	if p.chat == nil {
		return nil
	}
	return p.chat
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockTranslator returns the underlying mock translator for test assertions.
func (p *MockProvider) GetMockTranslator() *MockTranslator {
	return p.translator
}

// GetMockChat returns the underlying mock chat model for test assertions.
func (p *MockProvider) GetMockChat() *MockChat {
	return p.chat
}

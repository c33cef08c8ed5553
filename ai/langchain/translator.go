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

package langchain

import (
	"context"
	"log/slog"

	"github.com/poiesic/enricher/ai"
	"github.com/tmc/langchaingo/llms"
)

// Translator implements ai.Translator by prompting a chat model.
type Translator struct {
	client llms.Model
	logger *slog.Logger
}

// newTranslator is an internal constructor that returns the concrete type.
func newTranslator(config *ai.Config) (*Translator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newModel(config, config.TranslationProvider)
	if err != nil {
		return nil, err
	}
	return newTranslatorWithModel(client, config.TranslationProvider), nil
}

func newTranslatorWithModel(client llms.Model, provider string) *Translator {
	return &Translator{
		client: client,
		logger: slog.Default().With("component", "langchain-translator", "provider", provider),
	}
}

// NewTranslator creates a translator backed by config.TranslationProvider,
// which must be one of openai, ollama or mistral.
//
// Returns ai.Translator interface to enforce abstraction.
func NewTranslator(config *ai.Config) (ai.Translator, error) {
	return newTranslator(config)
}

// NewTranslatorWithModel creates a translator over an existing langchaingo model.
func NewTranslatorWithModel(client llms.Model) ai.Translator {
	return newTranslatorWithModel(client, "custom")
}

// Translate translates a single text.
func (t *Translator) Translate(ctx context.Context, text, from, to string) (string, error) {
	out, err := t.TranslateBatch(ctx, []string{text}, from, to)
	if err != nil {
		return "", err
	}
	return out[0], nil
}

// TranslateBatch translates texts in a single request.
func (t *Translator) TranslateBatch(ctx context.Context, texts []string, from, to string) ([]string, error) {
	t.logger.Debug("translating texts", "count", len(texts), "from", from, "to", to)
	return ai.TranslateWithCompletion(ctx, t.complete, texts, from, to, t.logger)
}

func (t *Translator) complete(ctx context.Context, system, user string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}
	response, err := t.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		return "", err
	}
	if len(response.Choices) < 1 {
		t.logger.Debug("no choices returned from model")
		return "", nil
	}
	return response.Choices[0].Content, nil
}

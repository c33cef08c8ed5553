// Package providers builds the AI services a configuration selects.
package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/enricher/ai"
	"github.com/poiesic/enricher/ai/claude"
	"github.com/poiesic/enricher/ai/deepl"
	"github.com/poiesic/enricher/ai/gemini"
	"github.com/poiesic/enricher/ai/langchain"
	"github.com/poiesic/enricher/ai/sentencetransformers"
)

// NewEmbedder returns the embedder for config.EmbeddingProvider.
func NewEmbedder(ctx context.Context, config *ai.Config) (ai.Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.EmbeddingProvider {
	case ai.ProviderOpenAI, ai.ProviderOllama, ai.ProviderMistral, ai.ProviderVoyageAI:
		return langchain.NewEmbedder(config)
	case ai.ProviderSentenceTransformers:
		return sentencetransformers.NewEmbedder(config)
	case ai.ProviderGemini:
		return gemini.NewEmbedder(ctx, config)
	}
	return nil, fmt.Errorf("%w: no embedder for %q", ai.ErrUnsupportedProvider, config.EmbeddingProvider)
}

// NewTranslator returns the translator for config.TranslationProvider.
func NewTranslator(ctx context.Context, config *ai.Config) (ai.Translator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.TranslationProvider {
	case ai.ProviderOpenAI, ai.ProviderOllama, ai.ProviderMistral:
		return langchain.NewTranslator(config)
	case ai.ProviderDeepL:
		return deepl.NewTranslator(config)
	case ai.ProviderAnthropic:
		return claude.NewTranslator(config)
	case ai.ProviderGemini:
		return gemini.NewTranslator(ctx, config)
	}
	return nil, fmt.Errorf("%w: no translator for %q", ai.ErrUnsupportedProvider, config.TranslationProvider)
}

// NewChat returns the chat model for config.ChatProvider.
func NewChat(ctx context.Context, config *ai.Config) (ai.ChatModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.ChatProvider {
	case ai.ProviderOpenAI, ai.ProviderOllama, ai.ProviderMistral:
		return langchain.NewChat(config)
	case ai.ProviderAnthropic:
		return claude.NewChat(config)
	case ai.ProviderGemini:
		return gemini.NewChat(ctx, config)
	}
	return nil, fmt.Errorf("%w: no chat model for %q", ai.ErrUnsupportedProvider, config.ChatProvider)
}

// Provider implements ai.AIProvider with the services a Config selects.
type Provider struct {
	embedder   ai.Embedder
	translator ai.Translator
	chat       ai.ChatModel
	logger     *slog.Logger
}

// Option disables individual capabilities when building a Provider.
type Option func(*options)

type options struct {
	noEmbedder   bool
	noTranslator bool
	noChat       bool
}

// WithoutEmbedder skips building an embedder.
func WithoutEmbedder() Option { return func(o *options) { o.noEmbedder = true } }

// WithoutTranslator skips building a translator.
func WithoutTranslator() Option { return func(o *options) { o.noTranslator = true } }

// WithoutChat skips building a chat model.
func WithoutChat() Option { return func(o *options) { o.noChat = true } }

// New builds every capability config selects. A capability without a
// provider is left nil.
//
// Returns ai.AIProvider interface to enforce abstraction.
func New(ctx context.Context, config *ai.Config, opts ...Option) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	p := &Provider{logger: slog.Default().With("component", "ai-provider")}
	var err error
	if !o.noEmbedder && config.EmbeddingProvider != "" {
		if p.embedder, err = NewEmbedder(ctx, config); err != nil {
			return nil, fmt.Errorf("embedder: %w", err)
		}
	}
	if !o.noTranslator && config.TranslationProvider != "" {
		if p.translator, err = NewTranslator(ctx, config); err != nil {
			return nil, fmt.Errorf("translator: %w", err)
		}
	}
	if !o.noChat && config.ChatProvider != "" {
		if p.chat, err = NewChat(ctx, config); err != nil {
			return nil, fmt.Errorf("chat: %w", err)
		}
	}

	p.logger.Debug("ai provider ready",
		"embeddings", config.EmbeddingProvider,
		"translation", config.TranslationProvider,
		"chat", config.ChatProvider)
	return p, nil
}

// Embedder returns the embedding service, or nil.
func (p *Provider) Embedder() ai.Embedder { return p.embedder }

// Translator returns the translation service, or nil.
func (p *Provider) Translator() ai.Translator { return p.translator }

// Chat returns the chat model, or nil.
func (p *Provider) Chat() ai.ChatModel { return p.chat }

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing ai provider")
	return nil
}

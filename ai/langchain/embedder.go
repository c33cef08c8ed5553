package langchain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/enricher/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/embeddings/voyageai"
	"github.com/tmc/langchaingo/llms/mistral"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder on top of a langchaingo embedder.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	provider := config.EmbeddingProvider
	settings := config.Settings(provider)
	model := ai.EmbeddingModelFor(provider, settings)

	var (
		embedder embeddings.Embedder
		err      error
	)
	switch provider {
	case ai.ProviderOpenAI:
		embedder, err = newOpenAIEmbedder(settings, model)
	case ai.ProviderOllama:
		embedder, err = newOllamaEmbedder(settings, model)
	case ai.ProviderMistral:
		embedder, err = newMistralEmbedder(settings, model)
	case ai.ProviderVoyageAI:
		embedder, err = voyageai.NewVoyageAI(
			voyageai.WithToken(settings.APIKey),
			voyageai.WithModel(model),
			voyageai.WithStripNewLines(true),
		)
	default:
		return nil, fmt.Errorf("%w: %q cannot embed through langchaingo", ai.ErrUnsupportedProvider, provider)
	}
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		model:    model,
		logger:   slog.Default().With("component", "langchain-embedder", "provider", provider, "model", model),
	}, nil
}

// NewEmbedder creates an embedder for config.EmbeddingProvider, which must be
// one of openai, ollama, mistral or voyageai.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// NewEmbedderFromClient wraps any langchaingo embedder client, such as an HTTP
// client for a self-hosted embedding server.
func NewEmbedderFromClient(client embeddings.EmbedderClient, model string) (ai.Embedder, error) {
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}
	return &Embedder{
		embedder: embedder,
		model:    model,
		logger:   slog.Default().With("component", "langchain-embedder", "model", model),
	}, nil
}

func newOpenAIEmbedder(settings ai.ProviderSettings, model string) (embeddings.Embedder, error) {
	// Local OpenAI-compatible servers accept any token.
	token := settings.APIKey
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(settings.URL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
}

func newOllamaEmbedder(settings ai.ProviderSettings, model string) (embeddings.Embedder, error) {
	client, err := ollama.New(
		ollama.WithServerURL(settings.URL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
}

func newMistralEmbedder(settings ai.ProviderSettings, model string) (embeddings.Embedder, error) {
	client, err := mistral.New(
		mistral.WithAPIKey(settings.APIKey),
		mistral.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
}

// Model returns the embedding model in use.
func (e *Embedder) Model() string {
	return e.model
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}

	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d, want %d", ai.ErrCountMismatch, len(vectors), len(texts))
	}

	return vectors, nil
}

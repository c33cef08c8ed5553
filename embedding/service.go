// Package embedding turns record text into stored chunk embeddings.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/enricher/ai"
	"github.com/poiesic/enricher/core"
	"github.com/tmc/langchaingo/textsplitter"
)

// DefaultChunkSize is the maximum length of an embedded chunk.
const DefaultChunkSize = 1000

var whitespaceRun = regexp.MustCompile(`\s+`)

// Chunk is one embedded piece of a document.
type Chunk struct {
	Content string
	Vector  []float32
}

// Service splits documents into chunks and embeds them.
type Service struct {
	embedder ai.Embedder
	splitter textsplitter.TextSplitter
	model    string
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithChunkSize sets the maximum chunk length.
func WithChunkSize(size int) Option {
	return func(s *Service) {
		s.splitter = textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(0),
		)
	}
}

// WithModel records the embedding model name stored with each embedding.
func WithModel(model string) Option {
	return func(s *Service) {
		s.model = model
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a service over embedder. A nil embedder disables
// embeddings: every call returns an empty result.
func NewService(embedder ai.Embedder, opts ...Option) *Service {
	s := &Service{
		embedder: embedder,
		logger:   slog.Default(),
	}
	if m, ok := embedder.(interface{ Model() string }); ok {
		s.model = m.Model()
	}
	WithChunkSize(DefaultChunkSize)(s)
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "embedding")
	return s
}

// Enabled reports whether an embedder is configured.
func (s *Service) Enabled() bool {
	return s.embedder != nil
}

// Model returns the embedding model name, if known.
func (s *Service) Model() string {
	return s.model
}

// NormalizeText turns newlines and tabs into spaces, collapses whitespace
// runs and trims.
func NormalizeText(data string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(data, " "))
}

// EmbedDocument normalizes data, splits it into chunks and embeds every chunk.
func (s *Service) EmbedDocument(ctx context.Context, data string) ([]Chunk, error) {
	if s.embedder == nil {
		return nil, nil
	}
	content := NormalizeText(data)
	if content == "" {
		return nil, nil
	}

	parts, err := s.splitter.SplitText(content)
	if err != nil {
		return nil, fmt.Errorf("failed to split document: %w", err)
	}
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			texts = append(texts, p)
		}
	}
	if len(texts) == 0 {
		return nil, nil
	}

	s.logger.Debug("embedding document", "chunks", len(texts), "length", len(content))
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d, received %d", ai.ErrCountMismatch, len(texts), len(vectors))
	}

	chunks := make([]Chunk, len(texts))
	for i := range texts {
		chunks[i] = Chunk{Content: texts[i], Vector: vectors[i]}
	}
	return chunks, nil
}

// ToEmbeddings converts chunks into storable embeddings tagged with the model.
func (s *Service) ToEmbeddings(chunks []Chunk) []*core.Embedding {
	embeddings := make([]*core.Embedding, len(chunks))
	for i, c := range chunks {
		embeddings[i] = &core.Embedding{
			Content: c.Content,
			Vector:  c.Vector,
			Model:   s.model,
		}
	}
	return embeddings
}

// EmbedText embeds text as is.
func (s *Service) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if s.embedder == nil {
		return nil, nil
	}
	return s.embedder.EmbedText(ctx, text)
}

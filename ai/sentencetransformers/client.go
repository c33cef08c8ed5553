// Package sentencetransformers talks to a self-hosted sentence-transformers
// embedding server.
//
// The server is expected to accept POST {url}/embed with a JSON body
// {"inputs": ["...", ...]} and answer with a JSON array of vectors, which is
// the protocol of Hugging Face text-embeddings-inference and compatible
// sentence-transformers wrappers.
package sentencetransformers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/poiesic/enricher/ai"
	"github.com/poiesic/enricher/ai/langchain"
)

// Client implements langchaingo's embeddings.EmbedderClient over HTTP.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the server at url. apiKey may be empty.
func NewClient(url, apiKey string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewEmbedder creates an ai.Embedder for the sentence_transformers settings of config.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := config.Settings(ai.ProviderSentenceTransformers)
	client := NewClient(s.URL, s.APIKey, config.RequestTimeout)
	return langchain.NewEmbedderFromClient(client, ai.EmbeddingModelFor(ai.ProviderSentenceTransformers, s))
}

type embedRequest struct {
	Inputs []string `json:"inputs"`
}

// CreateEmbedding embeds texts in one request.
func (c *Client) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Inputs: texts})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sentence-transformers request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("sentence-transformers returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d, want %d", ai.ErrCountMismatch, len(vectors), len(texts))
	}
	return vectors, nil
}

// Package gemini implements ai.Embedder, ai.Translator and ai.ChatModel with
// the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/enricher/ai"
	"google.golang.org/genai"
)

// models is the part of genai.Models used here.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Client implements ai.Embedder, ai.Translator and ai.ChatModel.
type Client struct {
	models         models
	model          string
	embeddingModel string
	logger         *slog.Logger
}

// newClient is an internal constructor that returns the concrete type.
func newClient(ctx context.Context, config *ai.Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := config.Settings(ai.ProviderGemini)
	if s.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", ai.ErrMissingAPIKey)
	}

	cc := &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.URL != "" {
		cc.HTTPOptions.BaseURL = s.URL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newClientWithModels(client.Models, s.Model, ai.EmbeddingModelFor(ai.ProviderGemini, s)), nil
}

func newClientWithModels(m models, model, embeddingModel string) *Client {
	return &Client{
		models:         m,
		model:          model,
		embeddingModel: embeddingModel,
		logger:         slog.Default().With("component", "gemini", "model", model),
	}
}

// NewEmbedder creates an embedder using the gemini settings of config.
func NewEmbedder(ctx context.Context, config *ai.Config) (ai.Embedder, error) {
	return newClient(ctx, config)
}

// NewTranslator creates a translator using the gemini settings of config.
func NewTranslator(ctx context.Context, config *ai.Config) (ai.Translator, error) {
	return newClient(ctx, config)
}

// NewChat creates a chat model using the gemini settings of config.
func NewChat(ctx context.Context, config *ai.Config) (ai.ChatModel, error) {
	return newClient(ctx, config)
}

// EmbedText generates a vector embedding for a single text string.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple texts in one request.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	c.logger.Debug("generating embeddings for texts", "count", len(texts))

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}
	resp, err := c.models.EmbedContent(ctx, c.embeddingModel, contents, &genai.EmbedContentConfig{})
	if err != nil {
		c.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("%w: got %d, want %d", ai.ErrCountMismatch, got, len(texts))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

// Translate translates a single text.
func (c *Client) Translate(ctx context.Context, text, from, to string) (string, error) {
	out, err := c.TranslateBatch(ctx, []string{text}, from, to)
	if err != nil {
		return "", err
	}
	return out[0], nil
}

// TranslateBatch translates texts in a single request.
func (c *Client) TranslateBatch(ctx context.Context, texts []string, from, to string) ([]string, error) {
	c.logger.Debug("translating texts", "count", len(texts), "from", from, "to", to)
	return ai.TranslateWithCompletion(ctx, c.complete, texts, from, to, c.logger)
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0),
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}
	resp, err := c.models.GenerateContent(ctx, c.model, []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}, config)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return responseText(resp), nil
}

// Chat sends the conversation to Gemini. System messages become the
// system instruction; assistant turns use the model role.
func (c *Client) Chat(ctx context.Context, messages []ai.ChatMessage) (*ai.ChatReply, error) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	config := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		c.logger.Error("failed to generate reply", "err", err)
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return nil, fmt.Errorf("%w: no text in reply", ai.ErrMalformedResponse)
	}

	reply := &ai.ChatReply{Content: text}
	if resp.UsageMetadata != nil {
		reply.TokenCount = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return reply, nil
}

// responseText returns the text of the first candidate that has any.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}

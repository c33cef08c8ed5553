// Package claude implements ai.Translator and ai.ChatModel with Anthropic's
// Messages API.
package claude

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/poiesic/enricher/ai"
)

const defaultMaxTokens = 4096

// messageCreator is the part of the Anthropic client used here.
type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Client implements ai.Translator and ai.ChatModel.
type Client struct {
	messages  messageCreator
	model     string
	maxTokens int64
	logger    *slog.Logger
}

// newClient is an internal constructor that returns the concrete type.
func newClient(config *ai.Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := config.Settings(ai.ProviderAnthropic)
	if s.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w", ai.ErrMissingAPIKey)
	}

	opts := []option.RequestOption{option.WithAPIKey(s.APIKey)}
	if s.URL != "" {
		opts = append(opts, option.WithBaseURL(s.URL))
	}
	if config.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.RequestTimeout))
	}
	client := anthropic.NewClient(opts...)

	return newClientWithMessages(&client.Messages, s.Model), nil
}

func newClientWithMessages(messages messageCreator, model string) *Client {
	return &Client{
		messages:  messages,
		model:     model,
		maxTokens: defaultMaxTokens,
		logger:    slog.Default().With("component", "claude", "model", model),
	}
}

// NewTranslator creates a translator using the anthropic settings of config.
//
// Returns ai.Translator interface to enforce abstraction.
func NewTranslator(config *ai.Config) (ai.Translator, error) {
	return newClient(config)
}

// NewChat creates a chat model using the anthropic settings of config.
func NewChat(config *ai.Config) (ai.ChatModel, error) {
	return newClient(config)
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
	resp, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(user))},
		System:      []anthropic.TextBlockParam{{Text: system}},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("claude API call failed: %w", err)
	}
	return responseText(resp), nil
}

// Chat sends the conversation to Claude. System messages are folded into
// the request's system prompt.
func (c *Client) Chat(ctx context.Context, messages []ai.ChatMessage) (*ai.ChatReply, error) {
	var system []string
	params := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			params = append(params, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params = append(params, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	body := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  params,
	}
	if len(system) > 0 {
		body.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	resp, err := c.messages.New(ctx, body)
	if err != nil {
		c.logger.Error("failed to generate reply", "err", err)
		return nil, fmt.Errorf("claude API call failed: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return nil, fmt.Errorf("%w: no text in reply", ai.ErrMalformedResponse)
	}
	return &ai.ChatReply{Content: text, TokenCount: int(resp.Usage.OutputTokens)}, nil
}

// responseText concatenates the text blocks of a reply.
func responseText(resp *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

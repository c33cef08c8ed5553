package langchain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/enricher/ai"
	"github.com/tmc/langchaingo/llms"
)

// Chat implements ai.ChatModel over a langchaingo model.
type Chat struct {
	client llms.Model
	logger *slog.Logger
}

// NewChat creates a chat model for config.ChatProvider.
func NewChat(config *ai.Config) (ai.ChatModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newModel(config, config.ChatProvider)
	if err != nil {
		return nil, err
	}
	return NewChatWithModel(client), nil
}

// NewChatWithModel wraps an existing langchaingo model.
func NewChatWithModel(client llms.Model) *Chat {
	return &Chat{
		client: client,
		logger: slog.Default().With("component", "langchain-chat"),
	}
}

var chatRoles = map[string]llms.ChatMessageType{
	"system":    llms.ChatMessageTypeSystem,
	"user":      llms.ChatMessageTypeHuman,
	"assistant": llms.ChatMessageTypeAI,
}

// Chat sends the conversation to the model and returns its reply.
func (c *Chat) Chat(ctx context.Context, messages []ai.ChatMessage) (*ai.ChatReply, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		role, ok := chatRoles[m.Role]
		if !ok {
			return nil, fmt.Errorf("unknown chat role %q", m.Role)
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	response, err := c.client.GenerateContent(ctx, content)
	if err != nil {
		c.logger.Error("failed to generate reply", "err", err)
		return nil, err
	}
	if len(response.Choices) < 1 {
		return nil, fmt.Errorf("%w: no choices returned", ai.ErrMalformedResponse)
	}

	choice := response.Choices[0]
	return &ai.ChatReply{
		Content:    choice.Content,
		TokenCount: tokenCount(choice.GenerationInfo),
	}, nil
}

// tokenCount reads the completion token count providers put in GenerationInfo.
func tokenCount(info map[string]any) int {
	for _, key := range []string{"CompletionTokens", "completion_tokens", "eval_count"} {
		switch v := info[key].(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}

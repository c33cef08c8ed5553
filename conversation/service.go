// Package conversation manages chat threads and runs them through the
// configured chat model.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/enricher/ai"
	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/storage"
)

// Service manages conversations and their messages.
type Service struct {
	repo   storage.ConversationRepository
	chat   ai.ChatModel
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a conversation service. chat may be nil, in which case
// Reply fails with ErrNoChatModel.
func NewService(repo storage.ConversationRepository, chat ai.ChatModel, opts ...Option) *Service {
	s := &Service{repo: repo, chat: chat, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "conversation")
	return s
}

// Create stores a new conversation.
func (s *Service) Create(ctx context.Context, userID, title, systemMessage string, metadata map[string]string) (*core.Conversation, error) {
	return s.repo.CreateConversation(ctx, &core.Conversation{
		UserID:        userID,
		Title:         title,
		SystemMessage: systemMessage,
		Metadata:      metadata,
	})
}

// Get returns a conversation.
func (s *Service) Get(ctx context.Context, id string) (*core.Conversation, error) {
	return s.repo.GetConversation(ctx, id)
}

// List returns the conversations of a user, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*core.Conversation, error) {
	return s.repo.ListConversations(ctx, userID)
}

// Delete removes a conversation with its messages.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteConversation(ctx, id)
}

// AddMessage appends a message to a conversation.
func (s *Service) AddMessage(ctx context.Context, conversationID string, role core.Role, content string, metadata map[string]string) (*core.Message, error) {
	return s.repo.AddMessage(ctx, &core.Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Metadata:       metadata,
	})
}

// Messages returns the messages of a conversation in creation order.
func (s *Service) Messages(ctx context.Context, conversationID string) ([]*core.Message, error) {
	return s.repo.GetMessages(ctx, conversationID)
}

// MessagesByRole returns the messages of a conversation written by role.
func (s *Service) MessagesByRole(ctx context.Context, conversationID string, role core.Role) ([]*core.Message, error) {
	all, err := s.Messages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	var out []*core.Message
	for _, m := range all {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out, nil
}

// MessagesForLLM returns the conversation as chat turns: the system message
// first when there is one, then every message in order.
func (s *Service) MessagesForLLM(ctx context.Context, conversationID string) ([]ai.ChatMessage, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.GetMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	turns := make([]ai.ChatMessage, 0, len(messages)+1)
	if conv.SystemMessage != "" {
		turns = append(turns, ai.ChatMessage{Role: string(core.RoleSystem), Content: conv.SystemMessage})
	}
	for _, m := range messages {
		turns = append(turns, ai.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return turns, nil
}

// Reply appends content as a user message, runs the conversation through
// the chat model and stores its answer as an assistant message.
func (s *Service) Reply(ctx context.Context, conversationID, content string) (*core.Message, error) {
	if s.chat == nil {
		return nil, ErrNoChatModel
	}
	if _, err := s.AddMessage(ctx, conversationID, core.RoleUser, content, nil); err != nil {
		return nil, err
	}

	turns, err := s.MessagesForLLM(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With("conversation_id", conversationID)
	logger.Debug("requesting reply", "turns", len(turns))
	reply, err := s.chat.Chat(ctx, turns)
	if err != nil {
		logger.Error("chat model failed", "err", err)
		return nil, fmt.Errorf("generating reply: %w", err)
	}
	if strings.TrimSpace(reply.Content) == "" {
		return nil, ErrEmptyReply
	}

	return s.repo.AddMessage(ctx, &core.Message{
		ConversationID: conversationID,
		Role:           core.RoleAssistant,
		Content:        reply.Content,
		TokenCount:     reply.TokenCount,
	})
}

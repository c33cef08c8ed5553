package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Translator translates text between locales.
// Implementations must be thread-safe for concurrent use.
type Translator interface {
	// Translate translates text from one locale to another.
	Translate(ctx context.Context, text, from, to string) (string, error)

	// TranslateBatch translates several texts from one locale to another.
	// The result has the same length and order as texts.
	TranslateBatch(ctx context.Context, texts []string, from, to string) ([]string, error)
}

// ChatMessage is one turn of a conversation sent to a ChatModel.
type ChatMessage struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// ChatReply is the model's answer to a conversation.
type ChatReply struct {
	Content string
	// TokenCount is the number of tokens the provider reported for the
	// reply, or 0 when it reported none.
	TokenCount int
}

// ChatModel produces the next assistant message of a conversation.
type ChatModel interface {
	Chat(ctx context.Context, messages []ChatMessage) (*ChatReply, error)
}

// AIProvider aggregates the AI services selected by a Config.
// Any accessor may return nil when the configured provider does not
// offer that capability.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Translator returns the translation service.
	Translator() Translator

	// Chat returns the conversation model.
	Chat() ChatModel

	// Close releases resources held by the provider and its services.
	Close() error
}

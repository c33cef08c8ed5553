package storage

import (
	"context"
	"time"

	"github.com/poiesic/enricher/core"
)

// RecordRepository stores model records.
// Implementations must be thread-safe and support concurrent access.
type RecordRepository interface {
	// SaveRecord inserts or replaces a record.
	// Sets InsertedAt on first save and UpdatedAt on every save.
	SaveRecord(ctx context.Context, record *core.Record) (*core.Record, error)

	// GetRecord retrieves a record.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, ref core.Ref) (*core.Record, error)

	// UpdateRecord atomically applies fn to the stored record and saves the result.
	// fn may run more than once if a concurrent write conflicts.
	// Returns ErrNotFound if the record doesn't exist.
	UpdateRecord(ctx context.Context, ref core.Ref, fn func(*core.Record) error) (*core.Record, error)

	// DeleteRecord removes a record.
	// Returns ErrNotFound if the record doesn't exist.
	DeleteRecord(ctx context.Context, ref core.Ref) error

	// ForEachRecord calls fn for each record of table, in no particular order.
	// Iteration stops at the first error fn returns.
	ForEachRecord(ctx context.Context, table string, fn func(*core.Record) error) error

	// CountRecords returns the number of records in table.
	CountRecords(ctx context.Context, table string) (int, error)
}

// EmbeddingRepository stores chunk embeddings of records and answers
// vector similarity queries over them.
type EmbeddingRepository interface {
	// ReplaceEmbeddings atomically replaces all embeddings of a record.
	ReplaceEmbeddings(ctx context.Context, ref core.Ref, embeddings []*core.Embedding) error

	// GetEmbeddings returns a record's embeddings ordered by chunk.
	GetEmbeddings(ctx context.Context, ref core.Ref) ([]*core.Embedding, error)

	// DeleteEmbeddings removes all embeddings of a record.
	DeleteEmbeddings(ctx context.Context, ref core.Ref) error

	// FindSimilar returns the records whose best chunk has cosine similarity
	// >= minSimilarity to vector, best first, up to limit results. An empty
	// tables list searches every table.
	FindSimilar(ctx context.Context, vector []float32, tables []string, minSimilarity float32, limit int) ([]*core.SimilarityMatch, error)
}

// SearchIndex holds the searchable documents of indexed records.
type SearchIndex interface {
	// IndexDocument inserts or replaces a document.
	IndexDocument(ctx context.Context, doc *core.SearchDocument) error

	// GetDocument retrieves a document.
	// Returns ErrNotFound if the record is not indexed.
	GetDocument(ctx context.Context, ref core.Ref) (*core.SearchDocument, error)

	// GetDocuments retrieves documents; missing ones are skipped.
	GetDocuments(ctx context.Context, refs ...core.Ref) ([]*core.SearchDocument, error)

	// RemoveDocument removes a document. Removing a missing document is not an error.
	RemoveDocument(ctx context.Context, ref core.Ref) error

	// ForEachDocument calls fn for each document of table, or of every table
	// when table is empty.
	ForEachDocument(ctx context.Context, table string, fn func(*core.SearchDocument) error) error
}

// ConversationRepository stores conversations and their messages.
type ConversationRepository interface {
	// CreateConversation stores a new conversation, assigning an ID if empty.
	CreateConversation(ctx context.Context, conv *core.Conversation) (*core.Conversation, error)

	// GetConversation retrieves a conversation.
	// Returns ErrNotFound if the conversation doesn't exist.
	GetConversation(ctx context.Context, id string) (*core.Conversation, error)

	// ListConversations returns a user's conversations, newest first.
	ListConversations(ctx context.Context, userID string) ([]*core.Conversation, error)

	// DeleteConversation removes a conversation and its messages.
	// Returns ErrNotFound if the conversation doesn't exist.
	DeleteConversation(ctx context.Context, id string) error

	// AddMessage appends a message to its conversation.
	// Returns ErrNotFound if the conversation doesn't exist.
	AddMessage(ctx context.Context, msg *core.Message) (*core.Message, error)

	// GetMessages returns a conversation's messages in the order they were added.
	GetMessages(ctx context.Context, conversationID string) ([]*core.Message, error)
}

// IndexingStateStore is the cache holding pending pre-processing state,
// keyed by core.Ref.CacheKey(). Entries expire after their TTL; every write
// resets it.
type IndexingStateStore interface {
	// Get returns the pending state of a record.
	// Returns ErrNotFound if there is none or it expired.
	Get(ctx context.Context, ref core.Ref) (*core.IndexingState, error)

	// Put stores state with the given TTL.
	Put(ctx context.Context, state *core.IndexingState, ttl time.Duration) error

	// Update atomically reads the state of ref, passes it to fn (nil when
	// absent) and stores what fn returns with the given TTL. A nil result
	// deletes the entry. fn may run more than once if a concurrent write
	// conflicts, so it must not have side effects. Returns the stored state.
	Update(ctx context.Context, ref core.Ref, ttl time.Duration, fn func(*core.IndexingState) (*core.IndexingState, error)) (*core.IndexingState, error)

	// Delete removes the state of ref. Deleting a missing entry is not an error.
	Delete(ctx context.Context, ref core.Ref) error

	// Close releases resources held by the store.
	Close() error
}

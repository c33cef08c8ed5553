package badger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/storage"
	"github.com/timshannon/badgerhold/v4"
)

// ConversationRepository implements storage.ConversationRepository using BadgerDB.
type ConversationRepository struct {
	backend *Backend
	seq     *badger.Sequence
	logger  *slog.Logger
}

var _ storage.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a conversation repository on backend.
func NewConversationRepository(backend *Backend) (storage.ConversationRepository, error) {
	return newConversationRepository(backend)
}

func newConversationRepository(backend *Backend) (*ConversationRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	seq, err := backend.GetSequence(messageSeq)
	if err != nil {
		return nil, fmt.Errorf("failed to get message sequence: %w", err)
	}
	return &ConversationRepository{
		backend: backend,
		seq:     seq,
		logger:  backend.logger.With("repository", "conversations"),
	}, nil
}

// Close releases the message sequence.
func (r *ConversationRepository) Close() error {
	return r.seq.Release()
}

func (r *ConversationRepository) CreateConversation(ctx context.Context, conv *core.Conversation) (*core.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	conv.InsertedAt = now
	conv.UpdatedAt = now
	if err := r.backend.Store().Insert(conv.ID, conv); err != nil {
		return nil, mapError(err)
	}
	return conv, nil
}

func (r *ConversationRepository) GetConversation(ctx context.Context, id string) (*core.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var conv core.Conversation
	if err := r.backend.Store().Get(id, &conv); err != nil {
		return nil, mapError(err)
	}
	return &conv, nil
}

func (r *ConversationRepository) ListConversations(ctx context.Context, userID string) ([]*core.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var found []core.Conversation
	if err := r.backend.Store().Find(&found, badgerhold.Where("UserID").Eq(userID)); err != nil {
		return nil, mapError(err)
	}
	results := make([]*core.Conversation, len(found))
	for i := range found {
		results[i] = &found[i]
	}
	slices.SortFunc(results, func(a, b *core.Conversation) int {
		return b.InsertedAt.Compare(a.InsertedAt)
	})
	return results, nil
}

func (r *ConversationRepository) DeleteConversation(ctx context.Context, id string) error {
	store := r.backend.Store()
	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		var conv core.Conversation
		if err := store.TxGet(tx, id, &conv); err != nil {
			return err
		}
		if err := store.TxDeleteMatching(tx, &core.Message{}, badgerhold.Where("ConversationID").Eq(id)); err != nil {
			return err
		}
		return store.TxDelete(tx, id, &core.Conversation{})
	})
}

// AddMessage appends msg and bumps the conversation's UpdatedAt.
func (r *ConversationRepository) AddMessage(ctx context.Context, msg *core.Message) (*core.Message, error) {
	if err := core.ValidateMessage(msg); err != nil {
		return nil, err
	}
	seq, err := r.nextSeq()
	if err != nil {
		return nil, err
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Seq = seq
	msg.CreatedAt = time.Now().UTC()

	store := r.backend.Store()
	err = r.backend.Update(ctx, func(tx *badger.Txn) error {
		var conv core.Conversation
		if err := store.TxGet(tx, msg.ConversationID, &conv); err != nil {
			return err
		}
		conv.UpdatedAt = msg.CreatedAt
		if err := store.TxUpsert(tx, conv.ID, &conv); err != nil {
			return err
		}
		return store.TxUpsert(tx, msg.ID, msg)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *ConversationRepository) GetMessages(ctx context.Context, conversationID string) ([]*core.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var found []core.Message
	if err := r.backend.Store().Find(&found, badgerhold.Where("ConversationID").Eq(conversationID)); err != nil {
		return nil, mapError(err)
	}
	results := make([]*core.Message, len(found))
	for i := range found {
		results[i] = &found[i]
	}
	slices.SortFunc(results, func(a, b *core.Message) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
	return results, nil
}

func (r *ConversationRepository) nextSeq() (uint64, error) {
	seq, err := r.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("failed to get next message sequence: %w", err)
	}
	// Badger sequences start at zero
	if seq == 0 {
		seq, err = r.seq.Next()
		if err != nil {
			return 0, fmt.Errorf("failed to get next message sequence: %w", err)
		}
	}
	return seq, nil
}

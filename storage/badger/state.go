package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/storage"
)

// StateStore implements storage.IndexingStateStore with BadgerDB entry TTLs.
// States live under raw keys outside the badgerhold keyspace.
type StateStore struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.IndexingStateStore = (*StateStore)(nil)

// NewStateStore creates an indexing state store on backend.
func NewStateStore(backend *Backend) (storage.IndexingStateStore, error) {
	return newStateStore(backend)
}

func newStateStore(backend *Backend) (*StateStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	return &StateStore{
		backend: backend,
		logger:  backend.logger.With("repository", "indexing_state"),
	}, nil
}

func (s *StateStore) Get(ctx context.Context, ref core.Ref) (*core.IndexingState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var state *core.IndexingState
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		state, err = readState(tx, ref)
		return err
	}, false)
	if err != nil {
		return nil, mapError(err)
	}
	if state == nil {
		return nil, storage.ErrNotFound
	}
	return state, nil
}

func (s *StateStore) Put(ctx context.Context, state *core.IndexingState, ttl time.Duration) error {
	if state == nil {
		return fmt.Errorf("state is nil")
	}
	return s.backend.Update(ctx, func(tx *badger.Txn) error {
		return writeState(tx, state, ttl)
	})
}

func (s *StateStore) Update(ctx context.Context, ref core.Ref, ttl time.Duration, fn func(*core.IndexingState) (*core.IndexingState, error)) (*core.IndexingState, error) {
	var result *core.IndexingState
	err := s.backend.Update(ctx, func(tx *badger.Txn) error {
		current, err := readState(tx, ref)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		result = next
		if next == nil {
			if current == nil {
				return nil
			}
			return tx.Delete(stateKey(ref))
		}
		next.Ref = ref
		return writeState(tx, next, ttl)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *StateStore) Delete(ctx context.Context, ref core.Ref) error {
	return s.backend.Update(ctx, func(tx *badger.Txn) error {
		return tx.Delete(stateKey(ref))
	})
}

// ExpiresAt returns when the state of ref expires.
func (s *StateStore) ExpiresAt(ctx context.Context, ref core.Ref) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	var expiresAt uint64
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(stateKey(ref))
		if err != nil {
			return err
		}
		expiresAt = item.ExpiresAt()
		return nil
	}, false)
	if err != nil {
		return time.Time{}, mapError(err)
	}
	return time.Unix(int64(expiresAt), 0), nil
}

// Close is a no-op; the backend owns the database.
func (s *StateStore) Close() error {
	return nil
}

// readState returns nil when ref has no live state.
func readState(tx *badger.Txn, ref core.Ref) (*core.IndexingState, error) {
	item, err := tx.Get(stateKey(ref))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state *core.IndexingState
	err = item.Value(func(val []byte) error {
		var err error
		state, err = storage.UnmarshalIndexingState(val)
		return err
	})
	return state, err
}

func writeState(tx *badger.Txn, state *core.IndexingState, ttl time.Duration) error {
	data, err := storage.MarshalIndexingState(state)
	if err != nil {
		return err
	}
	entry := badger.NewEntry(stateKey(state.Ref), data)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}
	return tx.SetEntry(entry)
}

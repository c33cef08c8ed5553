package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/enricher/storage"
	"github.com/timshannon/badgerhold/v4"
)

const (
	defaultSequenceBandwidth = 100

	// maxTxRetries bounds how often a conflicting read-modify-write is retried.
	maxTxRetries = 16
)

// Backend wraps a badgerhold store and the BadgerDB instance underneath it.
type Backend struct {
	store  *badgerhold.Store
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	opts := badgerhold.DefaultOptions

	if inMemory {
		opts.Dir = ""
		opts.ValueDir = ""
		opts.InMemory = true
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts.Dir = filePath
		opts.ValueDir = filePath
	}

	logger := slog.Default().With("component", "badger")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	store, err := badgerhold.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		store:  store,
		logger: logger,
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.store.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.store.Badger().IsClosed()
}

// Store returns the badgerhold store.
func (b *Backend) Store() *badgerhold.Store {
	return b.store
}

// DB returns the underlying BadgerDB instance.
func (b *Backend) DB() *badger.DB {
	return b.store.Badger()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction which is committed
// when fn succeeds. The transaction is discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if isWrite {
		return b.DB().Update(fn)
	}
	return b.DB().View(fn)
}

// Update runs fn in a read-write transaction, retrying from scratch when the
// commit conflicts with a concurrent writer.
func (b *Backend) Update(ctx context.Context, fn func(tx *badger.Txn) error) error {
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := b.WithTx(fn, true)
		if !errors.Is(err, badger.ErrConflict) {
			return mapError(err)
		}
		b.logger.Debug("transaction conflict, retrying", "attempt", attempt+1)
	}
	return storage.ErrConflict
}

// GetSequence returns a BadgerDB sequence for generating sequential IDs.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.DB().GetSequence([]byte(name), defaultSequenceBandwidth)
}

// mapError converts backend errors into storage sentinels.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badgerhold.ErrNotFound), errors.Is(err, badger.ErrKeyNotFound):
		return storage.ErrNotFound
	case errors.Is(err, badger.ErrDBClosed):
		return storage.ErrStorageClosed
	}
	return err
}

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
	"github.com/timshannon/badgerhold/v4"
)

// RecordRepository implements storage.RecordRepository using BadgerDB.
type RecordRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.RecordRepository = (*RecordRepository)(nil)

// NewRecordRepository creates a record repository on backend.
func NewRecordRepository(backend *Backend) (storage.RecordRepository, error) {
	return newRecordRepository(backend)
}

func newRecordRepository(backend *Backend) (*RecordRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	return &RecordRepository{
		backend: backend,
		logger:  backend.logger.With("repository", "records"),
	}, nil
}

// SaveRecord inserts or replaces a record. A record saved without
// translations keeps the ones already stored.
func (r *RecordRepository) SaveRecord(ctx context.Context, record *core.Record) (*core.Record, error) {
	if err := core.ValidateRecord(record); err != nil {
		return nil, err
	}
	key := recordKey(record.Ref())
	store := r.backend.Store()

	err := r.backend.Update(ctx, func(tx *badger.Txn) error {
		var existing core.Record
		now := time.Now().UTC()
		err := store.TxGet(tx, key, &existing)
		switch {
		case err == nil:
			record.InsertedAt = existing.InsertedAt
			if record.Translations == nil {
				record.Translations = existing.Translations
				record.TranslationSources = existing.TranslationSources
			}
		case errors.Is(err, badgerhold.ErrNotFound):
			record.InsertedAt = now
		default:
			return err
		}
		record.UpdatedAt = now
		return store.TxUpsert(tx, key, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetRecord retrieves a record.
func (r *RecordRepository) GetRecord(ctx context.Context, ref core.Ref) (*core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var record core.Record
	if err := r.backend.Store().Get(recordKey(ref), &record); err != nil {
		return nil, mapError(err)
	}
	return &record, nil
}

// UpdateRecord atomically applies fn to the stored record.
func (r *RecordRepository) UpdateRecord(ctx context.Context, ref core.Ref, fn func(*core.Record) error) (*core.Record, error) {
	key := recordKey(ref)
	store := r.backend.Store()

	var updated *core.Record
	err := r.backend.Update(ctx, func(tx *badger.Txn) error {
		var record core.Record
		if err := store.TxGet(tx, key, &record); err != nil {
			return err
		}
		if err := fn(&record); err != nil {
			return err
		}
		// The key is fixed by ref; fn may not move the record.
		record.Table = ref.Table
		record.Key = ref.Key
		record.UpdatedAt = time.Now().UTC()
		if err := store.TxUpsert(tx, key, &record); err != nil {
			return err
		}
		updated = &record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteRecord removes a record.
func (r *RecordRepository) DeleteRecord(ctx context.Context, ref core.Ref) error {
	key := recordKey(ref)
	store := r.backend.Store()
	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		var record core.Record
		if err := store.TxGet(tx, key, &record); err != nil {
			return err
		}
		return store.TxDelete(tx, key, &core.Record{})
	})
}

// ForEachRecord calls fn for each record of table.
func (r *RecordRepository) ForEachRecord(ctx context.Context, table string, fn func(*core.Record) error) error {
	query := badgerhold.Where("Table").Eq(table)
	err := r.backend.Store().ForEach(query, func(record *core.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(record)
	})
	return mapError(err)
}

// CountRecords returns the number of records in table.
func (r *RecordRepository) CountRecords(ctx context.Context, table string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count, err := r.backend.Store().Count(&core.Record{}, badgerhold.Where("Table").Eq(table))
	if err != nil {
		return 0, mapError(err)
	}
	return int(count), nil
}

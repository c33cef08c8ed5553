package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/storage"
	"github.com/timshannon/badgerhold/v4"
)

// SearchIndex implements storage.SearchIndex using BadgerDB.
type SearchIndex struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.SearchIndex = (*SearchIndex)(nil)

// NewSearchIndex creates a search index on backend.
func NewSearchIndex(backend *Backend) (storage.SearchIndex, error) {
	return newSearchIndex(backend)
}

func newSearchIndex(backend *Backend) (*SearchIndex, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	return &SearchIndex{
		backend: backend,
		logger:  backend.logger.With("repository", "search_index"),
	}, nil
}

func (s *SearchIndex) IndexDocument(ctx context.Context, doc *core.SearchDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.Table == "" {
		return core.ErrEmptyTable
	}
	if doc.Key == "" {
		return core.ErrEmptyKey
	}
	doc.ID = recordKey(doc.Ref())
	if doc.IndexedAt.IsZero() {
		doc.IndexedAt = time.Now().UTC()
	}
	return mapError(s.backend.Store().Upsert(doc.ID, doc))
}

func (s *SearchIndex) GetDocument(ctx context.Context, ref core.Ref) (*core.SearchDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc core.SearchDocument
	if err := s.backend.Store().Get(recordKey(ref), &doc); err != nil {
		return nil, mapError(err)
	}
	return &doc, nil
}

func (s *SearchIndex) GetDocuments(ctx context.Context, refs ...core.Ref) ([]*core.SearchDocument, error) {
	docs := make([]*core.SearchDocument, 0, len(refs))
	for _, ref := range refs {
		doc, err := s.GetDocument(ctx, ref)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *SearchIndex) RemoveDocument(ctx context.Context, ref core.Ref) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.backend.Store().Delete(recordKey(ref), &core.SearchDocument{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil
	}
	return mapError(err)
}

func (s *SearchIndex) ForEachDocument(ctx context.Context, table string, fn func(*core.SearchDocument) error) error {
	query := badgerhold.Where("ID").Ne("")
	if table != "" {
		query = badgerhold.Where("Table").Eq(table)
	}
	err := s.backend.Store().ForEach(query, func(doc *core.SearchDocument) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(doc)
	})
	return mapError(err)
}

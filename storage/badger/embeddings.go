package badger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/storage"
	"github.com/timshannon/badgerhold/v4"
)

// EmbeddingRepository implements storage.EmbeddingRepository using BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates an embedding repository on backend.
func NewEmbeddingRepository(backend *Backend) (storage.EmbeddingRepository, error) {
	return newEmbeddingRepository(backend)
}

func newEmbeddingRepository(backend *Backend) (*EmbeddingRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	return &EmbeddingRepository{
		backend: backend,
		logger:  backend.logger.With("repository", "embeddings"),
	}, nil
}

func refQuery(ref core.Ref) *badgerhold.Query {
	return badgerhold.Where("Table").Eq(ref.Table).And("Key").Eq(ref.Key)
}

// ReplaceEmbeddings atomically replaces all embeddings of a record.
func (r *EmbeddingRepository) ReplaceEmbeddings(ctx context.Context, ref core.Ref, embeddings []*core.Embedding) error {
	store := r.backend.Store()
	now := time.Now().UTC()
	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		if err := store.TxDeleteMatching(tx, &core.Embedding{}, refQuery(ref)); err != nil {
			return err
		}
		for i, e := range embeddings {
			e.Table = ref.Table
			e.Key = ref.Key
			e.Chunk = i
			e.ID = embeddingKey(ref, i)
			if e.CreatedAt.IsZero() {
				e.CreatedAt = now
			}
			if err := store.TxUpsert(tx, e.ID, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetEmbeddings returns a record's embeddings ordered by chunk.
func (r *EmbeddingRepository) GetEmbeddings(ctx context.Context, ref core.Ref) ([]*core.Embedding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var found []core.Embedding
	if err := r.backend.Store().Find(&found, refQuery(ref)); err != nil {
		return nil, mapError(err)
	}
	results := make([]*core.Embedding, len(found))
	for i := range found {
		results[i] = &found[i]
	}
	slices.SortFunc(results, func(a, b *core.Embedding) int {
		return a.Chunk - b.Chunk
	})
	return results, nil
}

// DeleteEmbeddings removes all embeddings of a record.
func (r *EmbeddingRepository) DeleteEmbeddings(ctx context.Context, ref core.Ref) error {
	store := r.backend.Store()
	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		return store.TxDeleteMatching(tx, &core.Embedding{}, refQuery(ref))
	})
}

// FindSimilar scores every chunk against vector and keeps each record's best chunk.
func (r *EmbeddingRepository) FindSimilar(ctx context.Context, vector []float32, tables []string, minSimilarity float32, limit int) ([]*core.SimilarityMatch, error) {
	var query *badgerhold.Query
	if len(tables) > 0 {
		values := make([]any, len(tables))
		for i, t := range tables {
			values[i] = t
		}
		query = badgerhold.Where("Table").In(values...)
	} else {
		query = badgerhold.Where("ID").Ne("")
	}

	best := make(map[core.Ref]*core.SimilarityMatch)
	err := r.backend.Store().ForEach(query, func(e *core.Embedding) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(e.Vector) == 0 {
			return nil
		}
		similarity := cosineSimilarity(vector, e.Vector)
		if similarity < minSimilarity {
			return nil
		}
		ref := core.Ref{Table: e.Table, Key: e.Key}
		if current, ok := best[ref]; !ok || similarity > current.Score {
			best[ref] = &core.SimilarityMatch{Ref: ref, Chunk: e.Chunk, Score: similarity}
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	results := make([]*core.SimilarityMatch, 0, len(best))
	for _, m := range best {
		results = append(results, m)
	}

	// Sort by similarity descending, ties by reference for stable output
	slices.SortFunc(results, func(a, b *core.SimilarityMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.Ref.String() < b.Ref.String() {
			return -1
		}
		if a.Ref.String() > b.Ref.String() {
			return 1
		}
		return 0
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// cosineSimilarity returns 0 for vectors of different length or zero norm.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

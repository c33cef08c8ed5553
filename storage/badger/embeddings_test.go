package badger

import (
	"context"
	"testing"

	"github.com/poiesic/enricher/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingsOf(vectors ...[]float32) []*core.Embedding {
	embeddings := make([]*core.Embedding, len(vectors))
	for i, v := range vectors {
		embeddings[i] = &core.Embedding{Content: "chunk", Vector: v, Model: "test"}
	}
	return embeddings
}

func TestReplaceEmbeddings(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()
	ref := core.Ref{Table: "articles", Key: "1"}

	err := repos.Embeddings.ReplaceEmbeddings(ctx, ref, embeddingsOf(
		[]float32{1, 0}, []float32{0, 1}, []float32{1, 1},
	))
	require.NoError(t, err)

	got, err := repos.Embeddings.GetEmbeddings(ctx, ref)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, e := range got {
		assert.Equal(t, i, e.Chunk)
		assert.Equal(t, "articles", e.Table)
		assert.Equal(t, "1", e.Key)
		assert.Equal(t, embeddingKey(ref, i), e.ID)
		assert.False(t, e.CreatedAt.IsZero())
	}

	// Replacing with fewer chunks drops the old ones
	err = repos.Embeddings.ReplaceEmbeddings(ctx, ref, embeddingsOf([]float32{0.5, 0.5}))
	require.NoError(t, err)

	got, err = repos.Embeddings.GetEmbeddings(ctx, ref)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []float32{0.5, 0.5}, got[0].Vector)
}

func TestDeleteEmbeddings(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()
	ref := core.Ref{Table: "articles", Key: "1"}
	other := core.Ref{Table: "articles", Key: "2"}

	require.NoError(t, repos.Embeddings.ReplaceEmbeddings(ctx, ref, embeddingsOf([]float32{1, 0})))
	require.NoError(t, repos.Embeddings.ReplaceEmbeddings(ctx, other, embeddingsOf([]float32{0, 1})))

	require.NoError(t, repos.Embeddings.DeleteEmbeddings(ctx, ref))

	got, err := repos.Embeddings.GetEmbeddings(ctx, ref)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = repos.Embeddings.GetEmbeddings(ctx, other)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFindSimilar_NoEmbeddings(t *testing.T) {
	repos := newTestRepositories(t)

	results, err := repos.Embeddings.FindSimilar(context.Background(), []float32{1, 0, 0}, nil, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_BestChunkPerRecord(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	require.NoError(t, repos.Embeddings.ReplaceEmbeddings(ctx, core.Ref{Table: "articles", Key: "1"},
		embeddingsOf([]float32{0, 0, 1}, []float32{1, 0, 0})))
	require.NoError(t, repos.Embeddings.ReplaceEmbeddings(ctx, core.Ref{Table: "articles", Key: "2"},
		embeddingsOf([]float32{0.9, 0.1, 0})))
	require.NoError(t, repos.Embeddings.ReplaceEmbeddings(ctx, core.Ref{Table: "articles", Key: "3"},
		embeddingsOf([]float32{0, 1, 0})))

	results, err := repos.Embeddings.FindSimilar(ctx, []float32{1, 0, 0}, nil, 0.8, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "1", results[0].Ref.Key)
	assert.Equal(t, 1, results[0].Chunk)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "2", results[1].Ref.Key)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestFindSimilar_TableFilterAndLimit(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	require.NoError(t, repos.Embeddings.ReplaceEmbeddings(ctx, core.Ref{Table: "articles", Key: "1"},
		embeddingsOf([]float32{1, 0})))
	require.NoError(t, repos.Embeddings.ReplaceEmbeddings(ctx, core.Ref{Table: "articles", Key: "2"},
		embeddingsOf([]float32{0.8, 0.2})))
	require.NoError(t, repos.Embeddings.ReplaceEmbeddings(ctx, core.Ref{Table: "pages", Key: "1"},
		embeddingsOf([]float32{1, 0})))

	t.Run("table filter", func(t *testing.T) {
		results, err := repos.Embeddings.FindSimilar(ctx, []float32{1, 0}, []string{"pages"}, 0, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "pages", results[0].Ref.Table)
	})

	t.Run("limit", func(t *testing.T) {
		results, err := repos.Embeddings.FindSimilar(ctx, []float32{1, 0}, nil, 0, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.InDelta(t, 1.0, r.Score, 1e-6)
		}
		// Equal scores are ordered by reference
		assert.Equal(t, "articles:1", results[0].Ref.String())
		assert.Equal(t, "pages:1", results[1].Ref.String())
	})
}

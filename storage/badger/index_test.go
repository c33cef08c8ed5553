package badger

import (
	"context"
	"testing"

	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchIndex(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()
	ref := core.Ref{Table: "articles", Key: "1"}

	doc := &core.SearchDocument{
		Table:  "articles",
		Key:    "1",
		Locale: "en",
		Text:   map[string]string{"en": "hello world", "fr": "bonjour le monde"},
	}
	require.NoError(t, repos.Index.IndexDocument(ctx, doc))
	assert.Equal(t, "articles:1", doc.ID)
	assert.False(t, doc.IndexedAt.IsZero())

	got, err := repos.Index.GetDocument(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "bonjour le monde", got.Text["fr"])

	docs, err := repos.Index.GetDocuments(ctx, ref, core.Ref{Table: "articles", Key: "missing"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, repos.Index.RemoveDocument(ctx, ref))
	_, err = repos.Index.GetDocument(ctx, ref)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Removing again is not an error
	assert.NoError(t, repos.Index.RemoveDocument(ctx, ref))
}

func TestIndexDocument_RequiresRef(t *testing.T) {
	repos := newTestRepositories(t)

	err := repos.Index.IndexDocument(context.Background(), &core.SearchDocument{Key: "1"})
	assert.ErrorIs(t, err, core.ErrEmptyTable)

	err = repos.Index.IndexDocument(context.Background(), &core.SearchDocument{Table: "articles"})
	assert.ErrorIs(t, err, core.ErrEmptyKey)
}

func TestForEachDocument(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	for _, ref := range []core.Ref{{Table: "articles", Key: "1"}, {Table: "articles", Key: "2"}, {Table: "pages", Key: "1"}} {
		require.NoError(t, repos.Index.IndexDocument(ctx, &core.SearchDocument{Table: ref.Table, Key: ref.Key}))
	}

	count := func(table string) int {
		n := 0
		err := repos.Index.ForEachDocument(ctx, table, func(*core.SearchDocument) error {
			n++
			return nil
		})
		require.NoError(t, err)
		return n
	}

	assert.Equal(t, 2, count("articles"))
	assert.Equal(t, 1, count("pages"))
	assert.Equal(t, 3, count(""))
}

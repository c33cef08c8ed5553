package search

import (
	"context"
	"log/slog"
	"testing"

	"github.com/poiesic/enricher/ai/mock"
	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var queryVector = []float32{1, 0, 0}

func newTestRepositories(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

// fixedEmbedder embeds every query as queryVector.
func fixedEmbedder() *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return queryVector, nil
	}
	return embedder
}

func indexDoc(t *testing.T, repos *badger.Repositories, table, key string, text map[string]string, vector []float32) {
	t.Helper()
	ctx := context.Background()
	ref := core.Ref{Table: table, Key: key}
	require.NoError(t, repos.Index.IndexDocument(ctx, &core.SearchDocument{
		Table:      table,
		Key:        key,
		Locale:     "en",
		Text:       text,
		HasVectors: vector != nil,
	}))
	if vector != nil {
		require.NoError(t, repos.Embeddings.ReplaceEmbeddings(ctx, ref, []*core.Embedding{
			{Table: table, Key: key, Content: text["en"], Vector: vector, Model: "mock"},
		}))
	}
}

func keys(results []*core.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Document.Key
	}
	return out
}

func TestNewSearcher(t *testing.T) {
	repos := newTestRepositories(t)
	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Embeddings, repos.Index, embedder)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with options", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Embeddings, repos.Index, embedder,
			WithLogger(slog.Default()), WithQueryCache(16), WithMinSimilarity(0.8))
		require.NoError(t, err)
		assert.Equal(t, float32(0.8), searcher.minSimilarity)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Embeddings, repos.Index, embedder, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewSearcher(repos.Embeddings, nil, embedder)
		assert.Equal(t, ErrIndexRequired, err)
	})
}

func TestSearch_EmptyQuery(t *testing.T) {
	repos := newTestRepositories(t)
	searcher, err := NewSearcher(repos.Embeddings, repos.Index, fixedEmbedder())
	require.NoError(t, err)

	_, err = searcher.Search(context.Background(), &Query{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearch_EmptyIndex(t *testing.T) {
	repos := newTestRepositories(t)
	searcher, err := NewSearcher(repos.Embeddings, repos.Index, fixedEmbedder())
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), &Query{Text: "anything"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_Scoring(t *testing.T) {
	repos := newTestRepositories(t)
	indexDoc(t, repos, "articles", "semantic", map[string]string{"en": "orbital mechanics"}, []float32{0.8, 0.6, 0})
	indexDoc(t, repos, "articles", "both", map[string]string{"en": "Gardening, in the spring."}, []float32{1, 0, 0})
	indexDoc(t, repos, "articles", "keyword", map[string]string{"en": "spring gardening tips"}, nil)
	indexDoc(t, repos, "articles", "far", map[string]string{"en": "unrelated"}, []float32{0, 1, 0})

	searcher, err := NewSearcher(repos.Embeddings, repos.Index, fixedEmbedder())
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), &Query{Text: "the gardening of spring"})
	require.NoError(t, err)
	require.Equal(t, []string{"both", "keyword", "semantic"}, keys(results))

	assert.InDelta(t, 1.3, results[0].Score, 1e-4)
	assert.InDelta(t, 1.0, results[1].Score, 1e-4)
	assert.InDelta(t, 0.8, results[2].Score, 1e-4)
}

func TestSearch_KeywordOnly(t *testing.T) {
	repos := newTestRepositories(t)
	indexDoc(t, repos, "articles", "1", map[string]string{"en": "Go channels explained"}, nil)
	indexDoc(t, repos, "articles", "2", map[string]string{"en": "Go generics"}, nil)

	searcher, err := NewSearcher(nil, repos.Index, nil)
	require.NoError(t, err)

	tests := []struct {
		query string
		want  []string
	}{
		{"go", []string{"1", "2"}},
		{"GO channels!", []string{"1"}},
		{"go threads", []string{}},
		{"the and of", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := searcher.Search(context.Background(), &Query{Text: tt.query})
			require.NoError(t, err)
			assert.Equal(t, tt.want, keys(results))
		})
	}
}

func TestSearch_Filters(t *testing.T) {
	repos := newTestRepositories(t)
	indexDoc(t, repos, "articles", "a1", map[string]string{"en": "solar power", "fr": "énergie solaire"}, []float32{1, 0, 0})
	indexDoc(t, repos, "pages", "p1", map[string]string{"en": "solar panels"}, []float32{1, 0, 0})

	searcher, err := NewSearcher(repos.Embeddings, repos.Index, fixedEmbedder())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("tables", func(t *testing.T) {
		results, err := searcher.Search(ctx, &Query{Text: "solar", Tables: []string{"pages"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"p1"}, keys(results))
	})

	t.Run("locale", func(t *testing.T) {
		results, err := searcher.Search(ctx, &Query{Text: "solaire", Locale: "fr"})
		require.NoError(t, err)
		require.Equal(t, []string{"a1"}, keys(results))
		assert.InDelta(t, 1.3, results[0].Score, 1e-4)
	})

	t.Run("documents without the locale are dropped", func(t *testing.T) {
		results, err := searcher.Search(ctx, &Query{Text: "panels", Locale: "fr"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a1"}, keys(results))
		assert.InDelta(t, 1.0, results[0].Score, 1e-4)
	})
}

func TestSearch_Limit(t *testing.T) {
	repos := newTestRepositories(t)
	for _, key := range []string{"c", "a", "b"} {
		indexDoc(t, repos, "articles", key, map[string]string{"en": "same words"}, nil)
	}

	searcher, err := NewSearcher(nil, repos.Index, nil)
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), &Query{Text: "words", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys(results))
}

func TestSearch_QueryCache(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	t.Run("memoized", func(t *testing.T) {
		embedder := fixedEmbedder()
		searcher, err := NewSearcher(repos.Embeddings, repos.Index, embedder)
		require.NoError(t, err)

		for range 3 {
			_, err := searcher.Search(ctx, &Query{Text: "repeat"})
			require.NoError(t, err)
		}
		assert.Equal(t, 1, embedder.CallCount())
	})

	t.Run("disabled", func(t *testing.T) {
		embedder := fixedEmbedder()
		searcher, err := NewSearcher(repos.Embeddings, repos.Index, embedder, WithQueryCache(0))
		require.NoError(t, err)

		for range 3 {
			_, err := searcher.Search(ctx, &Query{Text: "repeat"})
			require.NoError(t, err)
		}
		assert.Equal(t, 3, embedder.CallCount())
	})
}

func TestSearchWithMonitor(t *testing.T) {
	repos := newTestRepositories(t)
	indexDoc(t, repos, "articles", "1", map[string]string{"en": "test query"}, []float32{1, 0, 0})
	indexDoc(t, repos, "articles", "2", map[string]string{"en": "other"}, []float32{1, 0, 0})
	indexDoc(t, repos, "articles", "3", map[string]string{"en": "query test words"}, nil)

	searcher, err := NewSearcher(repos.Embeddings, repos.Index, fixedEmbedder())
	require.NoError(t, err)

	monitor := &testMonitor{}
	results, err := searcher.SearchWithMonitor(context.Background(), &Query{Text: "test query"}, monitor)
	require.NoError(t, err)

	assert.True(t, monitor.startCalled)
	assert.Equal(t, 2, monitor.semanticMatches)
	assert.Equal(t, 2, monitor.keywordMatches)
	assert.Equal(t, 3, monitor.retrieved)
	assert.Equal(t, []string{"1"}, monitor.both)
	assert.Equal(t, []string{"2"}, monitor.semantic)
	assert.Equal(t, []string{"3"}, monitor.keyword)
	assert.Equal(t, results, monitor.finishResults)
}

// testMonitor is a simple test implementation of SearchMonitor
type testMonitor struct {
	startCalled     bool
	semanticMatches int
	keywordMatches  int
	retrieved       int
	both            []string
	semantic        []string
	keyword         []string
	finishResults   []*core.SearchResult
}

func (m *testMonitor) Start(query *Query) { m.startCalled = true }

func (m *testMonitor) AfterSemanticSearch(matches []*core.SimilarityMatch) {
	m.semanticMatches = len(matches)
}

func (m *testMonitor) AfterKeywordSearch(refs []core.Ref) { m.keywordMatches = len(refs) }

func (m *testMonitor) AfterDocumentRetrieval(docs []*core.SearchDocument) { m.retrieved = len(docs) }

func (m *testMonitor) SemanticAndKeywordHit(doc *core.SearchDocument) {
	m.both = append(m.both, doc.Key)
}

func (m *testMonitor) SemanticHit(doc *core.SearchDocument) { m.semantic = append(m.semantic, doc.Key) }

func (m *testMonitor) KeywordHit(doc *core.SearchDocument) { m.keyword = append(m.keyword, doc.Key) }

func (m *testMonitor) Finish(results []*core.SearchResult) { m.finishResults = results }

package search

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/enricher/ai"
	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/storage"
)

const (
	// DefaultLimit is the number of results returned when a query sets none.
	DefaultLimit = 10

	// DefaultMinSimilarity is the lowest cosine similarity counted as a semantic hit.
	DefaultMinSimilarity float32 = 0.60

	defaultQueryCacheSize = 512

	keywordBoost float32 = 0.3
	keywordScore float32 = 1.0
)

// Query describes a search.
type Query struct {
	Text string `json:"query" binding:"required"`

	// Tables restricts results to these tables; empty searches all.
	Tables []string `json:"tables,omitempty"`

	// Locale restricts results to documents with text in this locale and
	// matches keywords against that text only.
	Locale string `json:"locale,omitempty"`

	Limit int `json:"limit,omitempty"`

	// MinSimilarity overrides the searcher's semantic threshold when positive.
	MinSimilarity float32 `json:"min_similarity,omitempty"`
}

// Searcher provides hybrid semantic and keyword search over indexed records.
type Searcher struct {
	embeddings    storage.EmbeddingRepository
	index         storage.SearchIndex
	embedder      ai.Embedder
	queryCache    *lru.Cache[string, []float32]
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithQueryCache sets how many query embeddings are memoized.
// Zero disables memoization.
func WithQueryCache(size int) Option {
	return func(s *Searcher) error {
		if size <= 0 {
			s.queryCache = nil
			return nil
		}
		cache, err := lru.New[string, []float32](size)
		if err != nil {
			return err
		}
		s.queryCache = cache
		return nil
	}
}

// WithMinSimilarity sets the default semantic threshold.
func WithMinSimilarity(threshold float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = threshold
		return nil
	}
}

// NewSearcher creates a new searcher. Without an embedder or embedding
// repository only keyword matching runs.
func NewSearcher(
	embeddings storage.EmbeddingRepository,
	index storage.SearchIndex,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}

	cache, err := lru.New[string, []float32](defaultQueryCacheSize)
	if err != nil {
		return nil, err
	}
	s := &Searcher{
		embeddings:    embeddings,
		index:         index,
		embedder:      embedder,
		queryCache:    cache,
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")
	return s, nil
}

// Search runs q and returns up to q.Limit results ranked by relevance.
func (s *Searcher) Search(ctx context.Context, q *Query) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, q, nil)
}

// SearchWithMonitor runs q with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, q *Query, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, ErrEmptyQuery
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	minSimilarity := s.minSimilarity
	if q.MinSimilarity > 0 {
		minSimilarity = q.MinSimilarity
	}

	monitor.Start(q)

	// 1. Semantic search
	semanticScores := make(map[core.Ref]float32)
	if s.embedder != nil && s.embeddings != nil {
		vector, err := s.embedQuery(ctx, text)
		if err != nil {
			s.logger.Error("error generating embedding for query", "query", text, "err", err)
			return nil, err
		}
		matches, err := s.embeddings.FindSimilar(ctx, vector, q.Tables, minSimilarity, limit)
		if err != nil {
			s.logger.Error("error querying for similar records", "err", err)
			return nil, err
		}
		for _, match := range matches {
			semanticScores[match.Ref] = match.Score
		}
		monitor.AfterSemanticSearch(matches)
	}

	// 2. Keyword search over the indexed text
	words := tokenizeAndFilter(text)
	keywordSet := make(map[core.Ref]bool)
	docs := make(map[core.Ref]*core.SearchDocument)
	visit := func(doc *core.SearchDocument) error {
		if containsAllWords(documentText(doc.Text, q.Locale), words) {
			keywordSet[doc.Ref()] = true
			docs[doc.Ref()] = doc
		}
		return nil
	}
	tables := q.Tables
	if len(tables) == 0 {
		tables = []string{""}
	}
	for _, table := range tables {
		if err := s.index.ForEachDocument(ctx, table, visit); err != nil {
			s.logger.Error("error scanning search index", "table", table, "err", err)
			return nil, err
		}
	}
	keywordRefs := make([]core.Ref, 0, len(keywordSet))
	for ref := range keywordSet {
		keywordRefs = append(keywordRefs, ref)
	}
	monitor.AfterKeywordSearch(keywordRefs)

	// 3. Fetch the documents of semantic hits not found by keyword
	var missing []core.Ref
	for ref := range semanticScores {
		if _, ok := docs[ref]; !ok {
			missing = append(missing, ref)
		}
	}
	if len(missing) > 0 {
		fetched, err := s.index.GetDocuments(ctx, missing...)
		if err != nil {
			s.logger.Error("error retrieving documents", "documentCount", len(missing), "err", err)
			return nil, err
		}
		for _, doc := range fetched {
			docs[doc.Ref()] = doc
		}
	}
	retrieved := make([]*core.SearchDocument, 0, len(docs))
	for _, doc := range docs {
		retrieved = append(retrieved, doc)
	}
	monitor.AfterDocumentRetrieval(retrieved)

	// 4. Score
	results := make([]*core.SearchResult, 0, len(docs))
	for ref, doc := range docs {
		if q.Locale != "" && doc.Text[q.Locale] == "" {
			continue
		}
		similarity, inSemantic := semanticScores[ref]
		inKeyword := keywordSet[ref]

		var score float32
		switch {
		case inSemantic && inKeyword:
			score = similarity + keywordBoost
			monitor.SemanticAndKeywordHit(doc)
		case inKeyword:
			score = keywordScore
			monitor.KeywordHit(doc)
		default:
			score = similarity
			monitor.SemanticHit(doc)
		}
		results = append(results, &core.SearchResult{Document: doc, Score: score})
	}

	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Document.ID, b.Document.ID)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	monitor.Finish(results)

	return results, nil
}

func (s *Searcher) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.queryCache != nil {
		if vector, ok := s.queryCache.Get(text); ok {
			return vector, nil
		}
	}
	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	if s.queryCache != nil {
		s.queryCache.Add(text, vector)
	}
	return vector, nil
}

package indexing

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/events"
	"github.com/poiesic/enricher/queue"
	"github.com/poiesic/enricher/storage"
)

// Indexer builds IndexInSearchJobs.
type Indexer struct {
	Records    storage.RecordRepository
	Embeddings storage.EmbeddingRepository
	Index      storage.SearchIndex
	Bus        *events.Bus
	Logger     *slog.Logger

	// DefaultLocale is the source locale of records without one.
	DefaultLocale string
}

// IndexInSearch returns the job indexing the record at ref.
func (ix *Indexer) IndexInSearch(ref core.Ref, def *core.ModelDef) *IndexInSearchJob {
	logger := ix.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexInSearchJob{
		indexer: ix,
		Ref:     ref,
		Def:     def,
		logger:  logger.With("job", "index_in_search", "model", def.Name, "model_id", ref.Key),
	}
}

// IndexInSearchJob writes a record's search document.
type IndexInSearchJob struct {
	indexer *Indexer
	Ref     core.Ref
	Def     *core.ModelDef
	logger  *slog.Logger
}

var _ queue.Job = (*IndexInSearchJob)(nil)

func (j *IndexInSearchJob) Name() string { return "index_in_search" }

func (j *IndexInSearchJob) Queue() string { return queue.Indexing }

// Handle upserts the record's document, or removes it when the record is gone.
func (j *IndexInSearchJob) Handle(ctx context.Context) error {
	ix := j.indexer
	record, err := ix.Records.GetRecord(ctx, j.Ref)
	if errors.Is(err, storage.ErrNotFound) {
		j.logger.Debug("record gone, removing from index")
		return ix.Index.RemoveDocument(ctx, j.Ref)
	}
	if err != nil {
		return err
	}

	embeddings, err := ix.Embeddings.GetEmbeddings(ctx, j.Ref)
	if err != nil {
		return err
	}

	doc := BuildDocument(record, ix.DefaultLocale)
	doc.HasVectors = len(embeddings) > 0
	doc.IndexedAt = time.Now().UTC()
	if err := ix.Index.IndexDocument(ctx, doc); err != nil {
		return err
	}
	j.logger.Debug("record indexed", "locales", len(doc.Text), "vectors", doc.HasVectors)

	if ix.Bus == nil {
		return nil
	}
	return ix.Bus.Publish(ctx, &events.ModelIndexed{Ref: j.Ref, Document: doc})
}

// BuildDocument collects a record's searchable text per locale: the source
// fields under the source locale and every translation under its own.
// Fields are joined in name order.
func BuildDocument(record *core.Record, defaultLocale string) *core.SearchDocument {
	source := record.Locale
	if source == "" {
		source = defaultLocale
	}
	doc := &core.SearchDocument{
		Table:  record.Table,
		Key:    record.Key,
		Locale: source,
		Text:   make(map[string]string, len(record.Translations)+1),
	}
	doc.Text[source] = joinFields(record.Fields)
	for locale, fields := range record.Translations {
		if locale == source {
			continue
		}
		if text := joinFields(fields); text != "" {
			doc.Text[locale] = text
		}
	}
	return doc
}

func joinFields(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		if v := strings.TrimSpace(fields[name]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}

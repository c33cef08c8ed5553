// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package enricher wires storage, AI providers, the job queues and the
// indexing listeners into a single handle.
package enricher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/poiesic/enricher/ai"
	"github.com/poiesic/enricher/ai/providers"
	"github.com/poiesic/enricher/config"
	"github.com/poiesic/enricher/conversation"
	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/embedding"
	"github.com/poiesic/enricher/events"
	"github.com/poiesic/enricher/indexing"
	"github.com/poiesic/enricher/queue"
	"github.com/poiesic/enricher/reembed"
	"github.com/poiesic/enricher/search"
	"github.com/poiesic/enricher/storage"
	"github.com/poiesic/enricher/storage/badger"
	"github.com/poiesic/enricher/storage/redis"
	"github.com/poiesic/enricher/translation"
)

// Enricher is the application handle.
type Enricher struct {
	cfg          *config.Config
	repos        *badger.Repositories
	states       storage.IndexingStateStore
	ownsStates   bool
	provider     ai.AIProvider
	registry     *core.Registry
	bus          *events.Bus
	dispatcher   *queue.Dispatcher
	coordinator  *indexing.Coordinator
	embedding    *embedding.Service
	translation  *translation.Service
	translations *translation.Jobs
	searcher     *search.Searcher
	conversation *conversation.Service
	logger       *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Option configures Open.
type Option func(*options)

type options struct {
	provider ai.AIProvider
	states   storage.IndexingStateStore
	logger   *slog.Logger
}

// WithProvider uses provider instead of building one from the configuration.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) { o.provider = provider }
}

// WithStateStore uses states for pending indexing state instead of the
// configured driver. The caller keeps ownership.
func WithStateStore(states storage.IndexingStateStore) Option {
	return func(o *options) { o.states = states }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// SaveOptions controls what happens after a record is saved.
type SaveOptions struct {
	// Sync runs pre-processing and indexing inline.
	Sync bool
	// Locales restricts translation targets; empty means every available locale.
	Locales []string
	// Force retranslates current translations.
	Force bool
}

// Open builds an Enricher from cfg.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Enricher, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	e := &Enricher{cfg: cfg, registry: registry, logger: o.logger.With("component", "enricher")}
	if err := e.open(ctx, o); err != nil {
		if closeErr := e.Close(); closeErr != nil {
			e.logger.Error("error releasing partially opened enricher", "err", closeErr)
		}
		return nil, err
	}
	return e, nil
}

func (e *Enricher) open(ctx context.Context, o options) error {
	cfg := e.cfg
	var err error

	if e.repos, err = badger.Open(cfg.Storage.Path, cfg.Storage.InMemory); err != nil {
		return err
	}

	switch {
	case o.states != nil:
		e.states = o.states
	case cfg.State.Driver == config.StateRedis:
		redisOpts, err := redis.OptionsFromURL(cfg.State.RedisURL, cfg.State.Prefix)
		if err != nil {
			return err
		}
		if e.states, err = redis.NewStateStore(ctx, redisOpts); err != nil {
			return err
		}
		e.ownsStates = true
	default:
		e.states = e.repos.States
	}

	aiCfg := cfg.AIConfig()
	e.provider = o.provider
	if e.provider == nil {
		e.provider, err = providers.New(ctx, aiCfg)
		if err != nil {
			if cfg.Features.Embeddings || cfg.Features.Translation {
				return fmt.Errorf("ai provider: %w", err)
			}
			e.logger.Warn("AI provider unavailable, AI features stay off", "err", err)
		}
	}
	var (
		embedder   ai.Embedder
		translator ai.Translator
		chat       ai.ChatModel
	)
	if e.provider != nil {
		embedder, translator, chat = e.provider.Embedder(), e.provider.Translator(), e.provider.Chat()
	}
	if !cfg.Features.Embeddings {
		embedder = nil
	}
	if !cfg.Features.Translation {
		translator = nil
	}

	e.bus = events.NewBus(o.logger)

	queueOpts := []queue.Option{queue.WithLogger(o.logger)}
	for name, policy := range cfg.QueuePolicies() {
		queueOpts = append(queueOpts, queue.WithQueue(name, policy))
	}
	if e.dispatcher, err = queue.New(queueOpts...); err != nil {
		return err
	}

	e.embedding = embedding.NewService(embedder,
		embedding.WithChunkSize(cfg.Embedding.ChunkSize),
		embedding.WithModel(ai.EmbeddingModelFor(aiCfg.EmbeddingProvider, aiCfg.Settings(aiCfg.EmbeddingProvider))),
		embedding.WithLogger(o.logger))
	e.translation = translation.NewService(translator,
		translation.WithCache(cfg.Translation.CacheSize, cfg.Translation.CacheTTL),
		translation.WithLogger(o.logger))
	e.translations = &translation.Jobs{
		Records:     e.repos.Records,
		Service:     e.translation,
		Bus:         e.bus,
		Locales:     cfg.Locales,
		Concurrency: cfg.Translation.Concurrency,
		Logger:      o.logger,
	}

	e.coordinator = &indexing.Coordinator{
		Features:   cfg.Features,
		Registry:   e.registry,
		States:     e.states,
		Dispatcher: e.dispatcher,
		Embedding: &embedding.Jobs{
			Records:    e.repos.Records,
			Embeddings: e.repos.Embeddings,
			Service:    e.embedding,
			Bus:        e.bus,
			Logger:     o.logger,
		},
		Translation: e.translations,
		Indexer: &indexing.Indexer{
			Records:       e.repos.Records,
			Embeddings:    e.repos.Embeddings,
			Index:         e.repos.Index,
			Bus:           e.bus,
			Logger:        o.logger,
			DefaultLocale: cfg.Locales.Default,
		},
		TTL:    cfg.State.TTL,
		Logger: o.logger,
	}
	// AI listeners first so the fallback indexer sees whether they took over.
	e.coordinator.Register(e.bus)

	var searchEmbedder ai.Embedder
	if e.embedding.Enabled() {
		searchEmbedder = embedder
	}
	if e.searcher, err = search.NewSearcher(e.repos.Embeddings, e.repos.Index, searchEmbedder,
		search.WithLogger(o.logger),
		search.WithQueryCache(cfg.Search.QueryCacheSize),
		search.WithMinSimilarity(cfg.Search.MinSimilarity),
	); err != nil {
		return err
	}

	e.conversation = conversation.NewService(e.repos.Conversations, chat, conversation.WithLogger(o.logger))

	e.logger.Info("enricher ready",
		"models", len(e.registry.All()),
		"embeddings", e.embedding.Enabled(),
		"translation", e.translation.Enabled(),
		"state", cfg.State.Driver)
	return nil
}

// Close cancels pending retries, waits for running jobs to return, then
// releases every resource. Call Wait first to let queued work finish.
// Closing twice returns the first result.
func (e *Enricher) Close() error {
	e.closeOnce.Do(func() { e.closeErr = e.close() })
	return e.closeErr
}

func (e *Enricher) close() error {
	var errs []error
	if e.dispatcher != nil {
		errs = append(errs, e.dispatcher.Close())
	}
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if e.ownsStates {
		errs = append(errs, e.states.Close())
	}
	if e.repos != nil {
		if err := e.repos.Close(); err != nil {
			e.logger.Error("error closing storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Wait blocks until every queued job finished.
func (e *Enricher) Wait() {
	e.dispatcher.Wait()
}

// Registry returns the registered models.
func (e *Enricher) Registry() *core.Registry {
	return e.registry
}

// Bus returns the event bus, e.g. to listen for ModelIndexed.
func (e *Enricher) Bus() *events.Bus {
	return e.bus
}

// QueueStats returns the counters of every queue.
func (e *Enricher) QueueStats() map[string]queue.Stats {
	stats := make(map[string]queue.Stats)
	for _, name := range e.dispatcher.Queues() {
		stats[name] = e.dispatcher.Stats(name)
	}
	return stats
}

// SaveRecord stores record and requests indexing and translation as its
// model requires.
func (e *Enricher) SaveRecord(ctx context.Context, record *core.Record, opts SaveOptions) (*core.Record, error) {
	def, err := e.registry.ByTable(record.Table)
	if err != nil {
		return nil, err
	}
	saved, err := e.repos.Records.SaveRecord(ctx, record)
	if err != nil {
		return nil, err
	}

	if def.Searchable {
		if err := e.bus.Publish(ctx, &events.ModelRequiresIndexing{Record: saved, Def: def, Sync: opts.Sync}); err != nil {
			return saved, err
		}
	}
	if def.Translatable() {
		event := &events.TranslatedModelSaved{Record: saved, Def: def, Locales: opts.Locales, Force: opts.Force}
		if err := e.bus.Publish(ctx, event); err != nil {
			return saved, err
		}
	}
	return saved, nil
}

// GetRecord returns a stored record.
func (e *Enricher) GetRecord(ctx context.Context, ref core.Ref) (*core.Record, error) {
	return e.repos.Records.GetRecord(ctx, ref)
}

// ForEachRecord calls fn for every stored record of table.
func (e *Enricher) ForEachRecord(ctx context.Context, table string, fn func(*core.Record) error) error {
	return e.repos.Records.ForEachRecord(ctx, table, fn)
}

// DeleteRecord removes a record with its embeddings, search document and
// pending state.
func (e *Enricher) DeleteRecord(ctx context.Context, ref core.Ref) error {
	if err := e.repos.Records.DeleteRecord(ctx, ref); err != nil {
		return err
	}
	return errors.Join(
		e.repos.Embeddings.DeleteEmbeddings(ctx, ref),
		e.repos.Index.RemoveDocument(ctx, ref),
		e.states.Delete(ctx, ref),
	)
}

// RequestIndexing fires ModelRequiresIndexing for a stored record.
func (e *Enricher) RequestIndexing(ctx context.Context, ref core.Ref, sync bool) error {
	def, err := e.registry.ByTable(ref.Table)
	if err != nil {
		return err
	}
	if !def.Searchable {
		return fmt.Errorf("%w: %s is not searchable", core.ErrUnknownModel, def.Name)
	}
	record, err := e.repos.Records.GetRecord(ctx, ref)
	if err != nil {
		return err
	}
	return e.bus.Publish(ctx, &events.ModelRequiresIndexing{Record: record, Def: def, Sync: sync})
}

// RequestTranslation queues, or with sync runs, the translation of a record.
func (e *Enricher) RequestTranslation(ctx context.Context, ref core.Ref, locales []string, force, sync bool) error {
	def, err := e.registry.ByTable(ref.Table)
	if err != nil {
		return err
	}
	if !def.Translatable() {
		return fmt.Errorf("%w: %s has no translatable fields", core.ErrUnknownModel, def.Name)
	}
	if !e.translation.Enabled() {
		return translation.ErrNoTranslator
	}
	job := e.translations.TranslateModel(ref, def, locales, force, sync)
	if sync {
		return e.dispatcher.DispatchSync(ctx, job)
	}
	_, err = e.dispatcher.Dispatch(ctx, job)
	return err
}

// FindMissingTranslations lists the records of def lacking a translation
// into one of locales, or any available locale when locales is empty.
func (e *Enricher) FindMissingTranslations(ctx context.Context, def *core.ModelDef, locales []string) ([]translation.Missing, error) {
	return translation.FindMissing(ctx, e.repos.Records, def, e.cfg.Locales, locales)
}

// IndexingStatus returns the pending pre-processing of a record, or nil.
func (e *Enricher) IndexingStatus(ctx context.Context, ref core.Ref) (*core.IndexingState, error) {
	return e.coordinator.Status(ctx, ref)
}

// Embed returns the embedding of text. It fails when embeddings are off.
func (e *Enricher) Embed(ctx context.Context, text string) ([]float32, error) {
	if !e.embedding.Enabled() {
		return nil, reembed.ErrEmbedderDisabled
	}
	return e.embedding.EmbedText(ctx, text)
}

// Translate translates texts between locales through the translation memo.
func (e *Enricher) Translate(ctx context.Context, texts []string, from, to string) ([]string, error) {
	return e.translation.TranslateBatch(ctx, texts, from, to)
}

// Searcher returns the hybrid searcher.
func (e *Enricher) Searcher() *search.Searcher {
	return e.searcher
}

// Conversations returns the conversation service.
func (e *Enricher) Conversations() *conversation.Service {
	return e.conversation
}

// Locales returns the configured locales.
func (e *Enricher) Locales() translation.Locales {
	return e.cfg.Locales
}

// NewReembedder returns a reembedder that re-indexes every batch it stores.
func (e *Enricher) NewReembedder(progress io.Writer) *reembed.Reembedder {
	cfg := e.cfg.Reembed
	r := reembed.NewReembedder(e.repos.Records, e.repos.Embeddings, e.embedding, &cfg, progress)
	r.AfterBatch = func(ctx context.Context, def *core.ModelDef, records []*core.Record) error {
		for _, record := range records {
			if _, err := e.dispatcher.Dispatch(ctx, e.coordinator.Indexer.IndexInSearch(record.Ref(), def)); err != nil {
				return err
			}
		}
		return nil
	}
	return r
}

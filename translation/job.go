package translation

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/events"
	"github.com/poiesic/enricher/queue"
	"github.com/poiesic/enricher/storage"
	"golang.org/x/sync/errgroup"
)

// defaultConcurrency bounds the locales translated at once per record.
const defaultConcurrency = 4

// Jobs builds translation jobs sharing the same dependencies.
type Jobs struct {
	Records     storage.RecordRepository
	Service     *Service
	Bus         *events.Bus
	Locales     Locales
	Concurrency int
	Logger      *slog.Logger
}

// TranslateModel returns the job translating the record at ref into
// locales, or into every available locale when locales is empty.
func (j *Jobs) TranslateModel(ref core.Ref, def *core.ModelDef, locales []string, force, sync bool) *TranslateModelJob {
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TranslateModelJob{
		jobs:    j,
		Ref:     ref,
		Def:     def,
		Locales: locales,
		Force:   force,
		Sync:    sync,
		logger:  logger.With("job", "translate_model", "model", def.Name, "model_id", ref.Key),
	}
}

// TranslateModelJob stores translations of a record's translatable fields
// and reports the translation step as completed.
type TranslateModelJob struct {
	jobs    *Jobs
	Ref     core.Ref
	Def     *core.ModelDef
	Locales []string
	Force   bool
	Sync    bool
	logger  *slog.Logger
}

var (
	_ queue.Job            = (*TranslateModelJob)(nil)
	_ queue.FailureHandler = (*TranslateModelJob)(nil)
)

func (j *TranslateModelJob) Name() string { return "translate_model" }

func (j *TranslateModelJob) Queue() string { return queue.Translations }

// Handle translates every target locale whose translation is missing or
// stale, or all of them when forced. Locales that succeeded are stored even
// when others fail, so a retry only redoes the failed ones.
func (j *TranslateModelJob) Handle(ctx context.Context) error {
	record, err := j.jobs.Records.GetRecord(ctx, j.Ref)
	if errors.Is(err, storage.ErrNotFound) {
		j.logger.Warn("record disappeared before translation")
		return j.complete(ctx, false)
	}
	if err != nil {
		return err
	}

	source := j.jobs.Locales.SourceOf(record.Locale)
	if source == "" {
		return ErrNoSourceLocale
	}
	fields := j.Def.TranslatableFields
	hash := record.SourceHash(fields)

	var names, texts []string
	for _, f := range fields {
		if v := record.Fields[f]; v != "" {
			names = append(names, f)
			texts = append(texts, v)
		}
	}
	if len(texts) == 0 {
		return j.complete(ctx, false)
	}

	var targets []string
	for _, locale := range j.jobs.Locales.Targets(source, j.Locales) {
		if !j.Force && record.TranslationCurrent(locale, fields) {
			continue
		}
		targets = append(targets, locale)
	}

	var (
		mu      sync.Mutex
		results = make(map[string]map[string]string, len(targets))
	)
	concurrency := j.jobs.Concurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, locale := range targets {
		g.Go(func() error {
			translated, err := j.jobs.Service.TranslateBatch(gctx, texts, source, locale)
			if err != nil {
				j.logger.Error("translation failed", "locale", locale, "error", err)
				return err
			}
			values := make(map[string]string, len(names))
			for i, name := range names {
				values[name] = translated[i]
			}
			mu.Lock()
			results[locale] = values
			mu.Unlock()
			return nil
		})
	}
	translateErr := g.Wait()

	if len(results) > 0 {
		_, err := j.jobs.Records.UpdateRecord(ctx, j.Ref, func(r *core.Record) error {
			for locale, values := range results {
				r.SetTranslation(locale, values, hash)
			}
			return nil
		})
		if err != nil {
			return errors.Join(translateErr, err)
		}
		j.logger.Debug("translations stored", "locales", len(results))
	}
	if translateErr != nil {
		return translateErr
	}

	return j.complete(ctx, false)
}

// Failed reports the step as failed so indexing is not held back until the
// pending state expires.
func (j *TranslateModelJob) Failed(ctx context.Context, err error) {
	j.logger.Error("TranslateModelJob failed", "error", err)
	if pubErr := j.complete(ctx, true); pubErr != nil {
		j.logger.Error("reporting failed translation step", "error", pubErr)
	}
}

func (j *TranslateModelJob) complete(ctx context.Context, failed bool) error {
	if j.jobs.Bus == nil {
		return nil
	}
	return j.jobs.Bus.Publish(ctx, &events.ModelPreProcessingCompleted{
		Ref:    j.Ref,
		Step:   core.StepTranslation,
		Failed: failed,
		Sync:   j.Sync,
	})
}

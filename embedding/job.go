package embedding

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/events"
	"github.com/poiesic/enricher/queue"
	"github.com/poiesic/enricher/storage"
)

// Jobs builds embedding jobs sharing the same dependencies.
type Jobs struct {
	Records    storage.RecordRepository
	Embeddings storage.EmbeddingRepository
	Service    *Service
	Bus        *events.Bus
	Logger     *slog.Logger
}

// GenerateEmbeddings returns the job embedding the record at ref.
func (j *Jobs) GenerateEmbeddings(ref core.Ref, def *core.ModelDef, sync bool) *GenerateEmbeddingsJob {
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateEmbeddingsJob{
		jobs:   j,
		Ref:    ref,
		Def:    def,
		Sync:   sync,
		logger: logger.With("job", "generate_embeddings", "model", def.Name, "model_id", ref.Key),
	}
}

// GenerateEmbeddingsJob replaces a record's embeddings and reports the
// embeddings step as completed.
type GenerateEmbeddingsJob struct {
	jobs   *Jobs
	Ref    core.Ref
	Def    *core.ModelDef
	Sync   bool
	logger *slog.Logger
}

var (
	_ queue.Job            = (*GenerateEmbeddingsJob)(nil)
	_ queue.FailureHandler = (*GenerateEmbeddingsJob)(nil)
)

func (j *GenerateEmbeddingsJob) Name() string { return "generate_embeddings" }

func (j *GenerateEmbeddingsJob) Queue() string { return queue.Embeddings }

func (j *GenerateEmbeddingsJob) Handle(ctx context.Context) error {
	record, err := j.jobs.Records.GetRecord(ctx, j.Ref)
	if errors.Is(err, storage.ErrNotFound) {
		j.logger.Warn("record disappeared before embedding")
		return j.complete(ctx, false)
	}
	if err != nil {
		return err
	}

	data := record.DataToEmbed(j.Def)
	if data == "" {
		if err := j.jobs.Embeddings.DeleteEmbeddings(ctx, j.Ref); err != nil {
			return err
		}
		return j.complete(ctx, false)
	}

	chunks, err := j.jobs.Service.EmbedDocument(ctx, data)
	if err != nil {
		j.logger.Error("embedding generation failed", "error", err)
		return err
	}

	embeddings := j.jobs.Service.ToEmbeddings(chunks)
	if err := j.jobs.Embeddings.ReplaceEmbeddings(ctx, j.Ref, embeddings); err != nil {
		j.logger.Error("storing embeddings failed", "error", err)
		return err
	}
	j.logger.Debug("embeddings stored", "chunks", len(embeddings))

	return j.complete(ctx, false)
}

// Failed reports the step as failed so indexing is not held back until the
// pending state expires.
func (j *GenerateEmbeddingsJob) Failed(ctx context.Context, err error) {
	j.logger.Error("GenerateEmbeddingsJob failed", "error", err)
	if pubErr := j.complete(ctx, true); pubErr != nil {
		j.logger.Error("reporting failed embeddings step", "error", pubErr)
	}
}

func (j *GenerateEmbeddingsJob) complete(ctx context.Context, failed bool) error {
	if j.jobs.Bus == nil {
		return nil
	}
	return j.jobs.Bus.Publish(ctx, &events.ModelPreProcessingCompleted{
		Ref:    j.Ref,
		Step:   core.StepEmbeddings,
		Failed: failed,
		Sync:   j.Sync,
	})
}

package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/embedding"
	"github.com/poiesic/enricher/storage"
)

// BatchProcessor regenerates the embeddings of batches of records.
type BatchProcessor struct {
	repo           storage.EmbeddingRepository
	service        *embedding.Service
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts per record
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.EmbeddingRepository, service *embedding.Service, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		service:        service,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds each record's embeddable text and replaces its stored
// embeddings. Records without embeddable text lose their embeddings.
func (bp *BatchProcessor) Process(ctx context.Context, def *core.ModelDef, records []*core.Record) error {
	for _, record := range records {
		data := record.DataToEmbed(def)

		var chunks []embedding.Chunk
		if data != "" {
			err := RetryWithBackoff(ctx, func() error {
				var err error
				chunks, err = bp.service.EmbedDocument(ctx, data)
				return err
			}, bp.maxRetries, bp.retryBaseDelay)
			if err != nil {
				return fmt.Errorf("failed to embed %s after %d attempts: %w", record.Ref(), bp.maxRetries, err)
			}
		}

		if err := bp.repo.ReplaceEmbeddings(ctx, record.Ref(), bp.service.ToEmbeddings(chunks)); err != nil {
			return fmt.Errorf("failed to store embeddings of %s: %w", record.Ref(), err)
		}
	}
	return nil
}

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


package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/embedding"
	"github.com/poiesic/enricher/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of records to process in each batch
	BatchSize int `mapstructure:"batch_size" validate:"gte=0"`

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int `mapstructure:"report_interval" validate:"gte=0"`

	// MaxRetries is the maximum number of attempts per record
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0"`

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder regenerates the embeddings of every record of a model.
type Reembedder struct {
	records   storage.RecordRepository
	service   *embedding.Service
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *RecordIterator

	// AfterBatch, when set, runs after each batch is stored, e.g. to
	// re-index the records.
	AfterBatch func(ctx context.Context, def *core.ModelDef, records []*core.Record) error
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(
	records storage.RecordRepository,
	embeddings storage.EmbeddingRepository,
	service *embedding.Service,
	config *Config,
	progress io.Writer,
) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 1
	}
	if config.ReportInterval <= 0 {
		config.ReportInterval = DefaultBatchSize
	}

	return &Reembedder{
		records:   records,
		service:   service,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(embeddings, service, config.MaxRetries, config.RetryDelay),
		iterator:  NewRecordIterator(records, config.BatchSize),
	}
}

// Run reembeds every record of def and returns how many were processed.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context, def *core.ModelDef) (int, error) {
	if !def.SupportsEmbeddings() {
		return 0, fmt.Errorf("%w: %s", ErrNoEmbeddings, def.Name)
	}
	if !r.service.Enabled() {
		return 0, ErrEmbedderDisabled
	}

	totalRecords, err := r.records.CountRecords(ctx, def.Table)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	if totalRecords == 0 {
		fmt.Fprintf(r.progress, "No %s records found (0 records)\n", def.Name)
		return 0, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d %s records (batch size: %d)\n",
		totalRecords, def.Name, r.iterator.batchSize)
	slog.Info("reembedding", "model", def.Name, "records", totalRecords, "embedding_model", r.service.Model())

	tracker := NewProgressTracker(r.progress, def.Name, totalRecords, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, def.Table, func(records []*core.Record) error {
		if err := r.processor.Process(ctx, def, records); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		if r.AfterBatch != nil {
			if err := r.AfterBatch(ctx, def, records); err != nil {
				return err
			}
		}

		processed += len(records)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return processed, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d records in %v (%.1f records/sec)\n",
		processed, elapsed.Round(time.Second), float64(processed)/elapsed.Seconds())

	return processed, nil
}

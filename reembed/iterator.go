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

	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/storage"
)

const (
	// DefaultBatchSize is the default number of records to fetch in each batch
	DefaultBatchSize = 100
)

// RecordIterator iterates over the records of a table in batches.
type RecordIterator struct {
	repo      storage.RecordRepository
	batchSize int
}

// NewRecordIterator creates a new record iterator.
// batchSize: number of records to hand out in each batch (must be > 0)
func NewRecordIterator(repo storage.RecordRepository, batchSize int) *RecordIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &RecordIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of records in table.
// Iteration stops on first error from fn or when all records are processed.
// Context cancellation is checked between batches.
func (it *RecordIterator) ForEach(ctx context.Context, table string, fn func([]*core.Record) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Collect first so fn never writes while the read transaction is open.
	var records []*core.Record
	err := it.repo.ForEachRecord(ctx, table, func(r *core.Record) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		return err
	}

	for i := 0; i < len(records); i += it.batchSize {
		end := min(i+it.batchSize, len(records))
		if err := fn(records[i:end]); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}

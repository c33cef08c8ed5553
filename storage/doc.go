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


// Package storage provides the storage abstraction layer for the enricher.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic, so different backends (BadgerDB, Redis, in-memory) can be
// used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the interfaces declared here:
//
//	records, err := badger.NewRecordRepository(backend)  // returns storage.RecordRepository
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Architecture
//
//   - RecordRepository: model records with their source fields and translations
//   - EmbeddingRepository: chunk embeddings and vector similarity search
//   - SearchIndex: documents pushed to search once pre-processing is done
//   - ConversationRepository: chat conversations and messages
//   - IndexingStateStore: TTL cache of pending pre-processing per record
//
// # Backends
//
//   - storage/badger: every repository, embedded BadgerDB via badgerhold
//   - storage/redis: IndexingStateStore shared between processes
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage

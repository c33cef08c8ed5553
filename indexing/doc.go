// Package indexing coordinates the asynchronous pre-processing a record
// needs before it is pushed into the search index.
//
// When a searchable record is saved, ModelRequiresIndexing is published.
// The embedding listener registers the embeddings step, stores the pending
// state under model_indexing:{table}:{key} for ten minutes and queues the
// embedding job. The translation listener, reacting to TranslatedModelSaved,
// amends a pending state with the translation step before queueing its own
// job. Jobs report ModelPreProcessingCompleted; the finalize listener marks
// the step done and, once nothing is pending, deletes the state and queues
// IndexInSearchJob. The fallback indexer, registered last, indexes records
// nobody took over, and records whose pre-processing ran inline.
//
// Every state change goes through IndexingStateStore.Update, so listeners
// racing on the same record never lose each other's steps.
package indexing

// Package reembed regenerates the embeddings of every record of a model,
// typically after the embedding model or chunking changed.
//
// Records are processed in batches with progress tracking and exponential
// backoff on failed embedding calls.
package reembed

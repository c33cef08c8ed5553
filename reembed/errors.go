package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrNoEmbeddings is returned when the model does not take part in vector search.
	ErrNoEmbeddings = errors.New("model has no embeddings")

	// ErrEmbedderDisabled is returned when no embedding provider is configured.
	ErrEmbedderDisabled = errors.New("embedding provider disabled")
)

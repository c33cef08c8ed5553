package ai

import "errors"

var (
	// ErrUnsupportedProvider indicates an unknown provider name, or a provider
	// that does not offer the requested capability.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrMissingAPIKey indicates a hosted provider was selected without credentials.
	ErrMissingAPIKey = errors.New("missing api key")

	// ErrMalformedResponse indicates a provider reply could not be parsed.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrCountMismatch indicates a batch reply did not match the request size.
	ErrCountMismatch = errors.New("result count does not match input count")
)

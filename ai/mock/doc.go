// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Translator,
// ai.ChatModel and ai.AIProvider for use in unit tests. The mocks allow tests
// to run without external AI service dependencies and are safe for use from
// concurrent jobs.
//
// # Usage in Tests
//
//	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), mock.NewMockTranslator(), nil)
//	provider.GetMockTranslator().TranslateBatchFunc = func(ctx context.Context, texts []string, from, to string) ([]string, error) {
//	    return nil, errors.New("quota exceeded")
//	}
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockTranslator: Prefixes each text with the target locale, "[it] Hello"
//   - MockChat: Echoes the last message
package mock

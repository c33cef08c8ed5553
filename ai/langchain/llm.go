package langchain

import (
	"fmt"

	"github.com/poiesic/enricher/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/mistral"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// newModel builds a langchaingo chat model for provider.
func newModel(config *ai.Config, provider string) (llms.Model, error) {
	settings := config.Settings(provider)
	switch provider {
	case ai.ProviderOpenAI:
		token := settings.APIKey
		if token == "" {
			token = "none"
		}
		return openai.New(
			openai.WithBaseURL(settings.URL),
			openai.WithToken(token),
			openai.WithModel(settings.Model),
		)
	case ai.ProviderOllama:
		return ollama.New(
			ollama.WithServerURL(settings.URL),
			ollama.WithModel(settings.Model),
		)
	case ai.ProviderMistral:
		return mistral.New(
			mistral.WithAPIKey(settings.APIKey),
			mistral.WithModel(settings.Model),
		)
	}
	return nil, fmt.Errorf("%w: %q has no langchaingo chat model", ai.ErrUnsupportedProvider, provider)
}

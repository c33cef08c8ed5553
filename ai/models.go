package ai

import "slices"

// capabilities of each provider.
var (
	embeddingProviders   = []string{ProviderOpenAI, ProviderOllama, ProviderVoyageAI, ProviderMistral, ProviderSentenceTransformers, ProviderGemini}
	translationProviders = []string{ProviderOpenAI, ProviderOllama, ProviderMistral, ProviderDeepL, ProviderAnthropic, ProviderGemini}
	chatProviders        = []string{ProviderOpenAI, ProviderOllama, ProviderMistral, ProviderAnthropic, ProviderGemini}
)

// IsKnownProvider reports whether name is a recognized provider.
func IsKnownProvider(name string) bool {
	name = CanonicalProvider(name)
	return CanEmbed(name) || CanTranslate(name) || CanChat(name)
}

// CanEmbed reports whether the provider can produce embeddings.
func CanEmbed(name string) bool {
	return slices.Contains(embeddingProviders, CanonicalProvider(name))
}

// CanTranslate reports whether the provider can translate text.
func CanTranslate(name string) bool {
	return slices.Contains(translationProviders, CanonicalProvider(name))
}

// CanChat reports whether the provider can hold a conversation.
func CanChat(name string) bool {
	return slices.Contains(chatProviders, CanonicalProvider(name))
}

type embeddingModels struct {
	supported []string
	fallback  string
	// anyConfigured accepts any explicit EmbeddingModel.
	anyConfigured bool
}

var knownEmbeddingModels = map[string]embeddingModels{
	ProviderOpenAI: {
		supported: []string{"text-embedding-3-large", "text-embedding-ada-002", "text-embedding-3-small"},
		fallback:  "text-embedding-3-small",
	},
	ProviderOllama: {
		supported: []string{"nomic-embed-large", "nomic-embed-text"},
		fallback:  "nomic-embed-text",
	},
	ProviderVoyageAI: {
		supported: []string{"voyage-3", "voyage-3-large", "voyage-code-2", "voyage-code-3", "voyage-finance-2", "voyage-law-2", "voyage-3-lite"},
		fallback:  "voyage-3-lite",
	},
	ProviderMistral: {
		fallback: "mistral-embed",
	},
	ProviderGemini: {
		fallback:      "text-embedding-004",
		anyConfigured: true,
	},
}

// EmbeddingModelFor picks the embedding model for a provider. The configured
// EmbeddingModel wins, then Model; a name the provider does not offer falls
// back to the provider's default embedding model. Gemini takes any explicit
// EmbeddingModel; its Model names the translation model and is ignored here.
// Providers without a model table (sentence_transformers) get the configured
// value as is.
func EmbeddingModelFor(provider string, s ProviderSettings) string {
	requested := s.EmbeddingModel
	if requested == "" {
		requested = s.Model
	}
	known, ok := knownEmbeddingModels[CanonicalProvider(provider)]
	if !ok {
		return requested
	}
	if known.anyConfigured {
		if s.EmbeddingModel != "" {
			return s.EmbeddingModel
		}
		return known.fallback
	}
	if slices.Contains(known.supported, requested) {
		return requested
	}
	return known.fallback
}

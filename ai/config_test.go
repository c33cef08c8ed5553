package ai

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderOllama, cfg.DefaultProvider)
	assert.Equal(t, "http://localhost:11434", cfg.Providers[ProviderOllama].URL)
	assert.Equal(t, "llama3.2:3b", cfg.Providers[ProviderOllama].Model)
	assert.Equal(t, "voyage-3-lite", cfg.Providers[ProviderVoyageAI].Model)
	assert.Equal(t, "mistral-large-latest", cfg.Providers[ProviderMistral].Model)
	assert.Equal(t, 2*time.Minute, cfg.RequestTimeout)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, ProviderOllama, cfg.DefaultProvider)
	})

	t.Run("with per-provider settings", func(t *testing.T) {
		cfg := NewConfig(
			WithDefaultProvider(ProviderOpenAI),
			WithAPIKey(ProviderOpenAI, "sk-test"),
			WithModel(ProviderOpenAI, "gpt-4o"),
			WithEmbeddingModel(ProviderOpenAI, "text-embedding-3-large"),
		)

		s := cfg.Providers[ProviderOpenAI]
		assert.Equal(t, "sk-test", s.APIKey)
		assert.Equal(t, "gpt-4o", s.Model)
		assert.Equal(t, "text-embedding-3-large", s.EmbeddingModel)
		assert.Equal(t, "https://api.openai.com/v1", s.URL, "other settings are kept")
	})

	t.Run("with provider replacement", func(t *testing.T) {
		cfg := NewConfig(WithProvider(ProviderOllama, ProviderSettings{URL: "http://gpu:11434"}))
		assert.Equal(t, ProviderSettings{URL: "http://gpu:11434"}, cfg.Providers[ProviderOllama])
	})
}

func TestConfigNormalize(t *testing.T) {
	t.Run("capabilities fall back to default provider", func(t *testing.T) {
		cfg := NewConfig(WithDefaultProvider(" Ollama "))
		cfg.Normalize()

		assert.Equal(t, ProviderOllama, cfg.DefaultProvider)
		assert.Equal(t, ProviderOllama, cfg.EmbeddingProvider)
		assert.Equal(t, ProviderOllama, cfg.TranslationProvider)
		assert.Equal(t, ProviderOllama, cfg.ChatProvider)
	})

	t.Run("capability left empty when default cannot serve it", func(t *testing.T) {
		cfg := NewConfig(WithDefaultProvider(ProviderVoyageAI))
		cfg.Normalize()

		assert.Equal(t, ProviderVoyageAI, cfg.EmbeddingProvider)
		assert.Empty(t, cfg.TranslationProvider)
		assert.Empty(t, cfg.ChatProvider)
	})

	t.Run("aliases are canonicalized", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingProvider("sentence-transformers"),
			WithURL("sentence-transformers", "http://st:8080/"),
		)
		cfg.Normalize()

		assert.Equal(t, ProviderSentenceTransformers, cfg.EmbeddingProvider)
		assert.Equal(t, "http://st:8080", cfg.Providers[ProviderSentenceTransformers].URL)
	})

	t.Run("openai url gets v1 suffix", func(t *testing.T) {
		cfg := NewConfig(WithURL(ProviderOpenAI, "http://localhost:8000/"))
		cfg.Normalize()
		assert.Equal(t, "http://localhost:8000/v1", cfg.Providers[ProviderOpenAI].URL)

		cfg.Normalize()
		assert.Equal(t, "http://localhost:8000/v1", cfg.Providers[ProviderOpenAI].URL, "normalize is idempotent")
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []ConfigOption
		wantErr error
		errText string
	}{
		{
			name: "default config is valid",
		},
		{
			name:    "unknown default provider",
			opts:    []ConfigOption{WithDefaultProvider("watson")},
			wantErr: ErrUnsupportedProvider,
		},
		{
			name:    "deepl cannot embed",
			opts:    []ConfigOption{WithEmbeddingProvider(ProviderDeepL)},
			wantErr: ErrUnsupportedProvider,
		},
		{
			name:    "deepl requires api key",
			opts:    []ConfigOption{WithTranslationProvider(ProviderDeepL)},
			wantErr: ErrMissingAPIKey,
		},
		{
			name: "deepl with api key",
			opts: []ConfigOption{WithTranslationProvider(ProviderDeepL), WithAPIKey(ProviderDeepL, "key:fx")},
		},
		{
			name:    "sentence transformers requires url",
			opts:    []ConfigOption{WithEmbeddingProvider(ProviderSentenceTransformers)},
			errText: "url is required",
		},
		{
			name:    "empty default provider",
			opts:    []ConfigOption{WithDefaultProvider("")},
			errText: "DefaultProvider is required",
		},
		{
			name:    "negative timeout",
			opts:    []ConfigOption{WithRequestTimeout(-time.Second)},
			errText: "RequestTimeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfig(tt.opts...).Validate()
			switch {
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestEmbeddingModelFor(t *testing.T) {
	tests := []struct {
		provider string
		settings ProviderSettings
		want     string
	}{
		{ProviderOpenAI, ProviderSettings{Model: "text-embedding-3-large"}, "text-embedding-3-large"},
		{ProviderOpenAI, ProviderSettings{Model: "text-embedding-ada-002"}, "text-embedding-ada-002"},
		{ProviderOpenAI, ProviderSettings{Model: "gpt-4o"}, "text-embedding-3-small"},
		{ProviderOllama, ProviderSettings{Model: "llama3.2:3b"}, "nomic-embed-text"},
		{ProviderOllama, ProviderSettings{Model: "nomic-embed-large"}, "nomic-embed-large"},
		{ProviderVoyageAI, ProviderSettings{Model: "voyage-law-2"}, "voyage-law-2"},
		{ProviderVoyageAI, ProviderSettings{}, "voyage-3-lite"},
		{ProviderMistral, ProviderSettings{Model: "mistral-large-latest"}, "mistral-embed"},
		{ProviderGemini, ProviderSettings{Model: "gemini-2.0-flash", EmbeddingModel: "gemini-embedding-001"}, "gemini-embedding-001"},
		{ProviderGemini, ProviderSettings{EmbeddingModel: "gemini-embedding-exp-03-07"}, "gemini-embedding-exp-03-07"},
		{ProviderGemini, ProviderSettings{Model: "gemini-2.0-flash"}, "text-embedding-004"},
		{ProviderSentenceTransformers, ProviderSettings{EmbeddingModel: "all-MiniLM-L6-v2"}, "all-MiniLM-L6-v2"},
	}

	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, EmbeddingModelFor(tt.provider, tt.settings))
		})
	}
}

func TestCapabilities(t *testing.T) {
	assert.True(t, CanEmbed("sentence-transformers"))
	assert.False(t, CanTranslate(ProviderVoyageAI))
	assert.True(t, CanTranslate(ProviderDeepL))
	assert.False(t, CanChat(ProviderDeepL))
	assert.False(t, IsKnownProvider("watson"))
}

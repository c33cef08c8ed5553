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


package ai

import (
	"fmt"
	"strings"
	"time"
)

// Provider names.
const (
	ProviderOpenAI               = "openai"
	ProviderOllama               = "ollama"
	ProviderVoyageAI             = "voyageai"
	ProviderMistral              = "mistral"
	ProviderSentenceTransformers = "sentence_transformers"
	ProviderDeepL                = "deepl"
	ProviderAnthropic            = "anthropic"
	ProviderGemini               = "gemini"
)

// ProviderSettings holds the connection settings for a single provider.
type ProviderSettings struct {
	// APIKey authenticates against the provider. Local servers may leave it empty.
	APIKey string `mapstructure:"api_key"`

	// URL is the base URL of the provider API.
	// Example: "http://localhost:11434" for Ollama
	URL string `mapstructure:"url"`

	// Model is the chat/completion model identifier.
	// Example: "llama3.2:3b", "mistral-large-latest"
	Model string `mapstructure:"model"`

	// EmbeddingModel is the embedding model identifier. When empty, Model is
	// used to pick one (see EmbeddingModelFor).
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// Config holds configuration for AI service providers.
type Config struct {
	// DefaultProvider is used for any capability without an explicit provider.
	// Default: "ollama"
	DefaultProvider string

	// EmbeddingProvider generates vector embeddings. Empty means DefaultProvider.
	EmbeddingProvider string

	// TranslationProvider translates record fields. Empty means DefaultProvider.
	TranslationProvider string

	// ChatProvider answers conversations. Empty means DefaultProvider.
	ChatProvider string

	// Providers maps provider name to its settings.
	Providers map[string]ProviderSettings

	// RequestTimeout bounds a single provider HTTP request.
	// Default: 2 minutes
	RequestTimeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithDefaultProvider sets the provider used when no capability-specific provider is set.
func WithDefaultProvider(name string) ConfigOption {
	return func(c *Config) {
		c.DefaultProvider = name
	}
}

// WithEmbeddingProvider sets the embedding provider.
func WithEmbeddingProvider(name string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingProvider = name
	}
}

// WithTranslationProvider sets the translation provider.
func WithTranslationProvider(name string) ConfigOption {
	return func(c *Config) {
		c.TranslationProvider = name
	}
}

// WithChatProvider sets the chat provider.
func WithChatProvider(name string) ConfigOption {
	return func(c *Config) {
		c.ChatProvider = name
	}
}

// WithProvider replaces the settings of a provider.
func WithProvider(name string, settings ProviderSettings) ConfigOption {
	return func(c *Config) {
		c.Providers[name] = settings
	}
}

// WithAPIKey sets the API key of a provider, keeping its other settings.
func WithAPIKey(name, key string) ConfigOption {
	return func(c *Config) {
		s := c.Providers[name]
		s.APIKey = key
		c.Providers[name] = s
	}
}

// WithURL sets the base URL of a provider, keeping its other settings.
func WithURL(name, url string) ConfigOption {
	return func(c *Config) {
		s := c.Providers[name]
		s.URL = url
		c.Providers[name] = s
	}
}

// WithModel sets the chat model of a provider, keeping its other settings.
func WithModel(name, model string) ConfigOption {
	return func(c *Config) {
		s := c.Providers[name]
		s.Model = model
		c.Providers[name] = s
	}
}

// WithEmbeddingModel sets the embedding model of a provider, keeping its other settings.
func WithEmbeddingModel(name, model string) ConfigOption {
	return func(c *Config) {
		s := c.Providers[name]
		s.EmbeddingModel = model
		c.Providers[name] = s
	}
}

// WithRequestTimeout sets the per-request timeout for HTTP providers.
func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// DefaultConfig returns a Config pointing at a local Ollama server, with the
// hosted providers' default models filled in.
func DefaultConfig() *Config {
	return &Config{
		DefaultProvider: ProviderOllama,
		Providers: map[string]ProviderSettings{
			ProviderOpenAI:               {URL: "https://api.openai.com/v1", Model: "gpt-4o-mini"},
			ProviderOllama:               {URL: "http://localhost:11434", Model: "llama3.2:3b"},
			ProviderVoyageAI:             {Model: "voyage-3-lite"},
			ProviderMistral:              {Model: "mistral-large-latest"},
			ProviderSentenceTransformers: {},
			ProviderDeepL:                {},
			ProviderAnthropic:            {Model: "claude-3-5-haiku-latest"},
			ProviderGemini:               {Model: "gemini-2.0-flash", EmbeddingModel: "text-embedding-004"},
		},
		RequestTimeout: 2 * time.Minute,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithDefaultProvider("openai"),
//       WithAPIKey("openai", os.Getenv("OPENAI_API_KEY")),
//       WithTranslationProvider("deepl"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// CanonicalProvider lowercases a provider name and maps aliases onto their
// canonical form ("sentence-transformers" -> "sentence_transformers").
func CanonicalProvider(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, "-", "_")
}

// Normalize ensures the configuration is in a canonical form.
// Provider names are canonicalized and URLs lose their trailing slash.
// A capability without its own provider falls back to the default provider
// when the default offers it, and stays empty (disabled) otherwise. The OpenAI URL gets
// the /v1 suffix OpenAI-compatible APIs expect.
func (c *Config) Normalize() {
	c.DefaultProvider = CanonicalProvider(c.DefaultProvider)
	c.EmbeddingProvider = CanonicalProvider(c.EmbeddingProvider)
	c.TranslationProvider = CanonicalProvider(c.TranslationProvider)
	c.ChatProvider = CanonicalProvider(c.ChatProvider)
	if c.EmbeddingProvider == "" && CanEmbed(c.DefaultProvider) {
		c.EmbeddingProvider = c.DefaultProvider
	}
	if c.TranslationProvider == "" && CanTranslate(c.DefaultProvider) {
		c.TranslationProvider = c.DefaultProvider
	}
	if c.ChatProvider == "" && CanChat(c.DefaultProvider) {
		c.ChatProvider = c.DefaultProvider
	}

	if c.Providers == nil {
		c.Providers = make(map[string]ProviderSettings)
	}
	normalized := make(map[string]ProviderSettings, len(c.Providers))
	for name, s := range c.Providers {
		s.URL = strings.TrimSuffix(strings.TrimSpace(s.URL), "/")
		normalized[CanonicalProvider(name)] = s
	}
	if s, ok := normalized[ProviderOpenAI]; ok && s.URL != "" && !strings.HasSuffix(s.URL, "/v1") {
		s.URL += "/v1"
		normalized[ProviderOpenAI] = s
	}
	c.Providers = normalized
}

// Settings returns the settings of the named provider.
func (c *Config) Settings(name string) ProviderSettings {
	return c.Providers[CanonicalProvider(name)]
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
// Only the providers actually selected for a capability are checked.
func (c *Config) Validate() error {
	c.Normalize()

	if c.DefaultProvider == "" {
		return fmt.Errorf("ai config: DefaultProvider is required")
	}
	if !IsKnownProvider(c.DefaultProvider) {
		return fmt.Errorf("ai config: %w: %q", ErrUnsupportedProvider, c.DefaultProvider)
	}
	checks := []struct {
		name string
		can  func(string) bool
	}{
		{c.EmbeddingProvider, CanEmbed},
		{c.TranslationProvider, CanTranslate},
		{c.ChatProvider, CanChat},
	}
	for _, chk := range checks {
		if chk.name != "" && !chk.can(chk.name) {
			return fmt.Errorf("ai config: %w: %q", ErrUnsupportedProvider, chk.name)
		}
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("ai config: RequestTimeout cannot be negative")
	}
	for _, name := range []string{c.EmbeddingProvider, c.TranslationProvider, c.ChatProvider} {
		if name == "" {
			continue
		}
		if err := c.validateProvider(name); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateProvider(name string) error {
	s := c.Providers[name]
	switch name {
	case ProviderOllama, ProviderSentenceTransformers:
		if s.URL == "" {
			return fmt.Errorf("ai config: %s url is required", name)
		}
	case ProviderVoyageAI, ProviderMistral, ProviderDeepL, ProviderAnthropic, ProviderGemini:
		if s.APIKey == "" {
			return fmt.Errorf("ai config: %w for %s", ErrMissingAPIKey, name)
		}
	case ProviderOpenAI:
		if s.URL == "" {
			return fmt.Errorf("ai config: %s url is required", name)
		}
	}
	return nil
}

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


// Package ai provides abstractions for the AI services used to enrich records.
//
// This package defines interfaces for text embeddings, translation and chat,
// plus the provider configuration that selects an implementation for each.
//
// # Providers
//
// Each capability is served by one configured provider:
//
//   - Embeddings: openai, ollama, voyageai, mistral, sentence_transformers, gemini
//   - Translation: openai, ollama, mistral, deepl, anthropic, gemini
//   - Chat: openai, ollama, mistral, anthropic, gemini
//
// A capability without an explicit provider falls back to DefaultProvider
// when that provider offers it.
//
// # Implementation Packages
//
//   - ai/langchain: OpenAI, Ollama, Mistral and VoyageAI through langchaingo
//   - ai/sentencetransformers: HTTP client for a sentence-transformers server
//   - ai/deepl: DeepL translation
//   - ai/claude: Anthropic translation and chat
//   - ai/gemini: Google Gemini embeddings, translation and chat
//   - ai/providers: factory that builds the services a Config selects
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (langchain.NewEmbedder, deepl.NewTranslator, etc.)
// return INTERFACE types. Test utility constructors (mock.NewMockEmbedder,
// mock.NewMockTranslator) return CONCRETE types so tests can inject behavior
// and assert on call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(
//	    ai.WithDefaultProvider("ollama"),
//	    ai.WithTranslationProvider("deepl"),
//	    ai.WithAPIKey("deepl", key),
//	)
//	provider, err := providers.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "Hello world")
//	out, err := provider.Translator().Translate(ctx, "Hello world", "en", "it")
package ai

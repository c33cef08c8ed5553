package config

import (
	"github.com/poiesic/enricher/ai"
	"github.com/poiesic/enricher/embedding"
	"github.com/poiesic/enricher/indexing"
	"github.com/poiesic/enricher/queue"
	"github.com/poiesic/enricher/reembed"
	"github.com/poiesic/enricher/search"
	"github.com/spf13/viper"
)

// envBindings maps configuration keys onto the environment variables that
// override them.
var envBindings = map[string][]string{
	"log_level":                                  {"ENRICHER_LOG_LEVEL"},
	"storage.path":                               {"ENRICHER_DATA_DIR"},
	"state.driver":                               {"ENRICHER_STATE_DRIVER"},
	"state.redis_url":                            {"REDIS_URL"},
	"features.embeddings":                        {"AI_EMBEDDINGS_ENABLED"},
	"features.translation":                       {"AI_TRANSLATION_ENABLED"},
	"locales.default":                            {"APP_LOCALE"},
	"ai.provider":                                {"AI_PROVIDER"},
	"ai.embedding_provider":                      {"AI_EMBEDDING_PROVIDER"},
	"ai.translation_provider":                    {"AI_TRANSLATION_PROVIDER"},
	"ai.chat_provider":                           {"AI_CHAT_PROVIDER"},
	"server.addr":                                {"ENRICHER_ADDR"},
	"server.token":                               {"ENRICHER_API_TOKEN"},
	"ai.providers.openai.api_key":                {"OPENAI_API_KEY"},
	"ai.providers.openai.url":                    {"OPENAI_API_URL"},
	"ai.providers.openai.model":                  {"OPENAI_MODEL"},
	"ai.providers.ollama.url":                    {"OLLAMA_API_URL"},
	"ai.providers.ollama.model":                  {"OLLAMA_MODEL"},
	"ai.providers.voyageai.api_key":              {"VOYAGEAI_API_KEY"},
	"ai.providers.voyageai.model":                {"VOYAGEAI_MODEL"},
	"ai.providers.mistral.api_key":               {"MISTRAL_API_KEY"},
	"ai.providers.mistral.model":                 {"MISTRAL_MODEL"},
	"ai.providers.sentence_transformers.url":     {"SENTENCE_TRANSFORMERS_URL"},
	"ai.providers.sentence_transformers.api_key": {"SENTENCE_TRANSFORMERS_API_KEY"},
	"ai.providers.deepl.api_key":                 {"DEEPL_API_KEY"},
	"ai.providers.anthropic.api_key":             {"ANTHROPIC_API_KEY"},
	"ai.providers.gemini.api_key":                {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

func bindEnv(v *viper.Viper) error {
	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.in_memory", false)

	v.SetDefault("state.driver", StateBadger)
	v.SetDefault("state.prefix", "")
	v.SetDefault("state.ttl", indexing.StateTTL)

	v.SetDefault("features.embeddings", false)
	v.SetDefault("features.translation", false)

	v.SetDefault("locales.default", "en")
	v.SetDefault("locales.available", []string{"en"})

	aiDefaults := ai.DefaultConfig()
	v.SetDefault("ai.provider", aiDefaults.DefaultProvider)
	v.SetDefault("ai.request_timeout", aiDefaults.RequestTimeout)
	for name, s := range aiDefaults.Providers {
		prefix := "ai.providers." + name + "."
		v.SetDefault(prefix+"api_key", s.APIKey)
		v.SetDefault(prefix+"url", s.URL)
		v.SetDefault(prefix+"model", s.Model)
		v.SetDefault(prefix+"embedding_model", s.EmbeddingModel)
	}

	policy := queue.DefaultPolicy()
	for _, name := range []string{queue.Default, queue.Embeddings, queue.Translations, queue.Indexing} {
		prefix := "queues." + name + "."
		v.SetDefault(prefix+"workers", policy.Workers)
		v.SetDefault(prefix+"tries", policy.Tries)
		v.SetDefault(prefix+"backoff", policy.Backoff)
		v.SetDefault(prefix+"timeout", policy.Timeout)
		v.SetDefault(prefix+"rate_limit", 0)
		v.SetDefault(prefix+"burst", policy.Burst)
		v.SetDefault(prefix+"max_exceptions", policy.MaxExceptions)
		v.SetDefault(prefix+"exception_window", policy.ExceptionWindow)
	}

	v.SetDefault("embedding.chunk_size", embedding.DefaultChunkSize)

	v.SetDefault("translation.concurrency", 4)
	v.SetDefault("translation.cache_size", 4096)
	v.SetDefault("translation.cache_ttl", "1h")

	v.SetDefault("search.min_similarity", search.DefaultMinSimilarity)
	v.SetDefault("search.query_cache_size", 512)

	r := reembed.DefaultConfig()
	v.SetDefault("reembed.batch_size", r.BatchSize)
	v.SetDefault("reembed.report_interval", r.ReportInterval)
	v.SetDefault("reembed.max_retries", r.MaxRetries)
	v.SetDefault("reembed.retry_delay", r.RetryDelay)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
}

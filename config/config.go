// Package config loads the application configuration from defaults, an
// optional YAML file, a .env file and the process environment, in rising
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/poiesic/enricher/ai"
	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/indexing"
	"github.com/poiesic/enricher/queue"
	"github.com/poiesic/enricher/reembed"
	"github.com/poiesic/enricher/translation"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

// State drivers.
const (
	StateBadger = "badger"
	StateRedis  = "redis"
)

// Config is the complete application configuration.
type Config struct {
	LogLevel    string                 `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Storage     StorageConfig          `mapstructure:"storage"`
	State       StateConfig            `mapstructure:"state"`
	Features    indexing.Features      `mapstructure:"features"`
	Locales     translation.Locales    `mapstructure:"locales"`
	AI          AIConfig               `mapstructure:"ai"`
	Queues      map[string]QueueConfig `mapstructure:"queues" validate:"dive"`
	Embedding   EmbeddingConfig        `mapstructure:"embedding"`
	Translation TranslationConfig      `mapstructure:"translation"`
	Search      SearchConfig           `mapstructure:"search"`
	Reembed     reembed.Config         `mapstructure:"reembed"`
	Server      ServerConfig           `mapstructure:"server"`
	Models      []*core.ModelDef       `mapstructure:"models" validate:"dive"`
}

// StorageConfig locates the badger database.
type StorageConfig struct {
	Path     string `mapstructure:"path" validate:"required_without=InMemory"`
	InMemory bool   `mapstructure:"in_memory"`
}

// StateConfig selects where pending indexing state lives.
type StateConfig struct {
	Driver   string        `mapstructure:"driver" validate:"oneof=badger redis"`
	RedisURL string        `mapstructure:"redis_url" validate:"required_if=Driver redis"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// AIConfig selects and configures the AI providers.
type AIConfig struct {
	Provider            string                         `mapstructure:"provider" validate:"required"`
	EmbeddingProvider   string                         `mapstructure:"embedding_provider"`
	TranslationProvider string                         `mapstructure:"translation_provider"`
	ChatProvider        string                         `mapstructure:"chat_provider"`
	Providers           map[string]ai.ProviderSettings `mapstructure:"providers"`
	RequestTimeout      time.Duration                  `mapstructure:"request_timeout" validate:"gte=0"`
}

// QueueConfig is the file form of a queue.Policy.
type QueueConfig struct {
	Workers         int             `mapstructure:"workers" validate:"gte=1"`
	Tries           int             `mapstructure:"tries" validate:"gte=1"`
	Backoff         []time.Duration `mapstructure:"backoff"`
	Timeout         time.Duration   `mapstructure:"timeout" validate:"gt=0"`
	RateLimit       float64         `mapstructure:"rate_limit" validate:"gte=0"` // attempts per second, 0 = unlimited
	Burst           int             `mapstructure:"burst" validate:"gte=0"`
	MaxExceptions   uint32          `mapstructure:"max_exceptions"`
	ExceptionWindow time.Duration   `mapstructure:"exception_window"`
}

// EmbeddingConfig tunes document chunking.
type EmbeddingConfig struct {
	ChunkSize int `mapstructure:"chunk_size" validate:"gt=0"`
}

// TranslationConfig tunes translation jobs and the translation memo.
type TranslationConfig struct {
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1"`
	CacheSize   int           `mapstructure:"cache_size" validate:"gte=0"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
}

// SearchConfig tunes the searcher.
type SearchConfig struct {
	MinSimilarity  float32 `mapstructure:"min_similarity" validate:"gte=0,lte=1"`
	QueryCacheSize int     `mapstructure:"query_cache_size" validate:"gte=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr  string `mapstructure:"addr" validate:"required"`
	Token string `mapstructure:"token"`
	Mode  string `mapstructure:"mode" validate:"oneof=debug release test"`
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	file    string
	envFile string
}

// WithFile reads a YAML configuration file. A missing file is an error.
func WithFile(path string) Option {
	return func(l *loader) { l.file = path }
}

// WithEnvFile sets the dotenv file. Default ".env"; a missing file is skipped.
func WithEnvFile(path string) Option {
	return func(l *loader) { l.envFile = path }
}

// Load builds the configuration and validates it.
func Load(opts ...Option) (*Config, error) {
	l := &loader{envFile: ".env"}
	for _, opt := range opts {
		opt(l)
	}

	if l.envFile != "" {
		if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", l.envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if l.file != "" {
		v.SetConfigFile(l.file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration and the model definitions it carries.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, def := range c.Models {
		if err := core.ValidateModelDef(def); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	// Provider credentials only matter once an AI feature is on.
	if c.Features.Embeddings || c.Features.Translation {
		if err := c.AIConfig().Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// AIConfig converts the provider settings into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithDefaultProvider(c.AI.Provider),
		ai.WithEmbeddingProvider(c.AI.EmbeddingProvider),
		ai.WithTranslationProvider(c.AI.TranslationProvider),
		ai.WithChatProvider(c.AI.ChatProvider),
	}
	if c.AI.RequestTimeout > 0 {
		opts = append(opts, ai.WithRequestTimeout(c.AI.RequestTimeout))
	}
	for name, settings := range c.AI.Providers {
		opts = append(opts, ai.WithProvider(ai.CanonicalProvider(name), settings))
	}
	cfg := ai.NewConfig(opts...)
	cfg.Normalize()
	return cfg
}

// QueuePolicies converts the queue settings into policies.
func (c *Config) QueuePolicies() map[string]queue.Policy {
	policies := make(map[string]queue.Policy, len(c.Queues))
	for name, q := range c.Queues {
		limit := rate.Inf
		if q.RateLimit > 0 {
			limit = rate.Limit(q.RateLimit)
		}
		burst := q.Burst
		if burst < 1 {
			burst = 1
		}
		policies[name] = queue.Policy{
			Workers:         q.Workers,
			Tries:           q.Tries,
			Backoff:         q.Backoff,
			Timeout:         q.Timeout,
			RateLimit:       limit,
			Burst:           burst,
			MaxExceptions:   q.MaxExceptions,
			ExceptionWindow: q.ExceptionWindow,
		}
	}
	return policies
}

// Registry builds the model registry from the configured models.
func (c *Config) Registry() (*core.Registry, error) {
	return core.NewRegistry(c.Models...)
}

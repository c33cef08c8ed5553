// Package translation translates the translatable fields of records into
// the configured locales.
package translation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/poiesic/enricher/ai"
	"github.com/poiesic/enricher/core"
)

const (
	defaultCacheSize = 4096
	defaultCacheTTL  = time.Hour
)

// Service translates texts through an ai.Translator, memoizing results.
type Service struct {
	translator ai.Translator
	cache      *expirable.LRU[string, string]
	logger     *slog.Logger

	cacheSize int
	cacheTTL  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithCache sets the memo size and entry lifetime. A size of zero disables memoization.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheSize = size
		s.cacheTTL = ttl
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a service over translator, which may be nil when
// translation is not configured.
func NewService(translator ai.Translator, opts ...Option) *Service {
	s := &Service{
		translator: translator,
		logger:     slog.Default(),
		cacheSize:  defaultCacheSize,
		cacheTTL:   defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cacheSize > 0 {
		s.cache = expirable.NewLRU[string, string](s.cacheSize, nil, s.cacheTTL)
	}
	s.logger = s.logger.With("component", "translation")
	return s
}

// Enabled reports whether a translator is configured.
func (s *Service) Enabled() bool {
	return s.translator != nil
}

func cacheKey(text, from, to string) string {
	return fmt.Sprintf("%s|%s|%016x", from, to, uint64(core.IDFromContent(text)))
}

// Translate translates text from one locale to another. Blank text and
// same-locale requests are returned unchanged.
func (s *Service) Translate(ctx context.Context, text, from, to string) (string, error) {
	out, err := s.TranslateBatch(ctx, []string{text}, from, to)
	if err != nil {
		return "", err
	}
	return out[0], nil
}

// TranslateBatch translates texts in one provider call, skipping blank
// and memoized texts. The result matches texts in length and order.
func (s *Service) TranslateBatch(ctx context.Context, texts []string, from, to string) ([]string, error) {
	out := make([]string, len(texts))
	copy(out, texts)
	if from == to {
		return out, nil
	}

	var pending []int
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if s.cache != nil {
			if cached, ok := s.cache.Get(cacheKey(text, from, to)); ok {
				out[i] = cached
				continue
			}
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return out, nil
	}
	if s.translator == nil {
		return nil, ErrNoTranslator
	}

	batch := make([]string, len(pending))
	for j, i := range pending {
		batch[j] = texts[i]
	}
	s.logger.Debug("translating batch", "from", from, "to", to, "texts", len(batch))
	translated, err := s.translator.TranslateBatch(ctx, batch, from, to)
	if err != nil {
		return nil, err
	}
	if len(translated) != len(batch) {
		return nil, fmt.Errorf("%w: expected %d, received %d", ai.ErrCountMismatch, len(batch), len(translated))
	}

	for j, i := range pending {
		out[i] = translated[j]
		if s.cache != nil {
			s.cache.Add(cacheKey(texts[i], from, to), translated[j])
		}
	}
	return out, nil
}

// Package redis implements storage.IndexingStateStore on Redis so several
// processes share pending pre-processing state.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/storage"
)

// maxTxRetries bounds optimistic transaction retries when a watched key changes.
const maxTxRetries = 16

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string // prepended to every key
}

// OptionsFromURL parses a redis:// or rediss:// URL.
func OptionsFromURL(url, prefix string) (Options, error) {
	parsed, err := redis.ParseURL(url)
	if err != nil {
		return Options{}, fmt.Errorf("invalid redis url: %w", err)
	}
	return Options{
		Addr:     parsed.Addr,
		Username: parsed.Username,
		Password: parsed.Password,
		DB:       parsed.DB,
		Prefix:   prefix,
	}, nil
}

// StateStore implements storage.IndexingStateStore using Redis keys with TTLs.
type StateStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

var _ storage.IndexingStateStore = (*StateStore)(nil)

// NewStateStore connects to Redis and verifies the connection.
func NewStateStore(ctx context.Context, opts Options) (storage.IndexingStateStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newStateStore(client, opts.Prefix), nil
}

func newStateStore(client *redis.Client, prefix string) *StateStore {
	return &StateStore{
		client: client,
		prefix: prefix,
		logger: slog.Default().With("component", "redis-state"),
	}
}

func (s *StateStore) key(ref core.Ref) string {
	return s.prefix + ref.CacheKey()
}

func (s *StateStore) Get(ctx context.Context, ref core.Ref) (*core.IndexingState, error) {
	data, err := s.client.Get(ctx, s.key(ref)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalIndexingState(data)
}

func (s *StateStore) Put(ctx context.Context, state *core.IndexingState, ttl time.Duration) error {
	data, err := storage.MarshalIndexingState(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(state.Ref), data, ttl).Err()
}

// Update runs fn under WATCH so concurrent updates from any process are serialized.
func (s *StateStore) Update(ctx context.Context, ref core.Ref, ttl time.Duration, fn func(*core.IndexingState) (*core.IndexingState, error)) (*core.IndexingState, error) {
	key := s.key(ref)
	var result *core.IndexingState

	txf := func(tx *redis.Tx) error {
		var current *core.IndexingState
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			current, err = storage.UnmarshalIndexingState(data)
			if err != nil {
				return err
			}
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		result = next

		var payload []byte
		if next != nil {
			next.Ref = ref
			payload, err = storage.MarshalIndexingState(next)
			if err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if next == nil {
				pipe.Del(ctx, key)
				return nil
			}
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
		s.logger.Debug("watched key changed, retrying", "key", key, "attempt", attempt+1)
	}
	return nil, storage.ErrConflict
}

func (s *StateStore) Delete(ctx context.Context, ref core.Ref) error {
	return s.client.Del(ctx, s.key(ref)).Err()
}

// ExpiresAt returns when the state of ref expires.
func (s *StateStore) ExpiresAt(ctx context.Context, ref core.Ref) (time.Time, error) {
	ttl, err := s.client.PTTL(ctx, s.key(ref)).Result()
	if err != nil {
		return time.Time{}, err
	}
	// -2 marks a missing key, -1 a key without expiry
	switch ttl {
	case -2:
		return time.Time{}, storage.ErrNotFound
	case -1:
		return time.Time{}, nil
	}
	return time.Now().Add(ttl), nil
}

func (s *StateStore) Close() error {
	return s.client.Close()
}

package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/fpl-companion/storage"
	"github.com/redis/go-redis/v9"
)

var _ storage.Store = (*Store)(nil)

// Store keeps the durable mirror in Redis so several companion processes
// on one machine can share last-known state.
type Store struct {
	rdb     *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

// Option mutates Store.
type Option func(*Store)

// WithTTL expires mirror entries after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithTimeout bounds every Redis round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// New wraps rdb. Keys are stored as "<prefix>:<key>".
func New(rdb *redis.Client, prefix string, opts ...Option) *Store {
	if prefix == "" {
		prefix = "fplcompanion"
	}
	s := &Store{rdb: rdb, prefix: prefix, timeout: 2 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(k string) string {
	return s.prefix + ":" + k
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	key, err := storage.ValidateKey(key)
	if err != nil {
		return nil, false, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	data, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) Set(key string, value []byte) error {
	key, err := storage.ValidateKey(key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.rdb.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(key string) error {
	key, err := storage.ValidateKey(key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

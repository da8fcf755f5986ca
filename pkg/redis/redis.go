// Package redis implements kv.Store on top of a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"swa/pkg/kv"

	goredis "github.com/redis/go-redis/v9"
)

// Config holds Redis connection details.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key. Defaults to "swa:".
	Prefix string
	// Client lets callers supply an existing connection.
	Client *goredis.Client
}

// Storage implements kv.Store with plain Redis strings.
type Storage struct {
	client     *goredis.Client
	prefix     string
	ownsClient bool
}

// Init connects to Redis and verifies the connection with PING.
func (s *Storage) Init(ctx context.Context, param any) error {
	cfg, ok := param.(Config)
	if !ok {
		if p, ok := param.(*Config); ok && p != nil {
			cfg = *p
		} else {
			return fmt.Errorf("redis: unexpected config type %T", param)
		}
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "swa:"
	}

	if cfg.Client != nil {
		s.client = cfg.Client
	} else {
		if cfg.Addr == "" {
			return errors.New("redis: Addr is required")
		}
		s.client = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		s.ownsClient = true
	}
	s.prefix = cfg.Prefix

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

// Close releases the connection when owned by the storage.
func (s *Storage) Close(_ context.Context) error {
	if s.client != nil && s.ownsClient {
		return s.client.Close()
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	v, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get: %w", err)
	}
	return v, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	if key == "" {
		return kv.ErrEmptyKey
	}
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set: %w", err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	n, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return fmt.Errorf("redis: delete: %w", err)
	}
	if n == 0 {
		return kv.ErrNotFound
	}
	return nil
}

// Keys walks the keyspace with SCAN; KEYS would block the server.
func (s *Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	var keys []string
	iter := s.client.Scan(ctx, 0, escapeGlob(s.prefix+prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis: scan: %w", err)
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

func (s *Storage) ensureClient() error {
	if s.client == nil {
		return errors.New("redis: storage not initialized")
	}
	return nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

// Ensure Storage implements Store interface.
var _ kv.Store = (*Storage)(nil)

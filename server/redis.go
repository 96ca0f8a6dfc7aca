// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDedupStore is a Redis-backed DedupStore, letting multiple server
// instances share one deduplication window.
type RedisDedupStore struct {
	client *redis.Client
}

var _ DedupStore = (*RedisDedupStore)(nil)

// NewRedisDedupStore creates a RedisDedupStore and verifies connectivity.
func NewRedisDedupStore(ctx context.Context, opts *redis.Options) (*RedisDedupStore, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisDedupStore{client: client}, nil
}

// Get implements DedupStore. A missing key returns "" with a nil error.
func (s *RedisDedupStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// SetEx implements DedupStore.
func (s *RedisDedupStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.SetEx(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis setex %s: %w", key, err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisDedupStore) Close() error {
	return s.client.Close()
}

// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-json-experiment/json"

	a2aserver "github.com/go-a2a/a2a-server"
)

// DefaultDedupWindow is the window within which an identical tasks/send is
// answered with the original task instead of creating a new one.
const DefaultDedupWindow = 3 * time.Second

const dedupKeyPrefix = "dedup:"

// DedupStore is the key-value backend for request deduplication. Get
// returns "" with a nil error on a missing key.
type DedupStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
}

// InMemoryDedupStore is an in-process DedupStore with TTL expiry.
type InMemoryDedupStore struct {
	mu      sync.Mutex
	entries map[string]memoryDedupEntry
}

type memoryDedupEntry struct {
	value     string
	expiresAt time.Time
}

var _ DedupStore = (*InMemoryDedupStore)(nil)

// NewInMemoryDedupStore creates an InMemoryDedupStore.
func NewInMemoryDedupStore() *InMemoryDedupStore {
	return &InMemoryDedupStore{
		entries: make(map[string]memoryDedupEntry),
	}
}

// Get implements DedupStore.
func (s *InMemoryDedupStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return "", nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return "", nil
	}
	return entry.value, nil
}

// SetEx implements DedupStore.
func (s *InMemoryDedupStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryDedupEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// dedupEntry is the JSON value stored per deduplication key.
type dedupEntry struct {
	TaskID    string    `json:"task_id"`
	Timestamp time.Time `json:"ts"`
}

// Deduplicator suppresses rapid duplicate tasks/send requests. Two sends
// are duplicates when they share a session, handler, and normalized
// message text within the window. Store failures are never fatal: a broken
// dedup backend degrades to creating tasks normally.
type Deduplicator struct {
	store  DedupStore
	window time.Duration
	logger *slog.Logger
}

// NewDeduplicator creates a Deduplicator. A window of 0 or below selects
// DefaultDedupWindow.
func NewDeduplicator(store DedupStore, window time.Duration, logger *slog.Logger) *Deduplicator {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduplicator{
		store:  store,
		window: window,
		logger: logger,
	}
}

// Key derives the deduplication key for a send request: the first 16 hex
// characters of the SHA-256 of "session:handler:text", where text is the
// message's text content with whitespace runs collapsed.
func (d *Deduplicator) Key(sessionID, handler string, message a2aserver.Message) string {
	text := strings.Join(strings.Fields(message.Text()), " ")
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%s:%s", sessionID, handler, text))
	return hex.EncodeToString(sum[:])[:16]
}

// Check returns the task ID of a duplicate send within the window, or ""
// when the request is fresh.
func (d *Deduplicator) Check(ctx context.Context, key string) string {
	if d == nil || d.store == nil {
		return ""
	}

	raw, err := d.store.Get(ctx, dedupKeyPrefix+key)
	if err != nil {
		d.logger.Warn("dedup lookup failed", slog.Any("error", err))
		return ""
	}
	if raw == "" {
		return ""
	}

	var entry dedupEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		d.logger.Warn("dedup entry corrupt", slog.Any("error", err))
		return ""
	}
	if time.Since(entry.Timestamp) > d.window {
		return ""
	}
	return entry.TaskID
}

// Record stores the task ID under the deduplication key. The entry lives
// for twice the window so a boundary read never misses it.
func (d *Deduplicator) Record(ctx context.Context, key, taskID string) {
	if d == nil || d.store == nil {
		return
	}

	raw, err := json.Marshal(dedupEntry{TaskID: taskID, Timestamp: time.Now().UTC()})
	if err != nil {
		d.logger.Warn("dedup entry marshal failed", slog.Any("error", err))
		return
	}
	if err := d.store.SetEx(ctx, dedupKeyPrefix+key, string(raw), 2*d.window); err != nil {
		d.logger.Warn("dedup record failed", slog.Any("error", err))
	}
}

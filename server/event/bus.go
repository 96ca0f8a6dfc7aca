// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"log/slog"
	"sync"

	a2aserver "github.com/go-a2a/a2a-server"
)

// DefaultSubscriberBuffer is the per-subscriber channel capacity.
const DefaultSubscriberBuffer = 64

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBusLogger sets the bus logger.
func WithBusLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithSubscriberBuffer sets the per-subscriber channel capacity.
func WithSubscriberBuffer(size int) BusOption {
	return func(b *Bus) {
		if size > 0 {
			b.buffer = size
		}
	}
}

// WithPublishHook registers a callback invoked once per published event.
func WithPublishHook(fn func(a2aserver.Event)) BusOption {
	return func(b *Bus) {
		b.publishHook = fn
	}
}

// WithDropHook registers a callback invoked once per event dropped for a
// slow subscriber.
func WithDropHook(fn func(a2aserver.Event)) BusOption {
	return func(b *Bus) {
		b.dropHook = fn
	}
}

// WithSubscriberHooks registers callbacks invoked when a subscriber is
// added or removed.
func WithSubscriberHooks(added, removed func()) BusOption {
	return func(b *Bus) {
		b.subscribeHook = added
		b.unsubscribeHook = removed
	}
}

// Bus fans task events out to subscribers. Delivery is best effort per
// subscriber: when a subscriber's channel is full the event is dropped
// for that subscriber only, never blocking the publisher or the others.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan a2aserver.Event]struct{}

	buffer          int
	logger          *slog.Logger
	publishHook     func(a2aserver.Event)
	dropHook        func(a2aserver.Event)
	subscribeHook   func()
	unsubscribeHook func()
}

// NewBus creates an event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subs:   make(map[chan a2aserver.Event]struct{}),
		buffer: DefaultSubscriberBuffer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new subscriber and returns its delivery channel.
// The caller must Unsubscribe when done.
func (b *Bus) Subscribe() chan a2aserver.Event {
	ch := make(chan a2aserver.Event, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	if b.subscribeHook != nil {
		b.subscribeHook()
	}
	return ch
}

// Unsubscribe removes the subscriber and closes its channel. Unknown
// channels are ignored.
func (b *Bus) Unsubscribe(ch chan a2aserver.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[ch]; !ok {
		return
	}
	delete(b.subs, ch)
	close(ch)
	if b.unsubscribeHook != nil {
		b.unsubscribeHook()
	}
}

// Publish delivers ev to every subscriber whose channel has room.
func (b *Bus) Publish(ev a2aserver.Event) {
	if b.publishHook != nil {
		b.publishHook(ev)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			if b.dropHook != nil {
				b.dropHook(ev)
			}
			b.logger.Warn("dropping event for slow subscriber",
				slog.String("task_id", ev.GetTaskID()))
		}
	}
}

// Count reports the number of live subscribers.
func (b *Bus) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package server implements the task runtime: the handler registry, the
// task manager driving the task state machine, the JSON-RPC dispatcher,
// request deduplication, and the supporting metrics and auth middleware.
package server

import (
	"context"
	"fmt"
	"sort"
	"sync"

	a2aserver "github.com/go-a2a/a2a-server"
	"github.com/go-a2a/a2a-server/server/event"
)

// TaskHandler executes tasks of one kind. ProcessTask runs on its own
// goroutine per task; it reports progress by enqueueing status and artifact
// events and returns once the task reaches an outcome. The manager owns the
// queue lifetime.
type TaskHandler interface {
	// Name returns the handler's registration name.
	Name() string

	// ProcessTask executes the task identified by taskID for the given
	// user message. Events enqueued on q are applied to the task record
	// in order. The context is canceled when the task is canceled or
	// the server shuts down. A non-nil error fails the task.
	ProcessTask(ctx context.Context, q *event.Queue, taskID string, message a2aserver.Message, sessionID string) error

	// CancelTask asks the handler to stop work on a task. It returns
	// true when the handler accepted the request. The manager cancels
	// the task regardless; this hook only enables cooperative cleanup.
	CancelTask(ctx context.Context, taskID string) bool
}

// HandlerRegistry maps handler names to TaskHandler implementations and
// tracks the default handler used when a request names none.
type HandlerRegistry struct {
	mu          sync.RWMutex
	handlers    map[string]TaskHandler
	defaultName string
}

// NewHandlerRegistry creates an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[string]TaskHandler),
	}
}

// Register adds a handler under its name. The first registered handler
// becomes the default; passing makeDefault promotes a later one.
func (r *HandlerRegistry) Register(h TaskHandler, makeDefault bool) error {
	if h == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	name := h.Name()
	if name == "" {
		return fmt.Errorf("handler name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("handler already registered: %s", name)
	}
	r.handlers[name] = h
	if makeDefault || r.defaultName == "" {
		r.defaultName = name
	}
	return nil
}

// Get resolves a handler by name. An empty name selects the default
// handler. Returns HandlerNotFoundError when no handler matches.
func (r *HandlerRegistry) Get(name string) (TaskHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultName
	}
	h, ok := r.handlers[name]
	if !ok {
		return nil, &a2aserver.HandlerNotFoundError{Handler: name}
	}
	return h, nil
}

// Names returns the registered handler names in sorted order.
func (r *HandlerRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultName returns the name of the default handler, or "" when the
// registry is empty.
func (r *HandlerRegistry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

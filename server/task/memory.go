// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"sort"
	"sync"

	a2aserver "github.com/go-a2a/a2a-server"
)

// InMemoryStore is an in-memory implementation of Store. Task data is lost
// when the server process stops. All operations are safe for concurrent use.
type InMemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*a2aserver.Task
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tasks: make(map[string]*a2aserver.Task),
	}
}

// Save persists a task to the in-memory storage.
func (s *InMemoryStore) Save(ctx context.Context, task *a2aserver.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return NewValidationError(task.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a deep copy so later caller mutations cannot leak in.
	s.tasks[task.ID] = task.Clone()
	return nil
}

// Get retrieves a task by its ID from the in-memory storage.
func (s *InMemoryStore) Get(ctx context.Context, taskID string) (*a2aserver.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, &a2aserver.TaskNotFoundError{TaskID: taskID}
	}
	return task.Clone(), nil
}

// Delete removes a task from the in-memory storage.
func (s *InMemoryStore) Delete(ctx context.Context, taskID string) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return &a2aserver.TaskNotFoundError{TaskID: taskID}
	}
	delete(s.tasks, taskID)
	return nil
}

// List retrieves tasks with optional session filtering, ordered by ID.
func (s *InMemoryStore) List(ctx context.Context, sessionID string, limit, offset int) ([]*a2aserver.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*a2aserver.Task
	for _, task := range s.tasks {
		if sessionID != "" && task.SessionID != sessionID {
			continue
		}
		matched = append(matched, task)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	tasks := make([]*a2aserver.Task, len(matched))
	for i, task := range matched {
		tasks[i] = task.Clone()
	}
	return tasks, nil
}

// ListByState retrieves all tasks currently in the given state.
func (s *InMemoryStore) ListByState(ctx context.Context, state a2aserver.TaskState) ([]*a2aserver.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*a2aserver.Task
	for _, task := range s.tasks {
		if task.Status.State == state {
			tasks = append(tasks, task.Clone())
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// Count returns the number of stored tasks.
func (s *InMemoryStore) Count(ctx context.Context, sessionID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sessionID == "" {
		return int64(len(s.tasks)), nil
	}
	var count int64
	for _, task := range s.tasks {
		if task.SessionID == sessionID {
			count++
		}
	}
	return count, nil
}

// Initialize prepares the in-memory storage for use.
func (s *InMemoryStore) Initialize(ctx context.Context) error {
	return nil
}

// Close clears the in-memory storage.
func (s *InMemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*a2aserver.Task)
	return nil
}

// Size returns the current number of stored tasks.
func (s *InMemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tasks)
}

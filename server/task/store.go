// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package task provides task persistence backends. A Store keeps the
// authoritative task records the manager reads and writes; implementations
// cover in-memory maps and GORM-backed databases.
package task

import (
	"context"

	a2aserver "github.com/go-a2a/a2a-server"
)

// Store defines the interface for task persistence operations. The task
// manager serializes access per task, so implementations only need to be
// safe for concurrent calls on distinct tasks.
type Store interface {
	// Save persists a task. An existing task with the same ID is replaced.
	Save(ctx context.Context, task *a2aserver.Task) error

	// Get retrieves a task by ID. Returns TaskNotFoundError when the
	// task does not exist.
	Get(ctx context.Context, taskID string) (*a2aserver.Task, error)

	// Delete removes a task. Returns TaskNotFoundError when the task
	// does not exist.
	Delete(ctx context.Context, taskID string) error

	// List retrieves tasks, optionally filtered by session. An empty
	// sessionID matches all tasks. A limit of 0 means no limit.
	List(ctx context.Context, sessionID string, limit, offset int) ([]*a2aserver.Task, error)

	// ListByState retrieves all tasks currently in the given state.
	ListByState(ctx context.Context, state a2aserver.TaskState) ([]*a2aserver.Task, error)

	// Count returns the number of stored tasks, optionally filtered
	// by session.
	Count(ctx context.Context, sessionID string) (int64, error)

	// Initialize prepares the backend (creating tables or indexes).
	Initialize(ctx context.Context) error

	// Close shuts the backend down.
	Close(ctx context.Context) error
}

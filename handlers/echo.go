// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package handlers provides ready-made task handlers: an echo handler for
// smoke tests and wiring examples, and a scripted handler that walks a
// configurable sequence of lifecycle stages.
package handlers

import (
	"context"
	"fmt"

	a2aserver "github.com/go-a2a/a2a-server"
	"github.com/go-a2a/a2a-server/server"
	"github.com/go-a2a/a2a-server/server/event"
)

// EchoHandler completes every task immediately with an artifact echoing
// the request text. It is not cancellable: tasks finish before a cancel
// can land.
type EchoHandler struct{}

var _ server.TaskHandler = (*EchoHandler)(nil)

// NewEchoHandler creates an EchoHandler.
func NewEchoHandler() *EchoHandler {
	return &EchoHandler{}
}

// Name implements server.TaskHandler.
func (h *EchoHandler) Name() string {
	return "echo"
}

// ProcessTask implements server.TaskHandler.
func (h *EchoHandler) ProcessTask(ctx context.Context, q *event.Queue, taskID string, message a2aserver.Message, sessionID string) error {
	if err := q.Enqueue(a2aserver.TaskStatusUpdateEvent{
		ID:     taskID,
		Status: a2aserver.NewTaskStatus(a2aserver.TaskStateWorking),
	}); err != nil {
		return err
	}

	if err := q.Enqueue(a2aserver.TaskArtifactUpdateEvent{
		ID:       taskID,
		Artifact: a2aserver.NewTextArtifact("echo", fmt.Sprintf("Echo: %s", message.Text())),
	}); err != nil {
		return err
	}

	return q.Enqueue(a2aserver.TaskStatusUpdateEvent{
		ID:     taskID,
		Status: a2aserver.NewTaskStatus(a2aserver.TaskStateCompleted),
		Final:  true,
	})
}

// CancelTask implements server.TaskHandler.
func (h *EchoHandler) CancelTask(ctx context.Context, taskID string) bool {
	return false
}

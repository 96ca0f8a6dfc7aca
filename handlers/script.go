// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"context"
	"sync"
	"time"

	a2aserver "github.com/go-a2a/a2a-server"
	"github.com/go-a2a/a2a-server/server"
	"github.com/go-a2a/a2a-server/server/event"
)

// Stage is one step of a scripted task run.
type Stage struct {
	// State to transition to. Leave empty to emit only the artifact.
	State a2aserver.TaskState

	// Message attached to the status update, spoken by the agent.
	Message string

	// Artifact to emit at this stage. Leave empty for none.
	Artifact string

	// Delay before this stage runs.
	Delay time.Duration
}

// ScriptedHandler walks each task through a fixed sequence of stages. It
// exists for exercising clients against multi-step lifecycles, including
// pauses in the input-required state, without a real backend.
type ScriptedHandler struct {
	name   string
	stages []Stage

	mu       sync.Mutex
	canceled map[string]struct{}
}

var _ server.TaskHandler = (*ScriptedHandler)(nil)

// NewScriptedHandler creates a ScriptedHandler running the given stages.
func NewScriptedHandler(name string, stages []Stage) *ScriptedHandler {
	return &ScriptedHandler{
		name:     name,
		stages:   stages,
		canceled: make(map[string]struct{}),
	}
}

// DefaultScript is a short working-then-completed walk with one artifact.
func DefaultScript() []Stage {
	return []Stage{
		{State: a2aserver.TaskStateWorking, Message: "Starting work"},
		{Artifact: "intermediate result", Delay: 10 * time.Millisecond},
		{State: a2aserver.TaskStateCompleted, Message: "All done", Delay: 10 * time.Millisecond},
	}
}

// Name implements server.TaskHandler.
func (h *ScriptedHandler) Name() string {
	return h.name
}

// ProcessTask implements server.TaskHandler.
func (h *ScriptedHandler) ProcessTask(ctx context.Context, q *event.Queue, taskID string, message a2aserver.Message, sessionID string) error {
	defer func() {
		h.mu.Lock()
		delete(h.canceled, taskID)
		h.mu.Unlock()
	}()

	for _, stage := range h.stages {
		if stage.Delay > 0 {
			select {
			case <-time.After(stage.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if h.isCanceled(taskID) {
			return context.Canceled
		}

		if stage.Artifact != "" {
			if err := q.Enqueue(a2aserver.TaskArtifactUpdateEvent{
				ID:       taskID,
				Artifact: a2aserver.NewTextArtifact("output", stage.Artifact),
			}); err != nil {
				return err
			}
		}
		if stage.State != "" {
			status := a2aserver.NewTaskStatus(stage.State)
			if stage.Message != "" {
				msg := a2aserver.NewAgentTextMessage(stage.Message)
				status.Message = &msg
			}
			if err := q.Enqueue(a2aserver.TaskStatusUpdateEvent{
				ID:     taskID,
				Status: status,
				Final:  stage.State.Terminal(),
			}); err != nil {
				return err
			}
			// A pause for user input ends this run; a follow-up message
			// starts a fresh one.
			if stage.State == a2aserver.TaskStateInputRequired {
				return nil
			}
		}
	}
	return nil
}

// CancelTask implements server.TaskHandler.
func (h *ScriptedHandler) CancelTask(ctx context.Context, taskID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.canceled[taskID] = struct{}{}
	return true
}

func (h *ScriptedHandler) isCanceled(taskID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.canceled[taskID]
	return ok
}

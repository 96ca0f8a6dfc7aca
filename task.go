// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2aserver

import (
	"fmt"
	"time"
)

// TaskState represents the lifecycle state of a Task.
type TaskState string

const (
	// TaskStateSubmitted indicates the task has been accepted but not started.
	TaskStateSubmitted TaskState = "submitted"

	// TaskStateWorking indicates the task is being worked on.
	TaskStateWorking TaskState = "working"

	// TaskStateInputRequired indicates the task is paused waiting for user input.
	TaskStateInputRequired TaskState = "input_required"

	// TaskStateCompleted indicates the task has finished successfully.
	TaskStateCompleted TaskState = "completed"

	// TaskStateCanceled indicates the task has been canceled.
	TaskStateCanceled TaskState = "canceled"

	// TaskStateFailed indicates the task has failed.
	TaskStateFailed TaskState = "failed"
)

// validTransitions is the allowed-successor set for each state. Terminal
// states have no successors; re-applying the current state is handled as a
// no-op before this table is consulted.
var validTransitions = map[TaskState][]TaskState{
	TaskStateSubmitted: {
		TaskStateWorking,
		TaskStateCompleted,
		TaskStateCanceled,
		TaskStateFailed,
	},
	TaskStateWorking: {
		TaskStateInputRequired,
		TaskStateCompleted,
		TaskStateCanceled,
		TaskStateFailed,
	},
	TaskStateInputRequired: {
		TaskStateWorking,
		TaskStateCanceled,
	},
}

// Terminal reports whether the state has no outgoing transitions.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateCanceled, TaskStateFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is an allowed successor of s.
// A transition from a state to itself is always allowed (no-op).
func (s TaskState) CanTransitionTo(next TaskState) bool {
	if s == next {
		return true
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known task state.
func (s TaskState) Valid() bool {
	switch s {
	case TaskStateSubmitted, TaskStateWorking, TaskStateInputRequired,
		TaskStateCompleted, TaskStateCanceled, TaskStateFailed:
		return true
	}
	return false
}

// TaskStatus is the current status of a task: its state, the time the state
// was entered, and an optional message attached at the moment of transition
// (for example a cancellation reason).
type TaskStatus struct {
	State     TaskState `json:"state"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	Message   *Message  `json:"message,omitzero"`
}

// NewTaskStatus creates a TaskStatus for state stamped with the current time.
func NewTaskStatus(state TaskState) TaskStatus {
	return TaskStatus{
		State:     state,
		Timestamp: time.Now().UTC(),
	}
}

// Task is one unit of requested asynchronous work. Tasks are owned by the
// task manager: they are created only through its CreateTask operation and
// mutated only through its synchronized operations. Copies, never shared
// references, cross the manager boundary.
type Task struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId,omitzero"`
	Status    TaskStatus `json:"status"`
	History   []Message  `json:"history,omitzero"`
	Artifacts []Artifact `json:"artifacts,omitzero"`
}

// Validate ensures the task record is well-formed.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task ID is required")
	}
	if !t.Status.State.Valid() {
		return fmt.Errorf("invalid task state: %q", t.Status.State)
	}
	return nil
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Status.Message != nil {
		msg := t.Status.Message.Clone()
		clone.Status.Message = &msg
	}
	if t.History != nil {
		clone.History = make([]Message, len(t.History))
		for i, m := range t.History {
			clone.History[i] = m.Clone()
		}
	}
	if t.Artifacts != nil {
		clone.Artifacts = make([]Artifact, len(t.Artifacts))
		for i, a := range t.Artifacts {
			clone.Artifacts[i] = a.Clone()
		}
	}
	return &clone
}

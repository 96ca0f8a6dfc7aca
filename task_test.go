// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2aserver

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTaskStateTerminal(t *testing.T) {
	tests := map[TaskState]bool{
		TaskStateSubmitted:     false,
		TaskStateWorking:       false,
		TaskStateInputRequired: false,
		TaskStateCompleted:     true,
		TaskStateCanceled:      true,
		TaskStateFailed:        true,
	}
	for state, want := range tests {
		if got := state.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", state, got, want)
		}
	}
}

func TestTaskStateCanTransitionTo(t *testing.T) {
	allStates := []TaskState{
		TaskStateSubmitted,
		TaskStateWorking,
		TaskStateInputRequired,
		TaskStateCompleted,
		TaskStateCanceled,
		TaskStateFailed,
	}

	allowed := map[TaskState]map[TaskState]bool{
		TaskStateSubmitted: {
			TaskStateWorking:   true,
			TaskStateCompleted: true,
			TaskStateCanceled:  true,
			TaskStateFailed:    true,
		},
		TaskStateWorking: {
			TaskStateInputRequired: true,
			TaskStateCompleted:     true,
			TaskStateCanceled:      true,
			TaskStateFailed:        true,
		},
		TaskStateInputRequired: {
			TaskStateWorking:  true,
			TaskStateCanceled: true,
		},
		TaskStateCompleted: {},
		TaskStateCanceled:  {},
		TaskStateFailed:    {},
	}

	for _, from := range allStates {
		for _, to := range allStates {
			want := allowed[from][to] || from == to
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTaskStateValid(t *testing.T) {
	for _, state := range []TaskState{
		TaskStateSubmitted, TaskStateWorking, TaskStateInputRequired,
		TaskStateCompleted, TaskStateCanceled, TaskStateFailed,
	} {
		if !state.Valid() {
			t.Errorf("%s.Valid() = false, want true", state)
		}
	}
	if TaskState("sleeping").Valid() {
		t.Error(`TaskState("sleeping").Valid() = true, want false`)
	}
}

func TestNewTaskStatus(t *testing.T) {
	status := NewTaskStatus(TaskStateWorking)
	if status.State != TaskStateWorking {
		t.Errorf("State = %s, want %s", status.State, TaskStateWorking)
	}
	if status.Timestamp.IsZero() {
		t.Error("Timestamp is zero, want current time")
	}
}

func TestTaskClone(t *testing.T) {
	task := &Task{
		ID:        "task-1",
		SessionID: "session-1",
		Status:    NewTaskStatus(TaskStateWorking),
		History: []Message{
			NewTextMessage("hello"),
			NewAgentTextMessage("hi there"),
		},
		Artifacts: []Artifact{
			NewTextArtifact("result", "done"),
		},
	}

	clone := task.Clone()
	if diff := cmp.Diff(task, clone); diff != "" {
		t.Fatalf("Clone() mismatch (-want +got):\n%s", diff)
	}

	clone.History[0].Parts[0].Text = "mutated"
	clone.Artifacts[0].Parts[0].Text = "mutated"
	if task.History[0].Parts[0].Text != "hello" {
		t.Error("mutating clone history leaked into original")
	}
	if task.Artifacts[0].Parts[0].Text != "done" {
		t.Error("mutating clone artifacts leaked into original")
	}
}

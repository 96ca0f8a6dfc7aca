// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	a2aserver "github.com/go-a2a/a2a-server"
)

func newTestTask(id, sessionID string, state a2aserver.TaskState) *a2aserver.Task {
	return &a2aserver.Task{
		ID:        id,
		SessionID: sessionID,
		Status:    a2aserver.NewTaskStatus(state),
		History:   []a2aserver.Message{a2aserver.NewTextMessage("hello")},
	}
}

func TestInMemoryStoreSaveGet(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	want := newTestTask("t1", "s1", a2aserver.TaskStateSubmitted)
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}
}

func TestInMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	orig := newTestTask("t1", "s1", a2aserver.TaskStateSubmitted)
	if err := store.Save(ctx, orig); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got.History[0].Parts[0].Text = "mutated"

	again, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.History[0].Parts[0].Text != "hello" {
		t.Error("mutating a returned task leaked into the store")
	}
}

func TestInMemoryStoreGetNotFound(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get(context.Background(), "missing")
	var notFound *a2aserver.TaskNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Get() error = %v, want TaskNotFoundError", err)
	}
}

func TestInMemoryStoreSaveRejectsInvalid(t *testing.T) {
	store := NewInMemoryStore()

	bad := &a2aserver.Task{ID: "t1", Status: a2aserver.TaskStatus{State: "bogus"}}
	err := store.Save(context.Background(), bad)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("Save() error = %v, want ValidationError", err)
	}
}

func TestInMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	if err := store.Save(ctx, newTestTask("t1", "", a2aserver.TaskStateSubmitted)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(ctx, "t1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var notFound *a2aserver.TaskNotFoundError
	if err := store.Delete(ctx, "t1"); !errors.As(err, &notFound) {
		t.Errorf("Delete() of missing task = %v, want TaskNotFoundError", err)
	}
}

func TestInMemoryStoreListFiltersBySession(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	for i := range 5 {
		session := "s1"
		if i%2 == 1 {
			session = "s2"
		}
		task := newTestTask(fmt.Sprintf("t%d", i), session, a2aserver.TaskStateSubmitted)
		if err := store.Save(ctx, task); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	tasks, err := store.List(ctx, "s1", 0, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("List(s1) returned %d tasks, want 3", len(tasks))
	}
	for _, task := range tasks {
		if task.SessionID != "s1" {
			t.Errorf("List(s1) returned task with session %q", task.SessionID)
		}
	}

	limited, err := store.List(ctx, "", 2, 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(limit=2, offset=1) returned %d tasks, want 2", len(limited))
	}
}

func TestInMemoryStoreListByState(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	states := []a2aserver.TaskState{
		a2aserver.TaskStateWorking,
		a2aserver.TaskStateCompleted,
		a2aserver.TaskStateWorking,
	}
	for i, state := range states {
		if err := store.Save(ctx, newTestTask(fmt.Sprintf("t%d", i), "", state)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	working, err := store.ListByState(ctx, a2aserver.TaskStateWorking)
	if err != nil {
		t.Fatalf("ListByState() error = %v", err)
	}
	if len(working) != 2 {
		t.Errorf("ListByState(working) returned %d tasks, want 2", len(working))
	}
}

func TestInMemoryStoreCount(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	if err := store.Save(ctx, newTestTask("t1", "s1", a2aserver.TaskStateSubmitted)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(ctx, newTestTask("t2", "s2", a2aserver.TaskStateSubmitted)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	total, err := store.Count(ctx, "")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if total != 2 {
		t.Errorf("Count() = %d, want 2", total)
	}

	scoped, err := store.Count(ctx, "s2")
	if err != nil {
		t.Fatalf("Count(s2) error = %v", err)
	}
	if scoped != 1 {
		t.Errorf("Count(s2) = %d, want 1", scoped)
	}
}

// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"testing"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	a2aserver "github.com/go-a2a/a2a-server"
	"github.com/go-a2a/a2a-server/server/event"
)

func completingHandler() *fakeHandler {
	return &fakeHandler{
		run: func(ctx context.Context, q *event.Queue, taskID string, msg a2aserver.Message, sessionID string) error {
			_ = q.Enqueue(a2aserver.TaskStatusUpdateEvent{ID: taskID, Status: a2aserver.NewTaskStatus(a2aserver.TaskStateWorking)})
			return q.Enqueue(a2aserver.TaskStatusUpdateEvent{ID: taskID, Status: a2aserver.NewTaskStatus(a2aserver.TaskStateCompleted), Final: true})
		},
	}
}

func newTestMethods(t *testing.T, opts ...MethodsOption) (*Methods, *TaskManager) {
	t.Helper()
	m, _ := newTestManager(t, completingHandler())
	return NewMethods(m, opts...), m
}

func mustParams(t *testing.T, v any) jsontext.Value {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return jsontext.Value(data)
}

func TestSendTaskDiscardsClientID(t *testing.T) {
	methods, _ := newTestMethods(t)

	params := mustParams(t, a2aserver.TaskSendParams{
		ID:      "client-chosen",
		Message: a2aserver.NewTextMessage("hello"),
	})
	result, err := methods.SendTask(context.Background(), a2aserver.MethodTasksSend, params)
	if err != nil {
		t.Fatalf("SendTask() error = %v", err)
	}
	got := result.(*a2aserver.Task)
	if got.ID == "client-chosen" || got.ID == "" {
		t.Errorf("task ID = %q, want a fresh server-assigned ID", got.ID)
	}
}

func TestSendTaskSubscribeHonorsClientID(t *testing.T) {
	methods, _ := newTestMethods(t)

	params := mustParams(t, a2aserver.TaskSendParams{
		ID:      "client-chosen",
		Message: a2aserver.NewTextMessage("hello"),
	})
	result, err := methods.SendTaskSubscribe(context.Background(), a2aserver.MethodTasksSendSubscribe, params)
	if err != nil {
		t.Fatalf("SendTaskSubscribe() error = %v", err)
	}
	if got := result.(*a2aserver.Task); got.ID != "client-chosen" {
		t.Errorf("task ID = %q, want client-chosen", got.ID)
	}
}

func TestSendTaskDeduplicatesWithinWindow(t *testing.T) {
	dedup := NewDeduplicator(NewInMemoryDedupStore(), time.Second, nil)
	methods, _ := newTestMethods(t, WithDeduplicator(dedup))

	params := mustParams(t, a2aserver.TaskSendParams{
		SessionID: "s1",
		Message:   a2aserver.NewTextMessage("same request"),
	})

	first, err := methods.SendTask(context.Background(), a2aserver.MethodTasksSend, params)
	if err != nil {
		t.Fatalf("first SendTask() error = %v", err)
	}
	second, err := methods.SendTask(context.Background(), a2aserver.MethodTasksSend, params)
	if err != nil {
		t.Fatalf("second SendTask() error = %v", err)
	}

	if first.(*a2aserver.Task).ID != second.(*a2aserver.Task).ID {
		t.Errorf("duplicate send created a new task: %s vs %s",
			first.(*a2aserver.Task).ID, second.(*a2aserver.Task).ID)
	}
}

func TestSendTaskDifferentSessionsNotDeduplicated(t *testing.T) {
	dedup := NewDeduplicator(NewInMemoryDedupStore(), time.Second, nil)
	methods, _ := newTestMethods(t, WithDeduplicator(dedup))

	first, err := methods.SendTask(context.Background(), a2aserver.MethodTasksSend,
		mustParams(t, a2aserver.TaskSendParams{SessionID: "s1", Message: a2aserver.NewTextMessage("hi")}))
	if err != nil {
		t.Fatalf("SendTask() error = %v", err)
	}
	second, err := methods.SendTask(context.Background(), a2aserver.MethodTasksSend,
		mustParams(t, a2aserver.TaskSendParams{SessionID: "s2", Message: a2aserver.NewTextMessage("hi")}))
	if err != nil {
		t.Fatalf("SendTask() error = %v", err)
	}
	if first.(*a2aserver.Task).ID == second.(*a2aserver.Task).ID {
		t.Error("sends in different sessions were deduplicated")
	}
}

func TestGetTaskSentinel(t *testing.T) {
	methods, _ := newTestMethods(t)

	result, err := methods.GetTask(context.Background(), a2aserver.MethodTasksGet,
		mustParams(t, a2aserver.TaskQueryParams{ID: "ping"}))
	if err != nil {
		t.Fatalf("GetTask(ping) error = %v", err)
	}
	got := result.(*a2aserver.Task)
	if got.ID != "ping" || got.Status.State != a2aserver.TaskStateCompleted {
		t.Errorf("sentinel task = %+v, want completed ping", got)
	}
}

func TestGetTaskMissingParams(t *testing.T) {
	methods, _ := newTestMethods(t)

	_, err := methods.GetTask(context.Background(), a2aserver.MethodTasksGet, nil)
	rpcErr := a2aserver.ToJSONRPCError(err)
	if rpcErr.Code != a2aserver.CodeInvalidParams {
		t.Errorf("GetTask(nil params) code = %d, want %d", rpcErr.Code, a2aserver.CodeInvalidParams)
	}
}

func TestCancelTaskMethod(t *testing.T) {
	started := make(chan struct{})
	h := &fakeHandler{
		run: func(ctx context.Context, q *event.Queue, taskID string, msg a2aserver.Message, sessionID string) error {
			_ = q.Enqueue(a2aserver.TaskStatusUpdateEvent{ID: taskID, Status: a2aserver.NewTaskStatus(a2aserver.TaskStateWorking)})
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
	}
	m, _ := newTestManager(t, h)
	methods := NewMethods(m)

	result, err := methods.SendTaskSubscribe(context.Background(), a2aserver.MethodTasksSendSubscribe,
		mustParams(t, a2aserver.TaskSendParams{ID: "t-cancel", Message: a2aserver.NewTextMessage("work")}))
	if err != nil {
		t.Fatalf("SendTaskSubscribe() error = %v", err)
	}
	<-started

	taskID := result.(*a2aserver.Task).ID
	canceled, err := methods.CancelTask(context.Background(), a2aserver.MethodTasksCancel,
		mustParams(t, a2aserver.TaskIDParams{ID: taskID}))
	if err != nil {
		t.Fatalf("CancelTask() error = %v", err)
	}
	if canceled != nil {
		t.Errorf("CancelTask() result = %v, want nil", canceled)
	}
	got, err := m.GetTask(context.Background(), taskID, 0)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.Status.State != a2aserver.TaskStateCanceled {
		t.Errorf("state = %s, want canceled", got.Status.State)
	}
}

func TestResubscribeIsNullNoOp(t *testing.T) {
	methods, mgr := newTestMethods(t)

	created, err := mgr.CreateTask(context.Background(), sendParams("hi"))
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	result, err := methods.Resubscribe(context.Background(), a2aserver.MethodTasksResubscribe,
		mustParams(t, a2aserver.TaskIDParams{ID: created.ID}))
	if err != nil {
		t.Fatalf("Resubscribe() error = %v", err)
	}
	if result != nil {
		t.Errorf("Resubscribe() result = %v, want nil", result)
	}

	_, err = methods.Resubscribe(context.Background(), a2aserver.MethodTasksResubscribe,
		mustParams(t, a2aserver.TaskIDParams{ID: "missing"}))
	if a2aserver.ToJSONRPCError(err).Code != a2aserver.CodeTaskNotFound {
		t.Errorf("Resubscribe(missing) error = %v, want TaskNotFound", err)
	}
}

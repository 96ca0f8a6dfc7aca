// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"log/slog"
	"slices"

	"github.com/go-json-experiment/json/jsontext"

	a2aserver "github.com/go-a2a/a2a-server"
)

// DefaultHealthSentinels are the task IDs answered synthetically by
// tasks/get so load balancers can probe the server without creating tasks.
var DefaultHealthSentinels = []string{"ping"}

// Methods binds the task manager to the JSON-RPC method set.
type Methods struct {
	manager   *TaskManager
	dedup     *Deduplicator
	sentinels []string
	logger    *slog.Logger
}

// MethodsOption configures Methods.
type MethodsOption func(*Methods)

// WithDeduplicator enables tasks/send deduplication.
func WithDeduplicator(d *Deduplicator) MethodsOption {
	return func(m *Methods) {
		m.dedup = d
	}
}

// WithHealthSentinels overrides the sentinel task IDs.
func WithHealthSentinels(ids []string) MethodsOption {
	return func(m *Methods) {
		m.sentinels = ids
	}
}

// WithMethodsLogger sets the logger.
func WithMethodsLogger(logger *slog.Logger) MethodsOption {
	return func(m *Methods) {
		m.logger = logger
	}
}

// NewMethods creates the method set.
func NewMethods(manager *TaskManager, opts ...MethodsOption) *Methods {
	m := &Methods{
		manager:   manager,
		sentinels: DefaultHealthSentinels,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterMethods binds all task methods onto the dispatcher.
func (m *Methods) RegisterMethods(p *Protocol) {
	p.Register(a2aserver.MethodTasksSend, m.SendTask)
	p.Register(a2aserver.MethodTasksGet, m.GetTask)
	p.Register(a2aserver.MethodTasksCancel, m.CancelTask)
	p.Register(a2aserver.MethodTasksSendSubscribe, m.SendTaskSubscribe)
	p.Register(a2aserver.MethodTasksResubscribe, m.Resubscribe)
}

// SendTask implements tasks/send. The server always assigns its own task
// ID; a client-proposed ID is discarded. Duplicate sends inside the
// deduplication window return the original task.
func (m *Methods) SendTask(ctx context.Context, method string, params jsontext.Value) (any, error) {
	p, err := unmarshalParams[a2aserver.TaskSendParams](params)
	if err != nil {
		return nil, err
	}
	p.ID = ""
	return m.createTask(ctx, p)
}

// SendTaskSubscribe implements tasks/sendSubscribe. It creates the task
// the same way tasks/send does but honors a client-proposed task ID, so a
// client that reconnects can resubscribe to the stream it expects.
func (m *Methods) SendTaskSubscribe(ctx context.Context, method string, params jsontext.Value) (any, error) {
	p, err := unmarshalParams[a2aserver.TaskSendParams](params)
	if err != nil {
		return nil, err
	}
	return m.createTask(ctx, p)
}

func (m *Methods) createTask(ctx context.Context, p a2aserver.TaskSendParams) (*a2aserver.Task, error) {
	if err := p.Validate(); err != nil {
		return nil, a2aserver.NewInvalidParamsError(err.Error())
	}

	var dedupKey string
	if m.dedup != nil {
		dedupKey = m.dedup.Key(p.SessionID, p.Handler, p.Message)
		if taskID := m.dedup.Check(ctx, dedupKey); taskID != "" {
			if t, err := m.manager.GetTask(ctx, taskID, 0); err == nil {
				m.logger.Debug("duplicate send suppressed",
					slog.String("task_id", taskID),
					slog.String("session_id", p.SessionID))
				return t, nil
			}
		}
	}

	t, err := m.manager.CreateTask(ctx, p)
	if err != nil {
		return nil, err
	}
	if m.dedup != nil {
		m.dedup.Record(ctx, dedupKey, t.ID)
	}
	return t, nil
}

// GetTask implements tasks/get. Sentinel IDs are answered with a synthetic
// completed task and never touch the store.
func (m *Methods) GetTask(ctx context.Context, method string, params jsontext.Value) (any, error) {
	p, err := unmarshalParams[a2aserver.TaskQueryParams](params)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, a2aserver.NewInvalidParamsError(err.Error())
	}

	if slices.Contains(m.sentinels, p.ID) {
		return &a2aserver.Task{
			ID:     p.ID,
			Status: a2aserver.NewTaskStatus(a2aserver.TaskStateCompleted),
		}, nil
	}
	return m.manager.GetTask(ctx, p.ID, p.HistoryLength)
}

// CancelTask implements tasks/cancel.
func (m *Methods) CancelTask(ctx context.Context, method string, params jsontext.Value) (any, error) {
	p, err := unmarshalParams[a2aserver.TaskIDParams](params)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, a2aserver.NewInvalidParamsError(err.Error())
	}
	if _, err := m.manager.CancelTask(ctx, p.ID, ""); err != nil {
		return nil, err
	}
	return nil, nil
}

// Resubscribe implements tasks/resubscribe. Event delivery is handled by
// the transport's bus subscription, so the method itself acknowledges with
// a null result after checking that the task exists.
func (m *Methods) Resubscribe(ctx context.Context, method string, params jsontext.Value) (any, error) {
	p, err := unmarshalParams[a2aserver.TaskIDParams](params)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, a2aserver.NewInvalidParamsError(err.Error())
	}
	if _, err := m.manager.GetTask(ctx, p.ID, 0); err != nil {
		return nil, err
	}
	return nil, nil
}

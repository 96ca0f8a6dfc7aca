// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	a2aserver "github.com/go-a2a/a2a-server"
	"github.com/go-a2a/a2a-server/server/event"
	"github.com/go-a2a/a2a-server/server/task"
)

// TaskManager owns the task lifecycle. It creates tasks, runs their
// handlers on background goroutines, applies handler events to the stored
// task records under a single lock, and publishes every accepted change on
// the event bus. All mutations of a task record go through the manager.
type TaskManager struct {
	store    task.Store
	bus      *event.Bus
	handlers *HandlerRegistry

	mu      sync.Mutex
	active  map[string]string // task ID -> handler name
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup

	queueSize int
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *Metrics
}

// TaskManagerOption configures a TaskManager.
type TaskManagerOption func(*TaskManager)

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) TaskManagerOption {
	return func(m *TaskManager) {
		m.logger = logger
	}
}

// WithQueueSize sets the per-task event queue capacity.
func WithQueueSize(size int) TaskManagerOption {
	return func(m *TaskManager) {
		if size > 0 {
			m.queueSize = size
		}
	}
}

// WithMetrics attaches task metrics.
func WithMetrics(metrics *Metrics) TaskManagerOption {
	return func(m *TaskManager) {
		m.metrics = metrics
	}
}

// NewTaskManager creates a TaskManager.
func NewTaskManager(store task.Store, bus *event.Bus, handlers *HandlerRegistry, opts ...TaskManagerOption) *TaskManager {
	m := &TaskManager{
		store:     store,
		bus:       bus,
		handlers:  handlers,
		active:    make(map[string]string),
		cancels:   make(map[string]context.CancelFunc),
		queueSize: event.DefaultQueueSize,
		logger:    slog.Default(),
		tracer:    otel.Tracer("github.com/go-a2a/a2a-server/server"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateTask accepts a new task, persists it in the submitted state, and
// starts its handler on a background goroutine. When params carry a task ID
// that already exists, the existing task is returned unchanged and no new
// work starts.
func (m *TaskManager) CreateTask(ctx context.Context, params a2aserver.TaskSendParams) (*a2aserver.Task, error) {
	if err := params.Validate(); err != nil {
		return nil, a2aserver.NewInvalidParamsError(err.Error())
	}

	handler, err := m.handlers.Get(params.Handler)
	if err != nil {
		return nil, err
	}

	taskID := params.ID
	if taskID == "" {
		taskID = uuid.NewString()
	}
	sessionID := params.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx, span := m.tracer.Start(ctx, "TaskManager.CreateTask",
		trace.WithAttributes(attribute.String("a2a.task_id", taskID)))
	defer span.End()

	m.mu.Lock()
	if existing, err := m.store.Get(ctx, taskID); err == nil {
		m.mu.Unlock()
		return existing, nil
	}

	t := &a2aserver.Task{
		ID:        taskID,
		SessionID: sessionID,
		Status:    a2aserver.NewTaskStatus(a2aserver.TaskStateSubmitted),
		History:   []a2aserver.Message{params.Message},
	}
	if err := m.store.Save(ctx, t); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("save task %s: %w", taskID, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.active[taskID] = handler.Name()
	m.cancels[taskID] = cancel
	m.wg.Add(1)
	result := t.Clone()
	m.mu.Unlock()

	m.metrics.TaskCreated(handler.Name())
	m.metrics.TaskTransition(a2aserver.TaskStateSubmitted)
	m.publish(a2aserver.TaskStatusUpdateEvent{
		ID:     taskID,
		Status: t.Status,
		Final:  false,
	})

	m.logger.Info("task created",
		slog.String("task_id", taskID),
		slog.String("handler", handler.Name()),
		slog.String("session_id", sessionID))

	go m.processTask(runCtx, handler, taskID, params.Message, sessionID)

	return result, nil
}

// GetTask retrieves a task by ID. A positive historyLength truncates the
// returned history to the most recent messages.
func (m *TaskManager) GetTask(ctx context.Context, taskID string, historyLength int) (*a2aserver.Task, error) {
	ctx, span := m.tracer.Start(ctx, "TaskManager.GetTask",
		trace.WithAttributes(attribute.String("a2a.task_id", taskID)))
	defer span.End()

	t, err := m.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if historyLength > 0 && len(t.History) > historyLength {
		t.History = t.History[len(t.History)-historyLength:]
	}
	return t, nil
}

// UpdateStatus transitions a task to a new state, appending the optional
// status message to the task history. A same-state update is a no-op: the
// stored task is returned unchanged and no event is published. Invalid
// transitions return InvalidTransitionError.
func (m *TaskManager) UpdateStatus(ctx context.Context, taskID string, state a2aserver.TaskState, message *a2aserver.Message) (*a2aserver.Task, error) {
	ctx, span := m.tracer.Start(ctx, "TaskManager.UpdateStatus",
		trace.WithAttributes(
			attribute.String("a2a.task_id", taskID),
			attribute.String("a2a.task_state", string(state))))
	defer span.End()

	m.mu.Lock()
	t, err := m.store.Get(ctx, taskID)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	if t.Status.State == state {
		m.mu.Unlock()
		return t, nil
	}
	if !t.Status.State.CanTransitionTo(state) {
		m.mu.Unlock()
		return nil, &a2aserver.InvalidTransitionError{TaskID: taskID, From: t.Status.State, To: state}
	}

	status := a2aserver.NewTaskStatus(state)
	status.Message = message
	t.Status = status
	if message != nil {
		t.History = append(t.History, *message)
	}
	if err := m.store.Save(ctx, t); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("save task %s: %w", taskID, err)
	}
	result := t.Clone()
	m.mu.Unlock()

	m.metrics.TaskTransition(state)
	m.publish(a2aserver.TaskStatusUpdateEvent{
		ID:     taskID,
		Status: result.Status,
		Final:  state.Terminal(),
	})

	m.logger.Debug("task status updated",
		slog.String("task_id", taskID),
		slog.String("state", string(state)))

	return result, nil
}

// AddArtifact appends an artifact to a task. A zero artifact index is
// assigned the next position automatically.
func (m *TaskManager) AddArtifact(ctx context.Context, taskID string, artifact a2aserver.Artifact) (*a2aserver.Task, error) {
	ctx, span := m.tracer.Start(ctx, "TaskManager.AddArtifact",
		trace.WithAttributes(attribute.String("a2a.task_id", taskID)))
	defer span.End()

	if err := artifact.Validate(); err != nil {
		return nil, a2aserver.NewInvalidParamsError(err.Error())
	}

	m.mu.Lock()
	t, err := m.store.Get(ctx, taskID)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	if artifact.Index == 0 {
		artifact.Index = len(t.Artifacts)
	}
	t.Artifacts = append(t.Artifacts, artifact)
	if err := m.store.Save(ctx, t); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("save task %s: %w", taskID, err)
	}
	result := t.Clone()
	m.mu.Unlock()

	m.publish(a2aserver.TaskArtifactUpdateEvent{
		ID:       taskID,
		Artifact: artifact,
	})

	return result, nil
}

// CancelTask cancels a task. The handler is asked to stop first, then the
// task is forced into the canceled state with the reason recorded in its
// history, and finally the handler's context is canceled. Canceling an
// already canceled task is a no-op; tasks in any other terminal state
// return TaskNotCancelableError.
func (m *TaskManager) CancelTask(ctx context.Context, taskID, reason string) (*a2aserver.Task, error) {
	ctx, span := m.tracer.Start(ctx, "TaskManager.CancelTask",
		trace.WithAttributes(attribute.String("a2a.task_id", taskID)))
	defer span.End()

	t, err := m.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status.State == a2aserver.TaskStateCanceled {
		return t, nil
	}
	if t.Status.State.Terminal() {
		return nil, &a2aserver.TaskNotCancelableError{TaskID: taskID, State: t.Status.State}
	}

	m.mu.Lock()
	handlerName := m.active[taskID]
	cancel := m.cancels[taskID]
	m.mu.Unlock()

	if handlerName != "" {
		if h, err := m.handlers.Get(handlerName); err == nil {
			if accepted := h.CancelTask(ctx, taskID); accepted {
				m.logger.Debug("handler accepted cancellation",
					slog.String("task_id", taskID),
					slog.String("handler", handlerName))
			}
		}
	}

	if reason == "" {
		reason = "Canceled by client"
	}
	msg := a2aserver.NewAgentTextMessage(reason)
	result, err := m.UpdateStatus(ctx, taskID, a2aserver.TaskStateCanceled, &msg)
	if err != nil {
		return nil, err
	}

	if cancel != nil {
		cancel()
	}
	return result, nil
}

// ListTasks retrieves tasks, optionally filtered by session.
func (m *TaskManager) ListTasks(ctx context.Context, sessionID string, limit, offset int) ([]*a2aserver.Task, error) {
	return m.store.List(ctx, sessionID, limit, offset)
}

// TasksByState retrieves all tasks currently in the given state.
func (m *TaskManager) TasksByState(ctx context.Context, state a2aserver.TaskState) ([]*a2aserver.Task, error) {
	return m.store.ListByState(ctx, state)
}

// Shutdown cancels all running handlers and waits for their goroutines to
// finish or the context to expire.
func (m *TaskManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, cancel := range m.cancels {
		cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("task manager shutdown: %w", ctx.Err())
	}
}

// processTask runs the handler for one task, applying its queued events to
// the task record. It guarantees the task ends in a terminal state.
func (m *TaskManager) processTask(ctx context.Context, handler TaskHandler, taskID string, message a2aserver.Message, sessionID string) {
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		delete(m.active, taskID)
		delete(m.cancels, taskID)
		m.mu.Unlock()
	}()

	q := event.NewQueue(m.queueSize)
	handlerDone := make(chan error, 1)
	go func() {
		handlerDone <- handler.ProcessTask(ctx, q, taskID, message, sessionID)
		q.Close()
	}()

	// Events are applied even after the task context is canceled so that
	// the final state lands in the store.
	applyCtx := context.WithoutCancel(ctx)
	for {
		ev, err := q.Dequeue(applyCtx)
		if err != nil {
			break
		}
		if applyErr := m.applyEvent(applyCtx, ev); applyErr != nil {
			var badTransition *a2aserver.InvalidTransitionError
			if errors.As(applyErr, &badTransition) {
				// The task reached a terminal state out from under the
				// handler, typically through an external cancel. Stop
				// applying its remaining events.
				m.logger.Debug("discarding handler events after terminal state",
					slog.String("task_id", taskID),
					slog.String("from", string(badTransition.From)),
					slog.String("to", string(badTransition.To)))
				break
			}
			m.logger.Error("failed to apply task event",
				slog.String("task_id", taskID),
				slog.Any("error", applyErr))
		}
	}

	handlerErr := <-handlerDone
	m.finalizeTask(applyCtx, taskID, handlerErr, ctx.Err() != nil)
}

// applyEvent applies one handler event to the task record.
func (m *TaskManager) applyEvent(ctx context.Context, ev a2aserver.Event) error {
	switch e := ev.(type) {
	case a2aserver.TaskStatusUpdateEvent:
		_, err := m.UpdateStatus(ctx, e.ID, e.Status.State, e.Status.Message)
		return err
	case a2aserver.TaskArtifactUpdateEvent:
		_, err := m.AddArtifact(ctx, e.ID, e.Artifact)
		return err
	default:
		return fmt.Errorf("unknown event type %T", ev)
	}
}

// finalizeTask forces a terminal state after a cancellation or a handler
// error. A handler that returns cleanly leaves the task in whatever state
// its events reached; the registry never assumes it meant completed.
func (m *TaskManager) finalizeTask(ctx context.Context, taskID string, handlerErr error, canceled bool) {
	t, err := m.store.Get(ctx, taskID)
	if err != nil {
		m.logger.Error("cannot finalize task",
			slog.String("task_id", taskID),
			slog.Any("error", err))
		return
	}
	if t.Status.State.Terminal() {
		return
	}

	switch {
	case canceled || errors.Is(handlerErr, context.Canceled):
		msg := a2aserver.NewAgentTextMessage("Task canceled")
		if _, err := m.UpdateStatus(ctx, taskID, a2aserver.TaskStateCanceled, &msg); err != nil {
			m.logger.Error("failed to mark task canceled",
				slog.String("task_id", taskID),
				slog.Any("error", err))
		}
	case handlerErr != nil:
		if t.Status.State == a2aserver.TaskStateInputRequired {
			// The failed state is only reachable through working.
			if _, err := m.UpdateStatus(ctx, taskID, a2aserver.TaskStateWorking, nil); err != nil {
				m.logger.Error("failed to resume task for failure",
					slog.String("task_id", taskID),
					slog.Any("error", err))
			}
		}
		msg := a2aserver.NewAgentTextMessage(handlerErr.Error())
		if _, err := m.UpdateStatus(ctx, taskID, a2aserver.TaskStateFailed, &msg); err != nil {
			m.logger.Error("failed to mark task failed",
				slog.String("task_id", taskID),
				slog.Any("error", err))
		}
	}
}

func (m *TaskManager) publish(ev a2aserver.Event) {
	if m.bus != nil {
		m.bus.Publish(ev)
	}
}

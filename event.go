// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2aserver

// Event is a task lifecycle notification published on the event bus
// and streamed to subscribers.
type Event interface {
	// GetTaskID returns the ID of the task the event belongs to.
	GetTaskID() string

	// IsFinal reports whether this event closes the task's event stream.
	IsFinal() bool

	// eventParams returns the wire-level notification params for the event.
	eventParams() EventParams
}

// TaskStatusUpdateEvent signals that a task entered a new status. Final is
// true exactly when the new state is terminal.
type TaskStatusUpdateEvent struct {
	ID     string     `json:"id"`
	Status TaskStatus `json:"status"`
	Final  bool       `json:"final"`
}

// GetTaskID implements Event.
func (e TaskStatusUpdateEvent) GetTaskID() string { return e.ID }

// IsFinal implements Event.
func (e TaskStatusUpdateEvent) IsFinal() bool { return e.Final }

func (e TaskStatusUpdateEvent) eventParams() EventParams {
	return EventParams{
		ID:     e.ID,
		Type:   EventTypeStatus,
		Status: &e.Status,
		Final:  e.Final,
	}
}

// TaskArtifactUpdateEvent signals that a task produced a new artifact.
// Artifact events never close the stream.
type TaskArtifactUpdateEvent struct {
	ID       string   `json:"id"`
	Artifact Artifact `json:"artifact"`
}

// GetTaskID implements Event.
func (e TaskArtifactUpdateEvent) GetTaskID() string { return e.ID }

// IsFinal implements Event.
func (e TaskArtifactUpdateEvent) IsFinal() bool { return false }

func (e TaskArtifactUpdateEvent) eventParams() EventParams {
	return EventParams{
		ID:       e.ID,
		Type:     EventTypeArtifact,
		Artifact: &e.Artifact,
	}
}

// Event type discriminators carried in notification params.
const (
	EventTypeStatus   = "status"
	EventTypeArtifact = "artifact"
)

// EventParams is the params payload of a tasks/event notification.
type EventParams struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Status   *TaskStatus `json:"status,omitzero"`
	Artifact *Artifact   `json:"artifact,omitzero"`
	Final    bool        `json:"final"`
}

// EventNotification is the full JSON-RPC notification envelope for an event.
type EventNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  EventParams `json:"params"`
}

// NewEventNotification wraps an event in a tasks/event notification envelope.
func NewEventNotification(e Event) EventNotification {
	return EventNotification{
		JSONRPC: Version,
		Method:  MethodTasksEvent,
		Params:  e.eventParams(),
	}
}

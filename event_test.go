// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2aserver

import (
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
)

func TestNewEventNotificationStatus(t *testing.T) {
	event := TaskStatusUpdateEvent{
		ID:     "t1",
		Status: NewTaskStatus(TaskStateCompleted),
		Final:  true,
	}
	notif := NewEventNotification(event)

	if notif.Method != MethodTasksEvent {
		t.Errorf("Method = %q, want %q", notif.Method, MethodTasksEvent)
	}
	if notif.Params.Type != EventTypeStatus {
		t.Errorf("Params.Type = %q, want %q", notif.Params.Type, EventTypeStatus)
	}
	if !notif.Params.Final {
		t.Error("Params.Final = false, want true")
	}

	data, err := json.Marshal(notif)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	for _, want := range []string{`"method":"tasks/event"`, `"type":"status"`, `"final":true`, `"id":"t1"`} {
		if !strings.Contains(s, want) {
			t.Errorf("notification missing %s: %s", want, s)
		}
	}
}

func TestNewEventNotificationArtifact(t *testing.T) {
	event := TaskArtifactUpdateEvent{
		ID:       "t1",
		Artifact: NewTextArtifact("result", "done"),
	}
	if event.IsFinal() {
		t.Error("artifact events must never be final")
	}

	notif := NewEventNotification(event)
	if notif.Params.Type != EventTypeArtifact {
		t.Errorf("Params.Type = %q, want %q", notif.Params.Type, EventTypeArtifact)
	}
	if notif.Params.Final {
		t.Error("Params.Final = true, want false")
	}
	if notif.Params.Artifact == nil || notif.Params.Artifact.Name != "result" {
		t.Errorf("Params.Artifact = %+v, want name %q", notif.Params.Artifact, "result")
	}
}

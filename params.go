// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2aserver

import (
	"fmt"
)

// TaskSendParams is the params object of tasks/send and tasks/sendSubscribe.
type TaskSendParams struct {
	// ID is the client-proposed task ID. Optional for tasks/send, where
	// the server assigns its own; honored for tasks/sendSubscribe.
	ID string `json:"id,omitzero"`

	// SessionID groups related tasks. Optional.
	SessionID string `json:"sessionId,omitzero"`

	// Message is the user message to process.
	Message Message `json:"message"`

	// Handler names the task handler to route to. Empty selects the
	// server's default handler.
	Handler string `json:"handler,omitzero"`
}

// Validate ensures the params are well-formed.
func (p TaskSendParams) Validate() error {
	if err := p.Message.Validate(); err != nil {
		return fmt.Errorf("message: %w", err)
	}
	return nil
}

// TaskQueryParams is the params object of tasks/get.
type TaskQueryParams struct {
	ID string `json:"id"`

	// HistoryLength, when positive, truncates the returned history to
	// the most recent N messages.
	HistoryLength int `json:"historyLength,omitzero"`
}

// Validate ensures the params are well-formed.
func (p TaskQueryParams) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("task id is required")
	}
	return nil
}

// TaskIDParams is the params object of tasks/cancel and tasks/resubscribe.
type TaskIDParams struct {
	ID string `json:"id"`
}

// Validate ensures the params are well-formed.
func (p TaskIDParams) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("task id is required")
	}
	return nil
}

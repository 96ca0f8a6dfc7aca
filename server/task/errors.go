// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"
)

// StoreError wraps a storage backend failure with the operation and task
// it occurred on.
type StoreError struct {
	Op     string
	TaskID string
	Err    error
}

// NewStoreError creates a StoreError.
func NewStoreError(op, taskID string, err error) *StoreError {
	return &StoreError{Op: op, TaskID: taskID, Err: err}
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("task store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("task store %s %s: %v", e.Op, e.TaskID, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// ValidationError reports a malformed task rejected before storage.
type ValidationError struct {
	TaskID string
	Err    error
}

// NewValidationError creates a ValidationError.
func NewValidationError(taskID string, err error) *ValidationError {
	return &ValidationError{TaskID: taskID, Err: err}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("task %s failed validation: %v", e.TaskID, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

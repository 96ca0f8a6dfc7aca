// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2aserver

import (
	"errors"
	"fmt"
)

// TaskNotFoundError is returned when an operation references an unknown task.
type TaskNotFoundError struct {
	TaskID string
}

// Error implements the error interface.
func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// TaskNotCancelableError is returned when tasks/cancel targets a task that
// already reached a terminal state other than canceled.
type TaskNotCancelableError struct {
	TaskID string
	State  TaskState
}

// Error implements the error interface.
func (e *TaskNotCancelableError) Error() string {
	return fmt.Sprintf("task %s cannot be canceled in state %s", e.TaskID, e.State)
}

// InvalidTransitionError is returned when a status update would violate the
// task state machine.
type InvalidTransitionError struct {
	TaskID string
	From   TaskState
	To     TaskState
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("task %s: invalid transition from %s to %s", e.TaskID, e.From, e.To)
}

// HandlerNotFoundError is returned when a request names a task handler that
// is not registered.
type HandlerNotFoundError struct {
	Handler string
}

// Error implements the error interface.
func (e *HandlerNotFoundError) Error() string {
	if e.Handler == "" {
		return "no default task handler registered"
	}
	return fmt.Sprintf("task handler not found: %s", e.Handler)
}

// UnsupportedOperationError is returned for recognized but unimplemented
// operations.
type UnsupportedOperationError struct {
	Operation string
}

// Error implements the error interface.
func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation: %s", e.Operation)
}

// StreamingNotSupportedError is returned when a streaming method is invoked
// on a transport that cannot deliver notifications.
type StreamingNotSupportedError struct{}

// Error implements the error interface.
func (e *StreamingNotSupportedError) Error() string {
	return "streaming is not supported on this transport"
}

// ToJSONRPCError maps a domain error to its JSON-RPC error object. Unknown
// errors map to an internal error carrying the error text.
func ToJSONRPCError(err error) *JSONRPCError {
	var (
		notFound      *TaskNotFoundError
		notCancelable *TaskNotCancelableError
		badTransition *InvalidTransitionError
		noHandler     *HandlerNotFoundError
		unsupported   *UnsupportedOperationError
		noStreaming   *StreamingNotSupportedError
		rpcErr        *JSONRPCError
	)
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.As(err, &notFound):
		return &JSONRPCError{Code: CodeTaskNotFound, Message: "Task not found", Data: notFound.TaskID}
	case errors.As(err, &notCancelable):
		return &JSONRPCError{Code: CodeTaskNotCancelable, Message: "Task cannot be canceled", Data: notCancelable.TaskID}
	case errors.As(err, &badTransition):
		return &JSONRPCError{Code: CodeInternalError, Message: "Internal error", Data: badTransition.Error()}
	case errors.As(err, &noHandler):
		return &JSONRPCError{Code: CodeHandlerNotFound, Message: "Task handler not found", Data: noHandler.Handler}
	case errors.As(err, &unsupported):
		return &JSONRPCError{Code: CodeUnsupportedOperation, Message: "This operation is not supported", Data: unsupported.Operation}
	case errors.As(err, &noStreaming):
		return &JSONRPCError{Code: CodeStreamingNotSupported, Message: "Streaming is not supported"}
	default:
		return NewInternalError(err.Error())
	}
}

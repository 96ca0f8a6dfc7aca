// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2aserver

import (
	"errors"
	"fmt"
	"testing"
)

func TestToJSONRPCError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "task not found",
			err:      &TaskNotFoundError{TaskID: "t1"},
			wantCode: CodeTaskNotFound,
		},
		{
			name:     "task not cancelable",
			err:      &TaskNotCancelableError{TaskID: "t1", State: TaskStateCompleted},
			wantCode: CodeTaskNotCancelable,
		},
		{
			name:     "invalid transition maps to internal",
			err:      &InvalidTransitionError{TaskID: "t1", From: TaskStateCompleted, To: TaskStateWorking},
			wantCode: CodeInternalError,
		},
		{
			name:     "handler not found",
			err:      &HandlerNotFoundError{Handler: "nope"},
			wantCode: CodeHandlerNotFound,
		},
		{
			name:     "unsupported operation",
			err:      &UnsupportedOperationError{Operation: "tasks/pushNotification/set"},
			wantCode: CodeUnsupportedOperation,
		},
		{
			name:     "streaming not supported",
			err:      &StreamingNotSupportedError{},
			wantCode: CodeStreamingNotSupported,
		},
		{
			name:     "wrapped domain error",
			err:      fmt.Errorf("dispatch: %w", &TaskNotFoundError{TaskID: "t2"}),
			wantCode: CodeTaskNotFound,
		},
		{
			name:     "jsonrpc error passes through",
			err:      NewInvalidParamsError("bad"),
			wantCode: CodeInvalidParams,
		},
		{
			name:     "unknown error maps to internal",
			err:      errors.New("boom"),
			wantCode: CodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToJSONRPCError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("ToJSONRPCError(%v).Code = %d, want %d", tt.err, got.Code, tt.wantCode)
			}
			if got.Message == "" {
				t.Error("error message is empty")
			}
		})
	}
}

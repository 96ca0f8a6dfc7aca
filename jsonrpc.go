// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2aserver

import (
	"fmt"

	"github.com/go-json-experiment/json/jsontext"
)

// Version is the JSON-RPC protocol version.
const Version = "2.0"

// JSON-RPC method names.
const (
	MethodTasksSend          = "tasks/send"
	MethodTasksGet           = "tasks/get"
	MethodTasksCancel        = "tasks/cancel"
	MethodTasksSendSubscribe = "tasks/sendSubscribe"
	MethodTasksResubscribe   = "tasks/resubscribe"

	// MethodTasksEvent is the server-to-client notification method used
	// to deliver task lifecycle events on streaming transports.
	MethodTasksEvent = "tasks/event"
)

// JSONRPCRequest is a JSON-RPC 2.0 request or notification.
type JSONRPCRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id,omitzero"`
	Method  string         `json:"method"`
	Params  jsontext.Value `json:"params,omitzero"`
}

// IsNotification reports whether the request carries no ID and therefore
// expects no response.
func (r *JSONRPCRequest) IsNotification() bool {
	return r.ID == nil
}

// Validate checks the request envelope.
func (r *JSONRPCRequest) Validate() error {
	if r.JSONRPC != Version {
		return fmt.Errorf("invalid jsonrpc version: %q", r.JSONRPC)
	}
	if r.Method == "" {
		return fmt.Errorf("method is required")
	}
	return nil
}

// JSONRPCResponse is a JSON-RPC 2.0 response. Exactly one of Result and
// Error is set. ID is always emitted, null when the request ID could not
// be recovered.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Result  any           `json:"result,omitzero"`
	Error   *JSONRPCError `json:"error,omitzero"`
}

// NewResponse creates a success response for the given request ID. A nil
// result is emitted as an explicit null.
func NewResponse(id, result any) *JSONRPCResponse {
	if result == nil {
		result = jsontext.Value("null")
	}
	return &JSONRPCResponse{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse creates an error response for the given request ID.
func NewErrorResponse(id any, err *JSONRPCError) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: Version,
		ID:      id,
		Error:   err,
	}
}

// JSONRPCError is the error object of a JSON-RPC 2.0 response.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitzero"`
}

// Error implements the error interface.
func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Application error codes in the implementation-defined range.
const (
	CodeTaskNotFound          = -32001
	CodeTaskNotCancelable     = -32002
	CodeUnsupportedOperation  = -32004
	CodeStreamingNotSupported = -32005
	CodeHandlerNotFound       = -32006
)

// NewParseError creates a parse error (-32700).
func NewParseError(data any) *JSONRPCError {
	return &JSONRPCError{Code: CodeParseError, Message: "Invalid JSON payload", Data: data}
}

// NewInvalidRequestError creates an invalid request error (-32600).
func NewInvalidRequestError(data any) *JSONRPCError {
	return &JSONRPCError{Code: CodeInvalidRequest, Message: "Request payload validation error", Data: data}
}

// NewMethodNotFoundError creates a method not found error (-32601).
func NewMethodNotFoundError() *JSONRPCError {
	return &JSONRPCError{Code: CodeMethodNotFound, Message: "Method not found"}
}

// NewInvalidParamsError creates an invalid params error (-32602).
func NewInvalidParamsError(data any) *JSONRPCError {
	return &JSONRPCError{Code: CodeInvalidParams, Message: "Invalid parameters", Data: data}
}

// NewInternalError creates an internal error (-32603).
func NewInternalError(data any) *JSONRPCError {
	return &JSONRPCError{Code: CodeInternalError, Message: "Internal error", Data: data}
}

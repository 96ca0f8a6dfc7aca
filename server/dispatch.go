// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	a2aserver "github.com/go-a2a/a2a-server"
)

// MethodFunc handles one JSON-RPC method. The returned value becomes the
// response result; a returned error is mapped to a JSON-RPC error object.
type MethodFunc func(ctx context.Context, method string, params jsontext.Value) (any, error)

// Protocol routes JSON-RPC requests to registered method handlers. It is
// transport-agnostic: HTTP, WebSocket, and stdio all feed requests through
// Handle or HandleRaw.
type Protocol struct {
	mu      sync.RWMutex
	methods map[string]MethodFunc

	logger  *slog.Logger
	metrics *Metrics
}

// ProtocolOption configures a Protocol.
type ProtocolOption func(*Protocol)

// WithProtocolLogger sets the dispatcher's logger.
func WithProtocolLogger(logger *slog.Logger) ProtocolOption {
	return func(p *Protocol) {
		p.logger = logger
	}
}

// WithProtocolMetrics attaches request metrics.
func WithProtocolMetrics(metrics *Metrics) ProtocolOption {
	return func(p *Protocol) {
		p.metrics = metrics
	}
}

// NewProtocol creates an empty dispatcher.
func NewProtocol(opts ...ProtocolOption) *Protocol {
	p := &Protocol{
		methods: make(map[string]MethodFunc),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register binds a handler to a method name, replacing any previous
// binding.
func (p *Protocol) Register(method string, fn MethodFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.methods[method] = fn
}

// Methods returns the registered method names.
func (p *Protocol) Methods() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.methods))
	for name := range p.methods {
		names = append(names, name)
	}
	return names
}

// Handle dispatches one parsed request. It returns nil for notifications:
// their results and errors are swallowed. For calls it always returns a
// response, carrying either a result or an error object.
func (p *Protocol) Handle(ctx context.Context, req *a2aserver.JSONRPCRequest) *a2aserver.JSONRPCResponse {
	if err := req.Validate(); err != nil {
		p.metrics.RPCRequest(req.Method, "invalid_request")
		if req.IsNotification() {
			return nil
		}
		return a2aserver.NewErrorResponse(req.ID, a2aserver.NewInvalidRequestError(err.Error()))
	}

	p.mu.RLock()
	fn, ok := p.methods[req.Method]
	p.mu.RUnlock()
	if !ok {
		p.metrics.RPCRequest(req.Method, "method_not_found")
		p.logger.Warn("method not found", slog.String("method", req.Method))
		if req.IsNotification() {
			return nil
		}
		return a2aserver.NewErrorResponse(req.ID, a2aserver.NewMethodNotFoundError())
	}

	result, err := fn(ctx, req.Method, req.Params)
	if err != nil {
		p.metrics.RPCRequest(req.Method, "error")
		p.logger.Error("method failed",
			slog.String("method", req.Method),
			slog.Any("error", err))
		if req.IsNotification() {
			return nil
		}
		return a2aserver.NewErrorResponse(req.ID, a2aserver.ToJSONRPCError(err))
	}

	p.metrics.RPCRequest(req.Method, "ok")
	if req.IsNotification() {
		return nil
	}
	return a2aserver.NewResponse(req.ID, result)
}

// HandleRaw parses and dispatches one raw request payload. Malformed JSON
// yields a parse error response with a null ID; a payload whose params is
// present but not an object yields an invalid request response.
func (p *Protocol) HandleRaw(ctx context.Context, data []byte) *a2aserver.JSONRPCResponse {
	var req a2aserver.JSONRPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		p.metrics.RPCRequest("", "parse_error")
		return a2aserver.NewErrorResponse(nil, a2aserver.NewParseError(err.Error()))
	}
	if len(req.Params) > 0 && req.Params.Kind() != '{' {
		p.metrics.RPCRequest(req.Method, "invalid_request")
		if req.IsNotification() {
			return nil
		}
		return a2aserver.NewErrorResponse(req.ID, a2aserver.NewInvalidRequestError("params must be an object"))
	}
	return p.Handle(ctx, &req)
}

// unmarshalParams decodes method params into a typed value.
func unmarshalParams[T any](params jsontext.Value) (T, error) {
	var v T
	if len(params) == 0 {
		return v, a2aserver.NewInvalidParamsError("params are required")
	}
	if err := json.Unmarshal(params, &v); err != nil {
		return v, a2aserver.NewInvalidParamsError(fmt.Sprintf("decode params: %v", err))
	}
	return v, nil
}

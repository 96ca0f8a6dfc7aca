// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport exposes the JSON-RPC task methods over HTTP, SSE,
// WebSocket, and stdio. All transports dispatch through the same
// server.Protocol; they differ only in framing and event delivery.
package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"

	a2aserver "github.com/go-a2a/a2a-server"
	"github.com/go-a2a/a2a-server/server"
	"github.com/go-a2a/a2a-server/server/event"
)

// DefaultMaxBodyBytes caps JSON-RPC request bodies at 2 MiB.
const DefaultMaxBodyBytes = 2 << 20

// DefaultRequestTimeout bounds single request dispatch.
const DefaultRequestTimeout = 15 * time.Second

// Options configures the HTTP transport stack.
type Options struct {
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	SSEHeartbeat   time.Duration
	SSEMaxLifetime time.Duration
	Logger         *slog.Logger
}

func (o *Options) withDefaults() Options {
	opts := Options{}
	if o != nil {
		opts = *o
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.SSEHeartbeat <= 0 {
		opts.SSEHeartbeat = DefaultSSEHeartbeat
	}
	if opts.SSEMaxLifetime <= 0 {
		opts.SSEMaxLifetime = DefaultSSEMaxLifetime
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

// RPCHandler serves JSON-RPC over plain HTTP POST.
type RPCHandler struct {
	protocol *server.Protocol
	opts     Options
}

// NewRPCHandler creates the POST /rpc handler.
func NewRPCHandler(protocol *server.Protocol, opts *Options) *RPCHandler {
	return &RPCHandler{
		protocol: protocol,
		opts:     opts.withDefaults(),
	}
}

// ServeHTTP handles one JSON-RPC request. The handler path parameter, when
// present, supplies the handler for requests that name none.
func (h *RPCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r, h.opts.MaxBodyBytes)
	if !ok {
		return
	}
	if handler := r.PathValue("handler"); handler != "" {
		rewritten, err := defaultHandler(body, handler)
		if err != nil {
			writeResponse(w, h.opts.Logger, a2aserver.NewErrorResponse(nil, a2aserver.NewParseError(err.Error())))
			return
		}
		body = rewritten
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	defer cancel()

	resp := h.protocol.HandleRaw(ctx, body)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		http.Error(w, "request timed out", http.StatusGatewayTimeout)
		return
	}
	if resp == nil {
		// Notification: acknowledge with no content.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeResponse(w, h.opts.Logger, resp)
}

// readBody enforces the request body limit and rejects oversized payloads
// with 413 and non-object payloads with 422.
func readBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, "cannot read request body", http.StatusBadRequest)
		}
		return nil, false
	}
	if len(body) == 0 {
		http.Error(w, "empty request body", http.StatusUnprocessableEntity)
		return nil, false
	}
	return body, true
}

// defaultHandler rewrites the request params so the handler named in the
// URL fills in a missing params.handler. An explicit handler in the payload
// wins. Only send methods carry a handler.
func defaultHandler(body []byte, handler string) ([]byte, error) {
	var req a2aserver.JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	if req.Method != a2aserver.MethodTasksSend && req.Method != a2aserver.MethodTasksSendSubscribe {
		return body, nil
	}

	params := make(map[string]any)
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, err
		}
	}
	if existing, ok := params["handler"].(string); ok && existing != "" {
		return body, nil
	}
	params["handler"] = handler

	rewritten, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	req.Params = rewritten
	return json.Marshal(&req)
}

func writeResponse(w http.ResponseWriter, logger *slog.Logger, resp *a2aserver.JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Error("failed to marshal response", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(data); err != nil {
		logger.Debug("failed to write response", slog.Any("error", err))
	}
}

// NewMux assembles the full HTTP route tree: global and per-handler RPC
// endpoints, SSE subscription endpoints, the bus-wide event stream, the
// WebSocket endpoint, and a health probe.
func NewMux(protocol *server.Protocol, bus *event.Bus, opts *Options) *http.ServeMux {
	o := opts.withDefaults()
	rpc := NewRPCHandler(protocol, &o)
	sse := NewSSEHandler(protocol, bus, &o)
	ws := NewWSHandler(protocol, bus, &o)

	mux := http.NewServeMux()
	mux.Handle("POST /rpc", rpc)
	mux.Handle("POST /rpc/subscribe", sse)
	mux.Handle("GET /events", http.HandlerFunc(sse.ServeBusStream))
	mux.Handle("GET /ws", ws)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Per-handler route trees. The named handler fills a missing
	// params.handler. POST /{handler} is the streaming alias used by
	// clients that treat each handler as its own agent endpoint.
	mux.Handle("POST /{handler}/rpc", rpc)
	mux.Handle("POST /{handler}", sse)

	return mux
}

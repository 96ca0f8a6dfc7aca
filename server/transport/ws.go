// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/gorilla/websocket"

	a2aserver "github.com/go-a2a/a2a-server"
	"github.com/go-a2a/a2a-server/server"
	"github.com/go-a2a/a2a-server/server/event"
)

// WSHandler serves JSON-RPC over a WebSocket connection. Responses and
// tasks/event notifications for tasks subscribed on this connection are
// interleaved on the same socket, written from a single loop.
type WSHandler struct {
	protocol *server.Protocol
	bus      *event.Bus
	opts     Options
	upgrader websocket.Upgrader
}

// NewWSHandler creates the GET /ws handler.
func NewWSHandler(protocol *server.Protocol, bus *event.Bus, opts *Options) *WSHandler {
	o := opts.withDefaults()
	return &WSHandler{
		protocol: protocol,
		bus:      bus,
		opts:     o,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// ServeHTTP upgrades the connection and runs the message loop.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.opts.Logger.Warn("websocket upgrade failed",
			slog.String("remote", r.RemoteAddr),
			slog.Any("error", err))
		return
	}
	defer conn.Close()

	h.serve(r.Context(), conn)
}

func (h *WSHandler) serve(ctx context.Context, conn *websocket.Conn) {
	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	// Reader goroutine feeds inbound frames to the select loop so one
	// goroutine owns all writes.
	inbound := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(inbound)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case inbound <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Tasks whose events this connection wants.
	subscribed := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case <-readErr:
			return
		case data, ok := <-inbound:
			if !ok {
				return
			}
			if done := h.handleMessage(ctx, conn, data, subscribed); done {
				return
			}
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if _, want := subscribed[ev.GetTaskID()]; !want {
				continue
			}
			if err := writeWSMessage(conn, a2aserver.NewEventNotification(ev)); err != nil {
				h.opts.Logger.Debug("websocket event write failed", slog.Any("error", err))
				return
			}
			if ev.IsFinal() {
				delete(subscribed, ev.GetTaskID())
			}
		}
	}
}

// handleMessage dispatches one inbound frame and records any resulting
// task subscription. It returns true when the connection should close.
func (h *WSHandler) handleMessage(ctx context.Context, conn *websocket.Conn, data []byte, subscribed map[string]struct{}) bool {
	var req a2aserver.JSONRPCRequest
	streaming := false
	if err := json.Unmarshal(data, &req); err == nil {
		streaming = req.Method == a2aserver.MethodTasksSendSubscribe ||
			req.Method == a2aserver.MethodTasksResubscribe
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, h.opts.RequestTimeout)
	resp := h.protocol.HandleRaw(dispatchCtx, data)
	cancel()
	if resp == nil {
		return false
	}

	if streaming && resp.Error == nil {
		if taskID, terminal, err := subscriptionTask(resp, &req); err == nil && !terminal {
			subscribed[taskID] = struct{}{}
		}
	}

	if err := writeWSMessage(conn, resp); err != nil {
		h.opts.Logger.Debug("websocket response write failed", slog.Any("error", err))
		return true
	}
	return false
}

func writeWSMessage(conn *websocket.Conn, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

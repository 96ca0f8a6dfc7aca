// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"

	a2aserver "github.com/go-a2a/a2a-server"
	"github.com/go-a2a/a2a-server/internal/pool"
	"github.com/go-a2a/a2a-server/server"
	"github.com/go-a2a/a2a-server/server/event"
)

// DefaultSSEHeartbeat is the interval between comment keep-alive frames.
const DefaultSSEHeartbeat = 15 * time.Second

// DefaultSSEMaxLifetime bounds how long one SSE stream may stay open.
const DefaultSSEMaxLifetime = 10 * time.Minute

// SSEHandler serves tasks/sendSubscribe and tasks/resubscribe over
// server-sent events: the POST body carries the JSON-RPC request and the
// response is a stream of tasks/event notification frames for that task.
type SSEHandler struct {
	protocol *server.Protocol
	bus      *event.Bus
	opts     Options
}

// NewSSEHandler creates the streaming subscription handler.
func NewSSEHandler(protocol *server.Protocol, bus *event.Bus, opts *Options) *SSEHandler {
	return &SSEHandler{
		protocol: protocol,
		bus:      bus,
		opts:     opts.withDefaults(),
	}
}

// ServeHTTP handles one streaming subscription request. Non-streaming
// methods posted here fall back to a plain JSON response.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	var req a2aserver.JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeResponse(w, h.opts.Logger, a2aserver.NewErrorResponse(nil, a2aserver.NewParseError(err.Error())))
		return
	}

	switch req.Method {
	case a2aserver.MethodTasksSendSubscribe, a2aserver.MethodTasksSend, a2aserver.MethodTasksResubscribe:
	default:
		ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
		defer cancel()
		if resp := h.protocol.Handle(ctx, &req); resp != nil {
			writeResponse(w, h.opts.Logger, resp)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeResponse(w, h.opts.Logger,
			a2aserver.NewErrorResponse(req.ID, a2aserver.ToJSONRPCError(&a2aserver.StreamingNotSupportedError{})))
		return
	}

	// Subscribe before dispatching so the submitted event is not missed.
	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	dispatchCtx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	resp := h.protocol.Handle(dispatchCtx, &req)
	cancel()
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if resp.Error != nil {
		writeResponse(w, h.opts.Logger, resp)
		return
	}

	taskID, terminal, err := subscriptionTask(resp, &req)
	if err != nil {
		writeResponse(w, h.opts.Logger, a2aserver.NewErrorResponse(req.ID, a2aserver.NewInternalError(err.Error())))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// The first frame is the JSON-RPC response itself so the client
	// learns its task ID.
	if err := writeSSEFrame(w, flusher, resp); err != nil {
		return
	}
	if terminal {
		return
	}

	h.streamEvents(r.Context(), w, flusher, sub, taskID)
}

// ServeBusStream streams every published event. It is the firehose used by
// dashboards and tests rather than task-scoped clients.
func (h *SSEHandler) ServeBusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusNotImplemented)
		return
	}

	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.streamEvents(r.Context(), w, flusher, sub, "")
}

// streamEvents forwards bus events as SSE frames until the stream closes.
// A non-empty taskID filters to that task and ends the stream on its final
// event.
func (h *SSEHandler) streamEvents(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sub chan a2aserver.Event, taskID string) {
	heartbeat := time.NewTicker(h.opts.SSEHeartbeat)
	defer heartbeat.Stop()
	lifetime := time.NewTimer(h.opts.SSEMaxLifetime)
	defer lifetime.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-lifetime.C:
			h.opts.Logger.Debug("sse stream reached max lifetime", slog.String("task_id", taskID))
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if taskID != "" && ev.GetTaskID() != taskID {
				continue
			}
			if err := writeSSEFrame(w, flusher, a2aserver.NewEventNotification(ev)); err != nil {
				return
			}
			if taskID != "" && ev.IsFinal() {
				return
			}
		}
	}
}

// subscriptionTask extracts the task ID to stream and whether it is
// already terminal from the dispatch result.
func subscriptionTask(resp *a2aserver.JSONRPCResponse, req *a2aserver.JSONRPCRequest) (string, bool, error) {
	if t, ok := resp.Result.(*a2aserver.Task); ok {
		return t.ID, t.Status.State.Terminal(), nil
	}
	// tasks/resubscribe acknowledges with null; the task ID comes from
	// the request params.
	var p a2aserver.TaskIDParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return "", false, fmt.Errorf("cannot determine task to stream: %w", err)
	}
	if p.ID == "" {
		return "", false, fmt.Errorf("cannot determine task to stream")
	}
	return p.ID, false, nil
}

func writeSSEFrame(w http.ResponseWriter, flusher http.Flusher, payload any) error {
	buf := pool.Bytes.Get()
	defer pool.Bytes.Put(buf)

	buf.WriteString("data: ")
	if err := json.MarshalWrite(buf, payload); err != nil {
		return err
	}
	buf.WriteString("\n\n")
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

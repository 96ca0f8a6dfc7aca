// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/go-json-experiment/json"

	"github.com/go-a2a/a2a-server/internal/pool"
	"github.com/go-a2a/a2a-server/server"
)

// StdioTransport serves line-delimited JSON-RPC: one request per input
// line, at most one response per output line. It never touches the event
// bus; clients that need streaming use SSE or WebSocket. It is the
// transport used when the server runs as a child process of its client.
type StdioTransport struct {
	protocol *server.Protocol
	in       io.Reader
	out      io.Writer
	logger   *slog.Logger
}

// NewStdioTransport creates a stdio transport reading from in and writing
// to out.
func NewStdioTransport(protocol *server.Protocol, in io.Reader, out io.Writer, logger *slog.Logger) *StdioTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &StdioTransport{
		protocol: protocol,
		in:       in,
		out:      out,
		logger:   logger,
	}
}

// Run serves until the input stream closes or the context is canceled.
func (t *StdioTransport) Run(ctx context.Context) error {
	inbound := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(inbound)
		scanner := bufio.NewScanner(t.in)
		scanner.Buffer(make([]byte, 0, 64*1024), int(DefaultMaxBodyBytes))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case inbound <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-inbound:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if err := t.handleLine(ctx, line); err != nil {
				return err
			}
		}
	}
}

func (t *StdioTransport) handleLine(ctx context.Context, line string) error {
	dispatchCtx, cancel := context.WithTimeout(ctx, DefaultRequestTimeout)
	resp := t.protocol.HandleRaw(dispatchCtx, []byte(line))
	cancel()
	// Notifications produce no output line.
	if resp == nil {
		return nil
	}
	return t.writeLine(resp)
}

func (t *StdioTransport) writeLine(payload any) error {
	buf := pool.Bytes.Get()
	defer pool.Bytes.Put(buf)

	if err := json.MarshalWrite(buf, payload); err != nil {
		t.logger.Error("failed to marshal output line", slog.Any("error", err))
		return nil
	}
	buf.WriteByte('\n')
	if _, err := t.out.Write(buf.Bytes()); err != nil {
		return err
	}
	return nil
}

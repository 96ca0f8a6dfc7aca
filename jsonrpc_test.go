// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2aserver

import (
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
)

func TestJSONRPCRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     JSONRPCRequest
		wantErr bool
	}{
		{
			name: "valid request",
			req:  JSONRPCRequest{JSONRPC: Version, ID: "1", Method: MethodTasksGet},
		},
		{
			name:    "wrong version",
			req:     JSONRPCRequest{JSONRPC: "1.0", ID: "1", Method: MethodTasksGet},
			wantErr: true,
		},
		{
			name:    "missing method",
			req:     JSONRPCRequest{JSONRPC: Version, ID: "1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJSONRPCRequestIsNotification(t *testing.T) {
	req := &JSONRPCRequest{JSONRPC: Version, Method: MethodTasksEvent}
	if !req.IsNotification() {
		t.Error("request without ID should be a notification")
	}
	req.ID = 7
	if req.IsNotification() {
		t.Error("request with ID should not be a notification")
	}
}

func TestJSONRPCResponseMarshal(t *testing.T) {
	resp := NewResponse("req-1", map[string]string{"ok": "yes"})
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"id":"req-1"`) {
		t.Errorf("response missing id: %s", s)
	}
	if strings.Contains(s, `"error"`) {
		t.Errorf("success response carries error field: %s", s)
	}
}

func TestJSONRPCErrorResponseNullID(t *testing.T) {
	resp := NewErrorResponse(nil, NewParseError("bad json"))
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"id":null`) {
		t.Errorf("error response must emit null id: %s", s)
	}
	if !strings.Contains(s, `-32700`) {
		t.Errorf("error response missing parse error code: %s", s)
	}
}

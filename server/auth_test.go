// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

func signToken(t *testing.T, key []byte, expires time.Time) string {
	t.Helper()
	token, err := jwt.NewBuilder().
		Issuer("a2a-test").
		IssuedAt(time.Now()).
		Expiration(expires).
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), key))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return string(signed)
}

func newAuthedServer(t *testing.T, key []byte) *httptest.Server {
	t.Helper()
	auth := NewBearerAuth(key, nil)
	ts := httptest.NewServer(auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
	t.Cleanup(ts.Close)
	return ts
}

func TestBearerAuthAcceptsValidToken(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	ts := newAuthedServer(t, key)

	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, key, time.Now().Add(time.Hour)))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestBearerAuthRejectsMissingToken(t *testing.T) {
	ts := newAuthedServer(t, []byte("0123456789abcdef0123456789abcdef"))

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") != "Bearer" {
		t.Errorf("WWW-Authenticate = %q, want Bearer", resp.Header.Get("WWW-Authenticate"))
	}
}

func TestBearerAuthRejectsWrongKey(t *testing.T) {
	ts := newAuthedServer(t, []byte("0123456789abcdef0123456789abcdef"))

	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, []byte("wrong-key-wrong-key-wrong-key-00"), time.Now().Add(time.Hour)))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestBearerAuthRejectsExpiredToken(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	ts := newAuthedServer(t, key)

	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, key, time.Now().Add(-time.Hour)))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestBearerAuthDisabledWithEmptyKey(t *testing.T) {
	auth := NewBearerAuth(nil, nil)
	if auth != nil {
		t.Fatal("NewBearerAuth(nil key) should return nil")
	}

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if got := auth.Middleware(handler); got == nil {
		t.Error("nil BearerAuth Middleware should pass handlers through")
	}
}

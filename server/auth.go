// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// BearerAuth validates HMAC-signed JWT bearer tokens on incoming HTTP
// requests. A nil *BearerAuth disables authentication.
type BearerAuth struct {
	key    []byte
	logger *slog.Logger
}

// NewBearerAuth creates a BearerAuth validating tokens signed with the
// given HS256 key. Returns nil when the key is empty, disabling auth.
func NewBearerAuth(key []byte, logger *slog.Logger) *BearerAuth {
	if len(key) == 0 {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BearerAuth{key: key, logger: logger}
}

// Middleware wraps next with bearer token validation. Requests without a
// valid token are rejected with 401.
func (a *BearerAuth) Middleware(next http.Handler) http.Handler {
	if a == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		if _, err := jwt.Parse([]byte(token), jwt.WithKey(jwa.HS256(), a.key), jwt.WithValidate(true)); err != nil {
			a.logger.Warn("rejected bearer token",
				slog.String("remote", r.RemoteAddr),
				slog.Any("error", err))
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

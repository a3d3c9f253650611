// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package rpc

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

func doRPC(t *testing.T, s *Server, body, bearer string) response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.Handler(nil).ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestDispatchUnknownMethod(t *testing.T) {
	s := NewServer()
	resp := doRPC(t, s, `{"jsonrpc":"2.0","id":1,"method":"mazze_nope"}`, "")
	require.NotNil(t, resp.Error)
	require.Equal(t, -32601, resp.Error.Code)
}

func TestDispatchRegisteredMethod(t *testing.T) {
	s := NewServer()
	s.RegisterMethod("mazze_echo", func(params json.RawMessage) (interface{}, error) {
		return "ok", nil
	})
	resp := doRPC(t, s, `{"jsonrpc":"2.0","id":1,"method":"mazze_echo"}`, "")
	require.Nil(t, resp.Error)
	require.Equal(t, "ok", resp.Result)
}

func TestDispatchHandlerError(t *testing.T) {
	s := NewServer()
	s.RegisterMethod("mazze_fail", func(params json.RawMessage) (interface{}, error) {
		return nil, errors.New("boom")
	})
	resp := doRPC(t, s, `{"jsonrpc":"2.0","id":1,"method":"mazze_fail"}`, "")
	require.NotNil(t, resp.Error)
	require.Equal(t, -32000, resp.Error.Code)
	require.Contains(t, resp.Error.Message, "boom")
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	s := NewServer()
	s.RegisterMethod("test_thing", func(params json.RawMessage) (interface{}, error) {
		return "secret", nil
	})
	s.RequireAuth("test")

	secretPath := writeSecret(t, "topsecret")
	require.NoError(t, s.LoadJWTSecret(secretPath))

	resp := doRPC(t, s, `{"jsonrpc":"2.0","id":1,"method":"test_thing"}`, "")
	require.NotNil(t, resp.Error)
	require.Equal(t, -32001, resp.Error.Code)
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	s := NewServer()
	s.RegisterMethod("test_thing", func(params json.RawMessage) (interface{}, error) {
		return "secret", nil
	})
	s.RequireAuth("test")

	secret := "topsecret"
	secretPath := writeSecret(t, secret)
	require.NoError(t, s.LoadJWTSecret(secretPath))

	token := signToken(t, secret)
	resp := doRPC(t, s, `{"jsonrpc":"2.0","id":1,"method":"test_thing"}`, token)
	require.Nil(t, resp.Error)
	require.Equal(t, "secret", resp.Result)
}

func TestNamespaceOf(t *testing.T) {
	require.Equal(t, "mazze", namespaceOf("mazze_blockNumber"))
	require.Equal(t, "test", namespaceOf("test_generateOneBlock"))
	require.Equal(t, "noUnderscore", namespaceOf("noUnderscore"))
}

func TestWatchJWTSecretReloadsOnWrite(t *testing.T) {
	s := NewServer()
	secretPath := writeSecret(t, "before")
	require.NoError(t, s.LoadJWTSecret(secretPath))
	require.Equal(t, "before", s.jwtSecret.load())

	require.NoError(t, s.WatchJWTSecret(secretPath))
	require.NoError(t, os.WriteFile(secretPath, []byte("after"), 0o600))

	require.Eventually(t, func() bool {
		return s.jwtSecret.load() == "after"
	}, 2_000_000_000, 10_000_000)
}

func writeSecret(t *testing.T, secret string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jwt.secret")
	require.NoError(t, os.WriteFile(path, []byte(secret), 0o600))
	return path
}

func signToken(t *testing.T, secret string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{})
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

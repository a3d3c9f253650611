// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package stratum

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, secret string, onSubmit func(SubmitResult)) (*Server, string) {
	t.Helper()
	s := NewServer(secret, nil, onSubmit)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.handleConn(conn)
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return s, ln.Addr().String()
}

func dialLine(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, bufio.NewReader(conn)
}

func TestSubscribeWithoutSecretSucceeds(t *testing.T) {
	_, addr := startServer(t, "", nil)
	conn, r := dialLine(t, addr)

	req := map[string]interface{}{"id": 1, "method": "mining.subscribe", "params": []interface{}{"worker1"}}
	enc := json.NewEncoder(conn)
	require.NoError(t, enc.Encode(req))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := r.ReadBytes('\n')
	require.NoError(t, err)

	var resp wireResponse
	require.NoError(t, json.Unmarshal(line, &resp))
	require.Equal(t, true, resp.Result)
}

func TestSubscribeWithWrongSecretFails(t *testing.T) {
	_, addr := startServer(t, "topsecret", nil)
	conn, r := dialLine(t, addr)

	req := map[string]interface{}{"id": 1, "method": "mining.subscribe", "params": []interface{}{"worker1", "wrong"}}
	enc := json.NewEncoder(conn)
	require.NoError(t, enc.Encode(req))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := r.ReadBytes('\n')
	require.NoError(t, err)

	var resp wireResponse
	require.NoError(t, json.Unmarshal(line, &resp))
	require.Equal(t, false, resp.Result)
}

func TestSubmitInvokesOnSubmitCallback(t *testing.T) {
	got := make(chan SubmitResult, 1)
	_, addr := startServer(t, "", func(r SubmitResult) { got <- r })
	conn, r := dialLine(t, addr)

	req := map[string]interface{}{
		"id": 2, "method": "mining.submit",
		"params": []interface{}{"worker1", "job-7", "0x2a", "0xdeadbeef"},
	}
	enc := json.NewEncoder(conn)
	require.NoError(t, enc.Encode(req))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := r.ReadBytes('\n')
	require.NoError(t, err)

	var resp wireResponse
	require.NoError(t, json.Unmarshal(line, &resp))
	require.Empty(t, resp.Error)

	select {
	case result := <-got:
		require.Equal(t, "worker1", result.WorkerName)
		require.Equal(t, "job-7", result.JobID)
		require.Equal(t, uint64(42), result.Nonce)
	case <-time.After(2 * time.Second):
		t.Fatal("onSubmit was never invoked")
	}
}

func TestSubmitRejectsTooFewParams(t *testing.T) {
	_, err := parseSubmit(nil)
	require.Error(t, err)
}

func TestHexToUint64(t *testing.T) {
	require.Equal(t, uint64(0x2a), hexToUint64("0x2a"))
	require.Equal(t, uint64(0), hexToUint64(""))
}

func TestUnknownMethodReportsError(t *testing.T) {
	_, addr := startServer(t, "", nil)
	conn, r := dialLine(t, addr)

	req := map[string]interface{}{"id": 1, "method": "mining.bogus", "params": []interface{}{}}
	enc := json.NewEncoder(conn)
	require.NoError(t, enc.Encode(req))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := r.ReadBytes('\n')
	require.NoError(t, err)

	var resp wireResponse
	require.NoError(t, json.Unmarshal(line, &resp))
	require.Contains(t, resp.Error, "unknown method")
}

func TestNewJobIDsAreUnique(t *testing.T) {
	require.NotEqual(t, NewJobID(), NewJobID())
}

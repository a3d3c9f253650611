// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.
//
// The mazze-core library is free software: you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// The mazze-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the mazze-core library. If not, see <http://www.gnu.org/licenses/>.

// Package stratum is the line-delimited JSON-RPC mining server spec §6
// names (stratum_address/stratum_port/stratum_secret/num_threads),
// grounded on original_source's stratum_client.rs wire shape: a server
// sends "mining.notify" with a fresh job id for each new work item and
// receives "mining.subscribe"/"mining.submit" requests back over the
// same newline-framed connection.
package stratum

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/log"
	"github.com/mazzelabs/mazze-core/internal/mazzeiface"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// Job is one proof-of-work problem handed to subscribed miners.
type Job struct {
	ID          string
	BlockHeight uint64
	ParentHash  common.Hash
	Difficulty  uint64
}

// SubmitResult is what a worker's mining.submit produces once the
// consumer (ConsensusGraph/SyncGraph wiring) has validated the header.
type SubmitResult struct {
	WorkerName string
	JobID      string
	Nonce      uint64
	Header     *types.Header
}

// Server accepts TCP connections, authenticates each with the configured
// secret, and fan-outs Notify(job) to every subscribed worker.
type Server struct {
	secret   string
	pow      mazzeiface.PoWVerifier
	onSubmit func(SubmitResult)

	mu      sync.Mutex
	clients map[string]*clientConn
	ln      net.Listener
}

type clientConn struct {
	id   string
	conn net.Conn
	enc  *json.Encoder
}

type wireRequest struct {
	ID     interface{}       `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type wireResponse struct {
	ID     interface{} `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewServer constructs a Stratum server; onSubmit is invoked once per
// accepted mining.submit with the worker-asserted solution, letting the
// caller feed it into SyncGraph/ConsensusGraph the same way a
// network-relayed block would be.
func NewServer(secret string, pow mazzeiface.PoWVerifier, onSubmit func(SubmitResult)) *Server {
	return &Server{
		secret:   secret,
		pow:      pow,
		onSubmit: onSubmit,
		clients:  make(map[string]*clientConn),
	}
}

// ListenAndServe binds addr and accepts connections until the listener
// is closed via Close.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	log.Info("stratum: listening", "addr", addr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) handleConn(conn net.Conn) {
	id := uuid.NewString()
	c := &clientConn{id: id, conn: conn, enc: json.NewEncoder(conn)}

	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.clients, id)
		s.mu.Unlock()
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var req wireRequest
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			c.enc.Encode(wireResponse{Error: "invalid json"})
			continue
		}
		s.handleRequest(c, req)
	}
}

func (s *Server) handleRequest(c *clientConn, req wireRequest) {
	switch req.Method {
	case "mining.subscribe":
		ok := s.authorize(req.Params)
		if !ok {
			c.enc.Encode(wireResponse{ID: req.ID, Result: false})
			return
		}
		s.mu.Lock()
		s.clients[c.id] = c
		s.mu.Unlock()
		c.enc.Encode(wireResponse{ID: req.ID, Result: true})

	case "mining.submit":
		result, err := parseSubmit(req.Params)
		if err != nil {
			c.enc.Encode(wireResponse{ID: req.ID, Error: err.Error()})
			return
		}
		if s.onSubmit != nil {
			s.onSubmit(result)
		}
		c.enc.Encode(wireResponse{ID: req.ID, Result: true})

	default:
		c.enc.Encode(wireResponse{ID: req.ID, Error: "unknown method: " + req.Method})
	}
}

func (s *Server) authorize(params []json.RawMessage) bool {
	if s.secret == "" {
		return true
	}
	if len(params) < 2 {
		return false
	}
	var secret string
	if err := json.Unmarshal(params[1], &secret); err != nil {
		return false
	}
	return secret == s.secret
}

// parseSubmit mirrors stratum_client.rs's submit_share params order:
// [worker_name, job_id (block height as string), nonce hex, pow hash hex].
func parseSubmit(params []json.RawMessage) (SubmitResult, error) {
	if len(params) < 4 {
		return SubmitResult{}, errors.New("mining.submit requires 4 params")
	}
	var workerName, jobID, nonceHex, powHashHex string
	if err := json.Unmarshal(params[0], &workerName); err != nil {
		return SubmitResult{}, err
	}
	if err := json.Unmarshal(params[1], &jobID); err != nil {
		return SubmitResult{}, err
	}
	if err := json.Unmarshal(params[2], &nonceHex); err != nil {
		return SubmitResult{}, err
	}
	if err := json.Unmarshal(params[3], &powHashHex); err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{
		WorkerName: workerName,
		JobID:      jobID,
		Nonce:      hexToUint64(nonceHex),
	}, nil
}

func hexToUint64(s string) uint64 {
	b := common.FromHex(s)
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// Notify pushes a fresh job to every subscribed worker as a
// "mining.notify" request, the server-side half of stratum_client.rs's
// handle_job_notification.
func (s *Server) Notify(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notification := map[string]interface{}{
		"id":     nil,
		"method": "mining.notify",
		"params": []interface{}{job.ID, job.BlockHeight, job.ParentHash.Hex(), job.Difficulty},
	}
	for id, c := range s.clients {
		if err := c.enc.Encode(notification); err != nil {
			log.Warn("stratum: dropping worker after notify failure", "worker", id, "err", err)
			c.conn.Close()
			delete(s.clients, id)
		}
	}
}

// NewJobID mints a fresh job identifier; a new uuid per job keeps
// mining.submit's job id unambiguous across a reorg that reuses the same
// block height for a different job.
func NewJobID() string { return uuid.NewString() }

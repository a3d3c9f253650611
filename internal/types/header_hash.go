// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package types

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/mazzelabs/mazze-core/internal/common"
)

// headerDigest is a deterministic stand-in for the real header-hashing
// algorithm (out of scope per spec §1 Non-goals: wire protocol framing is
// a black box). It only needs to be injective enough over the fields the
// consensus graph inspects for the DAG invariants and test scenarios to
// hold, and stable across process restarts given the same header bytes.
func headerDigest(h *Header) common.Hash {
	hasher := sha256.New()
	hasher.Write(h.ParentHash.Bytes())
	for _, r := range h.Referees {
		hasher.Write(r.Bytes())
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h.Height)
	hasher.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], h.Timestamp)
	hasher.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], h.Nonce)
	hasher.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], h.GasLimit)
	hasher.Write(buf[:])
	if h.Difficulty != nil {
		hasher.Write(h.Difficulty.Bytes())
	}
	hasher.Write(h.Author.Bytes())
	hasher.Write(h.Deferred.StateRoot.Bytes())
	hasher.Write(h.Deferred.ReceiptsRoot.Bytes())
	hasher.Write(h.Deferred.LogsBloomHash.Bytes())
	for _, c := range h.Custom {
		hasher.Write(c)
	}
	return common.BytesToHash(hasher.Sum(nil))
}

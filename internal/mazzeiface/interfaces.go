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

// Package mazzeiface names every contract the core consumes from a
// component declared out of scope by spec §1: the RandomX-style PoW
// verifier, the peer-to-peer network, the KV/trie storage backend, and
// account signing. None of these are implemented here beyond what lets
// the core's own tests exercise a fake.
package mazzeiface

import (
	"math/big"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// PoWVerifier checks a header's proof-of-work quality and the protocol's
// difficulty schedule. The RandomX-style hash algorithm itself is a black
// box; SyncGraph calls VerifyQuality, and ConsensusGraph calls
// ExpectedDifficulty and IsTimerBlock.
type PoWVerifier interface {
	// VerifyQuality reports whether header's nonce/mix satisfies its
	// stated difficulty, and returns the raw quality score used by the
	// consensus graph's timer-chain designation and reward eligibility
	// check (spec §4.3 step 5).
	VerifyQuality(header *types.Header) (quality uint64, ok bool)

	// ExpectedDifficulty returns the difficulty a header at the given
	// parent must carry under the protocol's adjustment schedule.
	ExpectedDifficulty(parent *types.Header) *big.Int

	// IsTimerBlock reports whether a header's PoW quality clears the
	// timer-chain designation threshold (spec §4.2 Timer chain).
	IsTimerBlock(quality uint64) bool
}

// Network is the peer-to-peer transport the core relays admission
// results through. Wire framing is entirely out of scope; the core only
// needs "tell peers about these hashes" and "this peer misbehaved".
type Network interface {
	RelayBlockHashes(hashes []common.Hash)
	PunishPeer(peerID string, reason error)
}

// StorageBackend is the KV + trie persistence layer behind
// BlockDataManager and the executor's State views. Trie internals are a
// Non-goal; this interface only exposes the byte-oriented operations the
// core actually calls.
type StorageBackend interface {
	Get(key []byte) ([]byte, bool, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Close() error
}

// StateView is the read/write surface ConsensusExecutor drives a State
// through while executing one epoch. Account model, storage slots, and
// VM opcodes are black boxes; only the operations below are modeled.
type StateView interface {
	AddBalance(addr common.Address, amount *big.Int)
	GetBalance(addr common.Address) *big.Int
	// IntermediateRoot commits pending mutations and returns the
	// resulting state root.
	IntermediateRoot() common.Hash
	// Snapshot/RevertToSnapshot back a single transaction's apply/fail.
	Snapshot() int
	RevertToSnapshot(id int)
}

// AccountSigner recovers/verifies the author of a signed artifact. No
// SPEC_FULL component drives real signature verification (PoW, not
// signatures, secures block authorship); this interface exists so a
// fake can be substituted in tests that assert on Header.Author.
type AccountSigner interface {
	Recover(digest common.Hash, sig []byte) (common.Address, error)
}

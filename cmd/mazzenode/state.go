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

package main

import (
	"crypto/sha256"
	"math/big"
	"sync"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// placeholderPoW accepts every header's stated quality unconditionally.
// The real RandomX-style verifier the protocol requires is out of scope
// for this module (spec Non-goals); wiring a production mazzenode against
// real miners means replacing this type with one that calls out to the
// mazze-miner verifier, not changing anything else in this file.
type placeholderPoW struct{}

func (placeholderPoW) VerifyQuality(h *types.Header) (uint64, bool) {
	return h.PowQuality, true
}

func (placeholderPoW) ExpectedDifficulty(parent *types.Header) *big.Int {
	if parent == nil || parent.Difficulty == nil {
		return big.NewInt(1)
	}
	return new(big.Int).Set(parent.Difficulty)
}

func (placeholderPoW) IsTimerBlock(quality uint64) bool {
	return quality%10 == 0
}

// processState is the production StateFactory's StateView: an in-memory
// balance table keyed by content hash, standing in for the real
// account/trie model (out of scope per spec Non-goals) the same way
// internal/simulated.FakeState does for tests.
type processState struct {
	mu        sync.Mutex
	root      common.Hash
	balances  map[common.Address]*big.Int
	snapshots []map[common.Address]*big.Int
}

func newProcessState(root common.Hash) *processState {
	return &processState{root: root, balances: make(map[common.Address]*big.Int)}
}

func (s *processState) AddBalance(addr common.Address, amount *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.balances[addr]
	if !ok {
		cur = new(big.Int)
	}
	s.balances[addr] = new(big.Int).Add(cur, amount)
}

func (s *processState) GetBalance(addr common.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (s *processState) IntermediateRoot() common.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := sha256.New()
	h.Write(s.root.Bytes())
	for addr, bal := range s.balances {
		h.Write(addr.Bytes())
		h.Write(bal.Bytes())
	}
	var out common.Hash
	copy(out[:], h.Sum(nil))
	return out
}

func (s *processState) Snapshot() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[common.Address]*big.Int, len(s.balances))
	for k, v := range s.balances {
		cp[k] = new(big.Int).Set(v)
	}
	s.snapshots = append(s.snapshots, cp)
	return len(s.snapshots) - 1
}

func (s *processState) RevertToSnapshot(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.snapshots) {
		return
	}
	s.balances = s.snapshots[id]
	s.snapshots = s.snapshots[:id]
}

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

package simulated

import (
	"crypto/sha256"
	"math/big"
	"sync"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// FakePoW always accepts a header and designates every tenth quality
// value as a timer block, enough determinism for SyncGraph/ConsensusGraph
// tests to exercise the timer chain without a real RandomX verifier.
type FakePoW struct{}

func (FakePoW) VerifyQuality(h *types.Header) (uint64, bool) {
	return h.PowQuality, true
}

func (FakePoW) ExpectedDifficulty(parent *types.Header) *big.Int {
	if parent == nil || parent.Difficulty == nil {
		return big.NewInt(1)
	}
	return new(big.Int).Set(parent.Difficulty)
}

func (FakePoW) IsTimerBlock(quality uint64) bool {
	return quality%10 == 0
}

// FakeState is a minimal in-memory mazzeiface.StateView: balances in a
// map, snapshots as map copies, and a content hash standing in for the
// real trie root (out of scope per spec Non-goals).
type FakeState struct {
	mu        sync.Mutex
	root      common.Hash
	balances  map[common.Address]*big.Int
	snapshots []map[common.Address]*big.Int
}

func NewFakeState(root common.Hash) *FakeState {
	return &FakeState{root: root, balances: make(map[common.Address]*big.Int)}
}

func (s *FakeState) AddBalance(addr common.Address, amount *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.balances[addr]
	if !ok {
		cur = new(big.Int)
	}
	s.balances[addr] = new(big.Int).Add(cur, amount)
}

func (s *FakeState) GetBalance(addr common.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (s *FakeState) IntermediateRoot() common.Hash {
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

func (s *FakeState) Snapshot() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[common.Address]*big.Int, len(s.balances))
	for k, v := range s.balances {
		cp[k] = new(big.Int).Set(v)
	}
	s.snapshots = append(s.snapshots, cp)
	return len(s.snapshots) - 1
}

func (s *FakeState) RevertToSnapshot(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.snapshots) {
		return
	}
	s.balances = s.snapshots[id]
	s.snapshots = s.snapshots[:id]
}

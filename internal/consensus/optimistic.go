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

package consensus

import "github.com/mazzelabs/mazze-core/internal/common"

// TryNextOptimisticEpoch implements the executor's "ask the consensus
// inner (under try_write to avoid deadlock) for an optimistic execution
// task" (spec §4.3 Task queue): the next main-chain height above
// afterHeight, reported only if the lock is uncontended so an idle
// executor never blocks a concurrent block activation.
func (g *Graph) TryNextOptimisticEpoch(afterHeight uint64) (epochHash common.Hash, blockHashes []common.Hash, height uint64, ok bool) {
	if !g.mu.TryLock() {
		return common.Hash{}, nil, 0, false
	}
	defer g.mu.Unlock()

	target := afterHeight + 1
	relIdx := int(target - g.eraGenesisHeightV)
	if relIdx < 0 || relIdx >= len(g.mainChain) {
		return common.Hash{}, nil, 0, false
	}
	mainIdx := g.mainChain[relIdx]
	n := g.arena.get(mainIdx)

	ordered := g.topoOrderEpoch(mainIdx, n.BlocksetInOwnEpoch)
	hashes := make([]common.Hash, len(ordered))
	for i, idx := range ordered {
		hashes[i] = g.arena.get(idx).Hash
	}
	return n.Hash, hashes, n.Height, true
}

// EpochDifficultyAt returns the PoW difficulty threshold blocks in the
// epoch at height must clear to earn a reward (spec §4.3 step 5).
func (g *Graph) EpochDifficultyAt(height uint64) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	relIdx := int(height - g.eraGenesisHeightV)
	if relIdx < 0 || relIdx >= len(g.mainChain) {
		return 0
	}
	n := g.arena.get(g.mainChain[relIdx])
	if n.Header.Difficulty == nil {
		return 0
	}
	return n.Header.Difficulty.Uint64()
}

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

// Package availability implements the StateAvailabilityBoundary of spec
// §3/§5/§6/§8: the contiguous height range for which committed state can
// be served, held under a reader-writer lock for short reads by RPC and
// short writes by the executor.
package availability

import (
	"sync"

	"github.com/mazzelabs/mazze-core/internal/common"
)

// Boundary tracks [LowerBound, UpperBound] together with the main-chain
// hash window inside it, so RPC reads of "is this height servable" never
// block on the executor for longer than a map lookup.
type Boundary struct {
	mu              sync.RWMutex
	lowerBound      uint64
	upperBound      uint64
	bestExecuted    uint64
	mainChainHashes map[uint64]common.Hash
}

func New(lowerBound uint64) *Boundary {
	return &Boundary{
		lowerBound:      lowerBound,
		upperBound:      lowerBound,
		bestExecuted:    lowerBound,
		mainChainHashes: make(map[uint64]common.Hash),
	}
}

// Bounds returns (lower, upper, bestExecuted) under a read lock. Invariant
// (spec §8 #5): lower <= upper <= bestExecuted.
func (b *Boundary) Bounds() (lower, upper, bestExecuted uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lowerBound, b.upperBound, b.bestExecuted
}

// HashAt returns the main-chain hash recorded at height within the
// boundary window, or false if height falls outside [lower, upper].
func (b *Boundary) HashAt(height uint64) (common.Hash, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if height < b.lowerBound || height > b.upperBound {
		return common.Hash{}, false
	}
	h, ok := b.mainChainHashes[height]
	return h, ok
}

// AdvanceUpper extends the servable window after an epoch commits
// (spec §4.3 step 9). Monotonic except across an explicit Reset from
// checkpoint formation (spec §8 Laws, Monotonicity).
func (b *Boundary) AdvanceUpper(height uint64, hash common.Hash) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if height > b.upperBound {
		b.upperBound = height
	}
	if height > b.bestExecuted {
		b.bestExecuted = height
	}
	b.mainChainHashes[height] = hash
}

// Reset re-anchors the boundary at a checkpoint's new era genesis height,
// the one explicitly-allowed non-monotonic transition (spec §8 Laws).
func (b *Boundary) Reset(newLowerBound uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lowerBound = newLowerBound
	if b.upperBound < newLowerBound {
		b.upperBound = newLowerBound
	}
	if b.bestExecuted < newLowerBound {
		b.bestExecuted = newLowerBound
	}
	for h := range b.mainChainHashes {
		if h < newLowerBound {
			delete(b.mainChainHashes, h)
		}
	}
}

// Truncate drops recorded hashes at or above height, used when a reorg
// invalidates previously-executed epochs before they are re-executed.
func (b *Boundary) Truncate(height uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.upperBound >= height {
		b.upperBound = height - 1
	}
	if b.bestExecuted >= height {
		b.bestExecuted = height - 1
	}
	for h := range b.mainChainHashes {
		if h >= height {
			delete(b.mainChainHashes, h)
		}
	}
}

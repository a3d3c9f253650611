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

// Package consensus implements the Consensus Graph (spec §4.2): main
// chain selection, epoch numbering, the adaptive heaviest-subtree
// parent-selection rule, the timer chain, and checkpoint formation. The
// arena is a classic slab: nodes are addressed by a stable int index for
// the lifetime of an era, never by pointer, so the weight/adaptive trees
// and the timer chain can hold plain index references across reorgs.
package consensus

import (
	"math/big"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// nullIndex marks "no such arena node", mirroring the teacher's NULL
// sentinel convention for arena/slab indices (e.g. engine.go's
// invalidBeaconUpdate sentinel) rather than a pointer nil.
const nullIndex = -1

// ArenaNode is one node of the consensus arena: everything the
// algorithms in this package need about one admitted block, addressed
// purely by its own index and its neighbors' indices.
type ArenaNode struct {
	Hash   common.Hash
	Height uint64
	Header *types.Header

	Parent   int
	Children mapset.Set[int]
	Referees mapset.Set[int]
	Referrers mapset.Set[int]

	// Weight is the block's own contribution to subtree weight: its
	// difficulty from allocation on, set to zero at activation if the
	// block turns out PartialInvalid (spec §4.2 weight trees).
	Weight *big.Int

	PartialInvalid bool
	Adaptive       bool

	Activated            bool
	InactiveDependencyCnt int

	// IsTimer marks PoW-quality-designated timer blocks (spec §4.2
	// timer chain).
	IsTimer                    bool
	LedgerViewTimerChainHeight uint64

	// PastView / Outlier are incrementally-maintained sets
	// of arena indices, restricted to the current era, used by the
	// correct-parent rule and epoch formation.
	PastView   mapset.Set[int]
	Outlier    mapset.Set[int]

	// BlocksetInOwnEpoch holds the epoch membership once this node sits
	// on the main chain (spec §4.2 Epoch formation).
	BlocksetInOwnEpoch mapset.Set[int]

	EpochNumber int64 // -1 until this node is assigned an epoch
	OnMainChain bool

	StableHeight uint64
}

func newArenaNode(h *types.Header, index int) *ArenaNode {
	weight := new(big.Int)
	if h.Difficulty != nil {
		weight.Set(h.Difficulty)
	}
	return &ArenaNode{
		Hash:                  h.Hash(),
		Height:                h.Height,
		Header:                h,
		Parent:                nullIndex,
		Children:              mapset.NewThreadUnsafeSet[int](),
		Referees:              mapset.NewThreadUnsafeSet[int](),
		Referrers:             mapset.NewThreadUnsafeSet[int](),
		Weight:                weight,
		InactiveDependencyCnt: 0,
		PastView:              mapset.NewThreadUnsafeSet[int](),
		Outlier:               mapset.NewThreadUnsafeSet[int](),
		BlocksetInOwnEpoch:    mapset.NewThreadUnsafeSet[int](),
		EpochNumber:           -1,
	}
}

// Arena is the slab: append-only within an era, reset to a fresh slab
// (indices starting again from 0) whenever make_checkpoint_at rotates
// the era, since every index it held is reparented or dropped anyway.
type Arena struct {
	nodes       []*ArenaNode
	hashToIndex map[common.Hash]int
}

func newArena() *Arena {
	return &Arena{
		nodes:       make([]*ArenaNode, 0, 1024),
		hashToIndex: make(map[common.Hash]int),
	}
}

func (a *Arena) alloc(h *types.Header) int {
	idx := len(a.nodes)
	a.nodes = append(a.nodes, newArenaNode(h, idx))
	a.hashToIndex[h.Hash()] = idx
	return idx
}

func (a *Arena) get(idx int) *ArenaNode {
	if idx == nullIndex {
		return nil
	}
	return a.nodes[idx]
}

func (a *Arena) indexOf(hash common.Hash) (int, bool) {
	idx, ok := a.hashToIndex[hash]
	return idx, ok
}

func (a *Arena) len() int { return len(a.nodes) }

// ancestorAt walks up from idx to the unique ancestor at exactly
// height, used by the correct-parent rule's fork_B/fork_P computation.
// Returns nullIndex if idx's own height is already below target.
func (a *Arena) ancestorAt(idx int, height uint64) int {
	n := a.get(idx)
	for n != nil && n.Height > height {
		idx = n.Parent
		n = a.get(idx)
	}
	if n == nil || n.Height != height {
		return nullIndex
	}
	return idx
}

// lca returns the lowest common ancestor of x and y by height-aligned
// parent walking. The arena is shallow per era (checkpoints bound
// depth), so a straightforward O(depth) walk is preferable to the
// doubling-LCA machinery a long-lived chain would need.
func (a *Arena) lca(x, y int) int {
	nx, ny := a.get(x), a.get(y)
	if nx == nil || ny == nil {
		return nullIndex
	}
	for nx.Height > ny.Height {
		x = nx.Parent
		nx = a.get(x)
	}
	for ny.Height > nx.Height {
		y = ny.Parent
		ny = a.get(y)
	}
	for x != y {
		x = nx.Parent
		y = ny.Parent
		nx, ny = a.get(x), a.get(y)
		if nx == nil || ny == nil {
			return nullIndex
		}
	}
	return x
}

// heavier implements the (weight desc, hash asc) total order spec §4.2
// and §8 require for every tie-break in this package.
func heavier(aw *big.Int, ah common.Hash, bw *big.Int, bh common.Hash) bool {
	if c := aw.Cmp(bw); c != 0 {
		return c > 0
	}
	return ah.Cmp(bh) < 0
}

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

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/mazzelabs/mazze-core/internal/log"
)

// ShouldFormCheckpointAt implements spec §4.2 "Checkpoint formation"'s
// eligibility test for a candidate new-era genesis G sitting on the
// main chain at a fixed era-spacing height: it must be force-confirmed
// by the latest timer-chain LCA and its outlier set must contain no timer
// block. For a header-only node (bodiesAvailable false) the only extra
// test is BlameCountBeyond, which never rejects a main-chain candidate;
// stable's blame reach is not examined.
func (g *Graph) ShouldFormCheckpointAt(candidateIdx int, bodiesAvailable bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.shouldFormCheckpointAtLocked(candidateIdx, bodiesAvailable)
}

func (g *Graph) shouldFormCheckpointAtLocked(candidateIdx int, bodiesAvailable bool) bool {
	n := g.arena.get(candidateIdx)
	if n == nil || !n.OnMainChain {
		return false
	}
	if (n.Height-g.eraGenesisHeightV)%g.cfg.EraEpochCount != 0 || n.Height == g.eraGenesisHeightV {
		return false
	}

	lca := g.timerChain.ForceConfirmLowerBound()
	if lca == nullIndex {
		return false
	}
	if !g.isAncestorOrSelf(lca, candidateIdx) {
		return false // not yet force-confirmed by the latest timer LCA
	}

	timerInOutlier := false
	n.Outlier.Each(func(o int) bool {
		if g.arena.get(o).IsTimer {
			timerInOutlier = true
			return true
		}
		return false
	})
	if timerInOutlier {
		return false
	}

	if !bodiesAvailable {
		// header-only node: BlameCountBeyond is false for any main-chain
		// node, so this never rejects the candidate.
		if n.BlameCountBeyond() {
			return false
		}
	}

	return true
}

// BlameCountBeyond is a placeholder hook for the header-only blame-reach
// check; spec's blame mechanism is carried on Header.BlameCount, and a
// full node never consults this path since bodiesAvailable is true.
func (n *ArenaNode) BlameCountBeyond() bool {
	return n.Header.BlameCount > 0 && !n.OnMainChain
}

// isAncestorOrSelf reports whether ancestor is idx itself or a parent
// ancestor of idx.
func (g *Graph) isAncestorOrSelf(idx, ancestor int) bool {
	for cur := idx; cur != nullIndex; cur = g.arena.get(cur).Parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// MakeCheckpointAt implements spec §4.2 "make_checkpoint_at(G)": every
// node that is not G or a descendant of G is dropped from the arena,
// the weight/adaptive trees and timer chain are rebuilt over the
// surviving index space, main_chain/main_chain_metadata are truncated
// to start at G, cur_era_genesis_block_arena_index is updated, and the
// confirmation meter is reset with G's subtree weight.
func (g *Graph) MakeCheckpointAt(candidateIdx int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.makeCheckpointAtLocked(candidateIdx)
}

func (g *Graph) makeCheckpointAtLocked(newGenesisIdx int) {
	keep := g.bfsFuture(newGenesisIdx)
	keep.Add(newGenesisIdx)

	oldArena := g.arena
	newArena := newArena()
	remap := make(map[int]int, keep.Cardinality())

	// Preserve relative order (by old index, which is allocation order)
	// so hash_to_arena_indices and every derived slice stay internally
	// consistent after the rebuild.
	var ordered []int
	for i := 0; i < oldArena.len(); i++ {
		if keep.Contains(i) {
			ordered = append(ordered, i)
		}
	}

	for _, oldIdx := range ordered {
		node := oldArena.get(oldIdx)
		newIdx := newArena.alloc(node.Header)
		remapNode := newArena.get(newIdx)
		*remapNode = *node // shallow-copy fields, then fix index-valued ones below
		remap[oldIdx] = newIdx
	}

	for _, oldIdx := range ordered {
		newIdx := remap[oldIdx]
		n := newArena.get(newIdx)

		n.Parent = remapIndex(remap, n.Parent)
		n.Children = remapSet(remap, n.Children)
		n.Referees = remapSet(remap, n.Referees)
		n.Referrers = remapSet(remap, n.Referrers)
		n.PastView = remapSet(remap, n.PastView)
		n.Outlier = remapSet(remap, n.Outlier)
		n.BlocksetInOwnEpoch = remapSet(remap, n.BlocksetInOwnEpoch)
	}

	newGenesisNewIdx := remap[newGenesisIdx]
	newArena.get(newGenesisNewIdx).Parent = nullIndex

	g.arena = newArena
	g.eraGenesisIdx = newGenesisNewIdx
	g.eraGenesisHeightV = newArena.get(newGenesisNewIdx).Height

	g.weightTree = newWeightTree(newArena)
	g.adaptive = newAdaptiveTree(newArena)
	for _, oldIdx := range ordered {
		g.weightTree.insert(remap[oldIdx])
	}

	var newMainChain []int
	var newMainMeta []mainChainMeta
	for i, oldIdx := range g.mainChain {
		if newIdx, ok := remap[oldIdx]; ok {
			newMainChain = append(newMainChain, newIdx)
			newMainMeta = append(newMainMeta, mainChainMeta{
				ForceConfirm:         remapIndex(remap, g.mainChainMetadata[i].ForceConfirm),
				LastMainInPastBlocks: remapSet(remap, g.mainChainMetadata[i].LastMainInPastBlocks),
			})
		}
	}
	g.mainChain = newMainChain
	g.mainChainMetadata = newMainMeta

	newTimerChain := newTimerChain(newArena, g.cfg.TimerChainBeta)
	for _, oldIdx := range g.timerChain.chain {
		if newIdx, ok := remap[oldIdx]; ok {
			newTimerChain.Append(newIdx)
		}
	}
	g.timerChain = newTimerChain

	g.confirm.reset(g.weightTree.subtreeWeight(newGenesisNewIdx))
	g.forceConfirmHeight = newArena.get(newGenesisNewIdx).Height

	log.Warn("consensus: checkpoint formed", "newEraGenesis", newArena.get(newGenesisNewIdx).Hash.Hex(),
		"height", newArena.get(newGenesisNewIdx).Height, "arenaSize", newArena.len())
}

func remapIndex(remap map[int]int, idx int) int {
	if idx == nullIndex {
		return nullIndex
	}
	if newIdx, ok := remap[idx]; ok {
		return newIdx
	}
	return nullIndex
}

func remapSet(remap map[int]int, s mapset.Set[int]) mapset.Set[int] {
	out := mapset.NewThreadUnsafeSet[int]()
	if s == nil {
		return out
	}
	s.Each(func(idx int) bool {
		if newIdx, ok := remap[idx]; ok {
			out.Add(newIdx)
		}
		return false
	})
	return out
}

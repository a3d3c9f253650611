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

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/log"
	"github.com/mazzelabs/mazze-core/internal/pubsub"
)

// updateMainChain implements spec §4.2 "Main-chain update": extend
// directly when the newly-activated block's parent is the current tip
// and force-confirmation agrees; otherwise pick the heavier branch from
// the LCA, bounded below by force_confirm_height.
func (g *Graph) updateMainChain(idx int) {
	tip := g.mainChain[len(g.mainChain)-1]
	n := g.arena.get(idx)

	if n.Parent == tip {
		g.appendToMainChain(idx)
		return
	}

	lca := g.arena.lca(idx, tip)
	if lca == nullIndex {
		return
	}
	forkHeight := g.arena.get(lca).Height + 1
	if forkHeight <= g.forceConfirmHeight {
		// Below the force-confirmation lower bound: the existing main
		// chain wins regardless of weight (spec "subject to fork_at >
		// force_confirm_height").
		return
	}

	forkNew := g.arena.ancestorAt(idx, forkHeight)
	forkOld := g.arena.ancestorAt(tip, forkHeight)
	if forkNew == nullIndex || forkOld == nullIndex || forkNew == forkOld {
		return
	}

	wNew := g.weightTree.subtreeWeight(forkNew)
	wOld := g.weightTree.subtreeWeight(forkOld)
	if !heavier(wNew, g.arena.get(forkNew).Hash, wOld, g.arena.get(forkOld).Hash) {
		return
	}

	g.reorgTo(lca, idx)
}

// appendToMainChain extends the main chain by exactly one block,
// forming and emitting its epoch.
func (g *Graph) appendToMainChain(idx int) {
	n := g.arena.get(idx)
	n.OnMainChain = true
	n.EpochNumber = int64(len(g.mainChain))
	g.mainChain = append(g.mainChain, idx)
	g.mainChainMetadata = append(g.mainChainMetadata, mainChainMeta{
		ForceConfirm:         g.timerChain.ForceConfirmLowerBound(),
		LastMainInPastBlocks: n.PastView.Clone(),
	})
	g.confirm.onExtend(n.Weight)
	g.formAndEmitEpoch(idx)
}

// reorgTo truncates the main chain back to lca and replays the path
// from lca to newTip as the new main-chain suffix (spec §4.2 "The
// re-org truncates main_chain and main_chain_metadata from the fork
// height, re-sets epoch_number for discarded blocks, and recomputes
// last_main_in_past_blocks").
func (g *Graph) reorgTo(lca, newTip int) {
	lcaHeight := g.arena.get(lca).Height
	keepLen := 0
	for i, idx := range g.mainChain {
		if g.arena.get(idx).Height <= lcaHeight {
			keepLen = i + 1
		}
	}

	discarded := g.mainChain[keepLen:]
	for _, idx := range discarded {
		g.arena.get(idx).OnMainChain = false
		g.arena.get(idx).EpochNumber = -1
	}

	g.mainChain = g.mainChain[:keepLen]
	g.mainChainMetadata = g.mainChainMetadata[:keepLen]

	// Walk newTip back to lca to build the replacement suffix.
	var suffix []int
	for cur := newTip; cur != lca && cur != nullIndex; cur = g.arena.get(cur).Parent {
		suffix = append([]int{cur}, suffix...)
	}

	revertToHeight := g.arena.get(g.mainChain[len(g.mainChain)-1]).Height
	log.Warn("consensus: main chain reorg", "revertToHeight", revertToHeight, "newTip", g.arena.get(newTip).Hash.Hex())
	if g.hub != nil {
		g.hub.PublishReorg(revertToHeight)
	}

	for _, idx := range suffix {
		g.appendToMainChain(idx)
	}
}

// formAndEmitEpoch implements spec §4.2 "Epoch formation": epoch h for
// main-chain block M consists of M plus blockset_in_own_view_of_epoch,
// in deterministic topological order tie-broken by hash, then emitted
// on the epochs_ordered channel.
func (g *Graph) formAndEmitEpoch(mainIdx int) {
	n := g.arena.get(mainIdx)
	ordered := g.topoOrderEpoch(mainIdx, n.BlocksetInOwnEpoch)

	hashes := make([]common.Hash, len(ordered))
	for i, idx := range ordered {
		hashes[i] = g.arena.get(idx).Hash
	}

	if g.hub != nil {
		g.hub.PublishEpoch(pubsub.Epoch{Number: uint64(n.EpochNumber), Blocks: hashes})
	}
}

// topoOrderEpoch produces a deterministic topological order over
// blockset plus mainIdx itself: a simple Kahn's-algorithm pass over the
// parent/referee edges restricted to the set, with ties broken by
// ascending hash at every step (spec §4.2 "tie-broken by hash").
func (g *Graph) topoOrderEpoch(mainIdx int, blockset mapset.Set[int]) []int {
	members := append(blockset.ToSlice(), mainIdx)
	memberSet := mapset.NewThreadUnsafeSet[int](members...)

	inDegree := make(map[int]int, len(members))
	for _, idx := range members {
		inDegree[idx] = 0
	}
	for _, idx := range members {
		n := g.arena.get(idx)
		deps := append([]int{n.Parent}, n.Referees.ToSlice()...)
		for _, d := range deps {
			if memberSet.Contains(d) {
				inDegree[idx]++
			}
		}
	}

	var ready []int
	for _, idx := range members {
		if inDegree[idx] == 0 {
			ready = append(ready, idx)
		}
	}

	var out []int
	for len(ready) > 0 {
		ready = g.sortedByHash(ready)
		cur := ready[0]
		ready = ready[1:]
		out = append(out, cur)

		for _, idx := range members {
			n := g.arena.get(idx)
			deps := append([]int{n.Parent}, n.Referees.ToSlice()...)
			for _, d := range deps {
				if d == cur && memberSet.Contains(idx) {
					inDegree[idx]--
					if inDegree[idx] == 0 {
						ready = append(ready, idx)
					}
				}
			}
		}
	}
	return out
}

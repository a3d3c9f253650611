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

// This file carries the features supplemented from original_source/ per
// SPEC_FULL.md §5: should_move_stable_height, the initial_stable_future
// pending-set replay, and check_mining_adaptive_block. The distilled
// spec named the timer chain and adaptive flag but left their exact
// stabilization bookkeeping to be inferred; these follow the original
// Rust consensus_new_block_handler.rs shapes.
package consensus

// ShouldMoveStableHeight decides whether the stable height can advance
// to the height of the timer chain's current force-confirmation lower
// bound: stable height only ever moves to a main-chain block that is
// itself force-confirmed, never past the current main-chain tip.
func (g *Graph) ShouldMoveStableHeight() (newStableHeight uint64, moved bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	lca := g.timerChain.ForceConfirmLowerBound()
	if lca == nullIndex {
		return g.stableHeight, false
	}
	n := g.arena.get(lca)
	if !n.OnMainChain || n.Height <= g.stableHeight {
		return g.stableHeight, false
	}

	g.stableHeight = n.Height
	g.forceConfirmHeight = n.Height
	return g.stableHeight, true
}

// InitialStableFuture replays the pending-set of blocks whose
// activation was deferred while the node was still catching up to the
// stable height: every such block is in the future of the current
// stable-height main-chain block and has all its dependencies already
// present, so it can be preactivated immediately in height order
// instead of waiting for the normal notifyDependentActivated chain.
func (g *Graph) InitialStableFuture(pending []int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ordered := append([]int(nil), pending...)
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if g.arena.get(ordered[j]).Height < g.arena.get(ordered[i]).Height {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}

	for _, idx := range ordered {
		n := g.arena.get(idx)
		if n.Activated || n.InactiveDependencyCnt != 0 {
			continue
		}
		g.preactivateAndActivate(idx)
	}
}

// checkMiningAdaptiveBlock implements the adaptive-flag vote: it adds a
// delta to the adaptive tree along the path from idx up to (not
// including) the timer-chain force-confirmation point, or the era
// genesis when there is none. The delta is minus the number of timer
// blocks in idx's outlier set, or +1 when it holds none. The block is
// adaptive when the accumulated vote at its parent is negative (spec
// §4.2 "adaptive flag computed").
func (g *Graph) checkMiningAdaptiveBlock(idx int) bool {
	n := g.arena.get(idx)
	if n.Parent == nullIndex {
		return false
	}

	lca := g.timerChain.ForceConfirmLowerBound()
	if lca == nullIndex {
		lca = g.eraGenesisIdx
	}

	delta := int64(0)
	n.Outlier.Each(func(o int) bool {
		if g.arena.get(o).IsTimer {
			delta--
		}
		return false
	})
	if delta == 0 {
		delta = 1
	}
	g.adaptive.caterpillarApply(idx, lca, delta)

	return g.adaptive.voteAt(n.Parent) < 0
}

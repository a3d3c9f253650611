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

// preactivateAndActivate implements spec §4.2 Activation once a node's
// inactive_dependency_cnt has reached zero: compute its outlier set
// incrementally, derive its timer-chain tuple, run the correct-parent
// rule, set the adaptive flag, and finally fold it into the weight
// tree and main chain.
func (g *Graph) preactivateAndActivate(idx int) {
	n := g.arena.get(idx)

	n.PastView = g.computePastView(idx)
	n.Outlier = g.computeOutlierIncremental(idx)

	if g.pow != nil {
		n.IsTimer = g.pow.IsTimerBlock(n.Header.PowQuality)
	}
	n.LedgerViewTimerChainHeight = g.timerChain.Height()

	ownEpoch := g.computeOwnEpochBlockset(idx)
	n.BlocksetInOwnEpoch = ownEpoch

	n.PartialInvalid = !g.validateStructural(n)
	if !n.PartialInvalid && n.Parent != nullIndex {
		if !g.checkCorrectParent(n.Parent, ownEpoch.ToSlice(), n.Outlier.ToSlice()) {
			n.PartialInvalid = true
		}
	}

	n.Adaptive = g.checkMiningAdaptiveBlock(idx)

	if n.PartialInvalid {
		n.Weight.SetInt64(0)
	}

	n.Activated = true
	g.weightTree.insert(idx)

	if n.IsTimer && !n.PartialInvalid {
		g.timerChain.Append(idx)
	}

	if !n.PartialInvalid {
		g.updateMainChain(idx)
	}

	log.Debug("consensus: block activated", "hash", n.Hash.Hex(), "height", n.Height,
		"partialInvalid", n.PartialInvalid, "adaptive", n.Adaptive)

	g.notifyDependentActivated(idx)
}

// validateStructural checks the cheap, locally-decidable validity
// conditions (wrong difficulty, blame beyond bound) that mark a block
// partial_invalid independent of the correct-parent fork comparison.
func (g *Graph) validateStructural(n *ArenaNode) bool {
	if g.pow != nil && n.Parent != nullIndex {
		expected := g.pow.ExpectedDifficulty(g.arena.get(n.Parent).Header)
		if expected != nil && n.Header.Difficulty != nil && expected.Cmp(n.Header.Difficulty) != 0 {
			return false
		}
	}
	return true
}

// computePastView returns the transitive closure of idx's own past
// (parent + referees, and their past views), used to seed outlier
// computation and epoch-formation membership tests.
func (g *Graph) computePastView(idx int) mapset.Set[int] {
	n := g.arena.get(idx)
	past := mapset.NewThreadUnsafeSet[int]()
	if n.Parent != nullIndex {
		past.Add(n.Parent)
		past = past.Union(g.arena.get(n.Parent).PastView)
	}
	n.Referees.Each(func(r int) bool {
		past.Add(r)
		past = past.Union(g.arena.get(r).PastView)
		return false
	})
	return past
}

// computeOwnEpochBlockset derives blockset_in_own_view_of_epoch: blocks
// in idx's past but not in idx's parent's past (spec §4.2 "Epoch
// formation").
func (g *Graph) computeOwnEpochBlockset(idx int) mapset.Set[int] {
	n := g.arena.get(idx)
	if n.Parent == nullIndex {
		return mapset.NewThreadUnsafeSet[int]()
	}
	parentPast := g.arena.get(n.Parent).PastView
	return n.PastView.Difference(parentPast)
}

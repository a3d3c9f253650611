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

import "math/big"

// WeightTree maintains, for every arena index, the sum of Weight over
// its subtree (spec §4.2 "weight_tree"). A real link-cut tree gives
// path_apply/subtree-sum in amortized O(log n); this arena is bounded
// in depth by checkpoint spacing (era_epoch_count), so a parent-pointer
// walk per update is the simpler, equally-correct choice for the sizes
// this process actually holds in memory between checkpoints.
type WeightTree struct {
	arena  *Arena
	weight map[int]*big.Int // subtree-weight, keyed by arena index
}

func newWeightTree(a *Arena) *WeightTree {
	return &WeightTree{arena: a, weight: make(map[int]*big.Int)}
}

// insert seeds idx's own subtree weight (a fresh leaf covers only
// itself) and folds its own Weight into every ancestor's subtree sum.
func (t *WeightTree) insert(idx int) {
	t.weight[idx] = new(big.Int)
	t.pathApply(idx, t.arena.get(idx).Weight)
}

// pathApply adds delta to the subtree weight of idx and every one of
// idx's ancestors up to the era root (spec §4.2 "updated with
// path_apply"), mirroring a link-cut tree's path-to-root update.
func (t *WeightTree) pathApply(idx int, delta *big.Int) {
	for idx != nullIndex {
		if _, ok := t.weight[idx]; !ok {
			t.weight[idx] = new(big.Int)
		}
		t.weight[idx].Add(t.weight[idx], delta)
		idx = t.arena.get(idx).Parent
	}
}

// caterpillarApply adds delta along the path from "from" up to (but
// not including) the ancestor "to", used by the adaptive tree to apply
// a contribution only within a bounded segment of the chain rather
// than all the way to the era root.
func (t *WeightTree) caterpillarApply(from, to int, delta *big.Int) {
	for idx := from; idx != to && idx != nullIndex; idx = t.arena.get(idx).Parent {
		if _, ok := t.weight[idx]; !ok {
			t.weight[idx] = new(big.Int)
		}
		t.weight[idx].Add(t.weight[idx], delta)
	}
}

// subtreeWeight returns the current subtree-weight aggregate at idx, or
// zero if idx has never been inserted.
func (t *WeightTree) subtreeWeight(idx int) *big.Int {
	if w, ok := t.weight[idx]; ok {
		return w
	}
	return new(big.Int)
}

// setOwnWeight applies the delta between a node's previous and new own
// Weight (e.g. once a block transitions from PartialInvalid to active,
// or vice versa) by running path_apply with the difference.
func (t *WeightTree) setOwnWeight(idx int, newWeight *big.Int) {
	old := t.arena.get(idx).Weight
	delta := new(big.Int).Sub(newWeight, old)
	if delta.Sign() == 0 {
		return
	}
	t.arena.get(idx).Weight = newWeight
	t.pathApply(idx, delta)
}

// withoutOutliers temporarily subtracts the own Weight of every index in
// outliers along its path to the root, runs fn, then restores it. This is
// spec §4.2's "Outlier contributions are temporarily subtracted from
// the weight tree during this check" for the correct-parent rule.
func (t *WeightTree) withoutOutliers(outliers []int, fn func()) {
	for _, idx := range outliers {
		t.pathApply(idx, new(big.Int).Neg(t.arena.get(idx).Weight))
	}
	fn()
	for _, idx := range outliers {
		t.pathApply(idx, t.arena.get(idx).Weight)
	}
}

// AdaptiveTree is the second link-cut tree of spec §4.2, used only to
// decide whether a candidate's adaptive flag must be set: it aggregates
// a signed vote along the path from a candidate to a timer-chain
// reference, rather than a subtree weight sum.
type AdaptiveTree struct {
	arena *Arena
	vote  map[int]int64
}

func newAdaptiveTree(a *Arena) *AdaptiveTree {
	return &AdaptiveTree{arena: a, vote: make(map[int]int64)}
}

func (t *AdaptiveTree) pathApply(idx int, delta int64) {
	for idx != nullIndex {
		t.vote[idx] += delta
		idx = t.arena.get(idx).Parent
	}
}

func (t *AdaptiveTree) caterpillarApply(from, to int, delta int64) {
	for idx := from; idx != to && idx != nullIndex; idx = t.arena.get(idx).Parent {
		t.vote[idx] += delta
	}
}

func (t *AdaptiveTree) voteAt(idx int) int64 {
	return t.vote[idx]
}

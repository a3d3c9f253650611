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

// TimerChain tracks the subsequence of arena nodes PoW-designated as
// timer blocks (spec §4.2 "Timer chain"). Its accumulative LCA over the
// trailing timer_chain_beta blocks is the global lower bound below
// which force_confirm may never retreat.
type TimerChain struct {
	arena *Arena
	beta  int
	chain []int // arena indices of timer blocks, in chain order

	// accumulativeLCA[i] caches the LCA of chain[max(0,i-beta+1):i+1],
	// recomputed only when the chain is extended (append-only within an
	// era; a checkpoint resets the whole structure).
	accumulativeLCA []int
}

func newTimerChain(a *Arena, beta int) *TimerChain {
	return &TimerChain{arena: a, beta: beta}
}

// Append records idx as the next timer-chain block and recomputes its
// trailing accumulative LCA.
func (t *TimerChain) Append(idx int) {
	t.chain = append(t.chain, idx)
	n := len(t.chain)
	start := n - t.beta
	if start < 0 {
		start = 0
	}
	lca := t.chain[start]
	for i := start + 1; i < n; i++ {
		lca = t.arena.lca(lca, t.chain[i])
	}
	t.accumulativeLCA = append(t.accumulativeLCA, lca)
}

// Height reports the number of timer blocks recorded so far, i.e. the
// chain's own height dimension (distinct from block height).
func (t *TimerChain) Height() uint64 { return uint64(len(t.chain)) }

// ForceConfirmLowerBound returns the arena index of the most recent
// accumulative LCA: the global point below which force_confirm can
// never retreat (spec §4.2 "this is the global force-confirmation
// lower bound").
func (t *TimerChain) ForceConfirmLowerBound() int {
	if len(t.accumulativeLCA) == 0 {
		return nullIndex
	}
	return t.accumulativeLCA[len(t.accumulativeLCA)-1]
}

// LastTimerBlock returns the arena index of the most recently appended
// timer block, used by the delayed-activation rule for partial-invalid
// blocks (spec §4.2 Activation).
func (t *TimerChain) LastTimerBlock() int {
	if len(t.chain) == 0 {
		return nullIndex
	}
	return t.chain[len(t.chain)-1]
}

// pastViewTimerLongestDifficulty walks idx's ancestry and returns the
// arena index of the heaviest timer block reachable in idx's past
// (spec §4.2 "selected by heaviest past_view_timer_longest_
// difficulty"), used to pick which branch's timer designation a new
// node inherits.
func (g *Graph) pastViewTimerLongestDifficulty(idx int) int {
	best := nullIndex
	cur := idx
	for cur != nullIndex {
		n := g.arena.get(cur)
		if n.IsTimer {
			if best == nullIndex || heavier(g.weightTree.subtreeWeight(cur), n.Hash,
				g.weightTree.subtreeWeight(best), g.arena.get(best).Hash) {
				best = cur
			}
		}
		cur = n.Parent
	}
	return best
}

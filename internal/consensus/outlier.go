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

import mapset "github.com/deckarep/golang-set/v2"

// computeOutlierIncremental implements spec §4.2 Activation's outlier
// rule: a freshly-activated node's outlier set is its parent's outlier
// union its parent's future-view additions, minus whatever is in the
// new node's own past, restricted to the current era. This reuses work
// already done for the parent instead of re-walking the whole arena.
func (g *Graph) computeOutlierIncremental(idx int) mapset.Set[int] {
	n := g.arena.get(idx)
	outlier := mapset.NewThreadUnsafeSet[int]()

	if n.Parent != nullIndex {
		parent := g.arena.get(n.Parent)
		outlier = parent.Outlier.Union(g.bfsFuture(n.Parent))
	}

	// Referee past contributes additional candidates that may have left
	// the parent's outlier set by now being in this node's own past.
	for _, refIdx := range n.Referees.ToSlice() {
		ref := g.arena.get(refIdx)
		if ref == nil {
			continue
		}
		outlier.Add(refIdx)
	}

	outlier = outlier.Difference(n.PastView)
	outlier = outlier.Difference(g.bfsFuture(idx))
	outlier.Remove(idx)

	// Restrict to the current era: anything below the era genesis height
	// is gone from the arena already and cannot appear here, but guard
	// explicitly since this set also feeds the correct-parent rule.
	eraFloor := g.eraGenesisHeight()
	filtered := mapset.NewThreadUnsafeSet[int]()
	outlier.Each(func(o int) bool {
		if node := g.arena.get(o); node != nil && node.Height >= eraFloor {
			filtered.Add(o)
		}
		return false
	})
	return filtered
}

// computeOutlierBrutal is the BFS fallback of spec §4.2: walk every
// node in the current era and classify it relative to idx by ancestry,
// used when the incremental path cannot be trusted (first node after a
// checkpoint rotation, or a consistency self-check in tests).
func (g *Graph) computeOutlierBrutal(idx int) mapset.Set[int] {
	past := g.bfsPast(idx)
	future := g.bfsFuture(idx)

	outlier := mapset.NewThreadUnsafeSet[int]()
	for i := 0; i < g.arena.len(); i++ {
		n := g.arena.get(i)
		if n == nil || n.Height < g.eraGenesisHeight() {
			continue
		}
		if i == idx || past.Contains(i) || future.Contains(i) {
			continue
		}
		outlier.Add(i)
	}
	return outlier
}

// bfsPast returns every arena index that is a DAG ancestor of idx via
// parent or referee edges.
func (g *Graph) bfsPast(idx int) mapset.Set[int] {
	seen := mapset.NewThreadUnsafeSet[int]()
	queue := []int{idx}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		n := g.arena.get(cur)
		if n == nil {
			continue
		}
		neighbors := append([]int{n.Parent}, n.Referees.ToSlice()...)
		for _, next := range neighbors {
			if next == nullIndex || seen.Contains(next) {
				continue
			}
			seen.Add(next)
			queue = append(queue, next)
		}
	}
	return seen
}

// bfsFuture returns every arena index reachable from idx via child or
// referrer edges (the dual of bfsPast).
func (g *Graph) bfsFuture(idx int) mapset.Set[int] {
	seen := mapset.NewThreadUnsafeSet[int]()
	queue := []int{idx}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		n := g.arena.get(cur)
		if n == nil {
			continue
		}
		neighbors := append(n.Children.ToSlice(), n.Referrers.ToSlice()...)
		for _, next := range neighbors {
			if seen.Contains(next) {
				continue
			}
			seen.Add(next)
			queue = append(queue, next)
		}
	}
	return seen
}

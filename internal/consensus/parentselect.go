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

// checkCorrectParent implements spec §4.2 "Parent selection": for
// every block B in the candidate's own-epoch blockset, the candidate's
// chosen parent must sit on the heavier fork at the point where B's
// lineage and the parent's lineage diverge. Outlier contributions are
// subtracted from the weight tree for the duration of the check, since
// they are blocks neither ancestor nor descendant of the candidate and
// so must not bias the fork comparison.
func (g *Graph) checkCorrectParent(parentIdx int, ownEpochBlockset []int, outliers []int) bool {
	ok := true
	g.weightTree.withoutOutliers(outliers, func() {
		for _, b := range ownEpochBlockset {
			if !g.forkHeavierAt(b, parentIdx) {
				ok = false
				return
			}
		}
	})
	return ok
}

// forkHeavierAt decides, for one blockset member b against candidate
// parent, whether the parent's fork is heavier than b's fork at their
// divergence point under the (weight desc, hash asc) order. It also
// returns true when the two share a fork or have no common ancestor.
func (g *Graph) forkHeavierAt(b, parentIdx int) bool {
	lca := g.arena.lca(b, parentIdx)
	if lca == nullIndex {
		return true
	}
	lcaHeight := g.arena.get(lca).Height

	forkB := g.arena.ancestorAt(b, lcaHeight+1)
	forkP := g.arena.ancestorAt(parentIdx, lcaHeight+1)
	if forkB == nullIndex || forkP == nullIndex || forkB == forkP {
		return true
	}

	wB := g.weightTree.subtreeWeight(forkB)
	wP := g.weightTree.subtreeWeight(forkP)
	return heavier(wP, g.arena.get(forkP).Hash, wB, g.arena.get(forkB).Hash) ||
		(wP.Cmp(wB) == 0 && g.arena.get(forkP).Hash == g.arena.get(forkB).Hash)
}

// checkCorrectParentBrutal re-derives the same verdict using the BFS
// outlier fallback instead of the incrementally-maintained outlier set,
// used as a consistency self-check (spec §4.2's "brutal" sibling of the
// incremental rule) rather than on the hot insertion path.
func (g *Graph) checkCorrectParentBrutal(candidateIdx, parentIdx int, ownEpochBlockset []int) bool {
	outliers := g.computeOutlierBrutal(candidateIdx).ToSlice()
	return g.checkCorrectParent(parentIdx, ownEpochBlockset, outliers)
}

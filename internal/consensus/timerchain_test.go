// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package consensus

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazzelabs/mazze-core/internal/types"
)

func TestTimerChainHeightTracksAppendCount(t *testing.T) {
	a := newArena()
	idx := a.alloc(&types.Header{Height: 0})
	tc := newTimerChain(a, 2)

	require.Equal(t, uint64(0), tc.Height())
	tc.Append(idx)
	require.Equal(t, uint64(1), tc.Height())
}

func TestTimerChainLastTimerBlockEmptyIsNull(t *testing.T) {
	a := newArena()
	tc := newTimerChain(a, 4)
	require.Equal(t, nullIndex, tc.LastTimerBlock())
}

func TestTimerChainLastTimerBlockTracksMostRecentAppend(t *testing.T) {
	a := newArena()
	i0 := a.alloc(&types.Header{Height: 0})
	i1 := a.alloc(&types.Header{Height: 1})
	tc := newTimerChain(a, 4)

	tc.Append(i0)
	tc.Append(i1)
	require.Equal(t, i1, tc.LastTimerBlock())
}

func TestTimerChainForceConfirmLowerBoundEmptyIsNull(t *testing.T) {
	a := newArena()
	tc := newTimerChain(a, 4)
	require.Equal(t, nullIndex, tc.ForceConfirmLowerBound())
}

func TestTimerChainForceConfirmLowerBoundWithinBetaIsSingleNode(t *testing.T) {
	a := newArena()
	root := a.alloc(&types.Header{Height: 0})
	tc := newTimerChain(a, 4)
	tc.Append(root)

	require.Equal(t, root, tc.ForceConfirmLowerBound())
}

func TestTimerChainForceConfirmLowerBoundWindowsToBeta(t *testing.T) {
	// Two independent single-block branches off a shared root; beta=1
	// means the trailing window only covers the latest append, so the
	// LCA collapses to that block itself rather than the shared root.
	a := newArena()
	root := a.alloc(&types.Header{Height: 0})
	branchA := a.alloc(&types.Header{Height: 1})
	a.get(branchA).Parent = root
	branchB := a.alloc(&types.Header{Height: 1})
	a.get(branchB).Parent = root

	tc := newTimerChain(a, 1)
	tc.Append(branchA)
	tc.Append(branchB)

	require.Equal(t, branchB, tc.ForceConfirmLowerBound())
}

func TestTimerChainForceConfirmLowerBoundOverBetaWindowIsSharedAncestor(t *testing.T) {
	a := newArena()
	root := a.alloc(&types.Header{Height: 0})
	branchA := a.alloc(&types.Header{Height: 1})
	a.get(branchA).Parent = root
	branchB := a.alloc(&types.Header{Height: 1})
	a.get(branchB).Parent = root

	tc := newTimerChain(a, 2)
	tc.Append(branchA)
	tc.Append(branchB)

	require.Equal(t, root, tc.ForceConfirmLowerBound())
}

func TestPastViewTimerLongestDifficultyPicksHeaviestTimerAncestor(t *testing.T) {
	// root's subtree weight (root+mid folded in via insert) outweighs
	// mid's own subtree weight, so root — not the nearer mid — wins.
	a := newArena()
	root := a.alloc(&types.Header{Height: 0, Difficulty: big1()})
	a.get(root).IsTimer = true
	mid := a.alloc(&types.Header{Height: 1, Difficulty: big1()})
	a.get(mid).Parent = root
	a.get(mid).IsTimer = true
	leaf := a.alloc(&types.Header{Height: 2, Difficulty: big1()})
	a.get(leaf).Parent = mid

	g := &Graph{arena: a, weightTree: newWeightTree(a)}
	g.weightTree.insert(root)
	g.weightTree.insert(mid)

	require.Equal(t, root, g.pastViewTimerLongestDifficulty(leaf))
}

func TestPastViewTimerLongestDifficultyNoTimerAncestorIsNull(t *testing.T) {
	a := newArena()
	root := a.alloc(&types.Header{Height: 0, Difficulty: big1()})
	leaf := a.alloc(&types.Header{Height: 1, Difficulty: big1()})
	a.get(leaf).Parent = root

	g := &Graph{arena: a, weightTree: newWeightTree(a)}
	require.Equal(t, nullIndex, g.pastViewTimerLongestDifficulty(leaf))
}

func big1() *big.Int { return big.NewInt(1) }

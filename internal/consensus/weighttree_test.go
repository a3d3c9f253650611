// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package consensus

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazzelabs/mazze-core/internal/types"
)

func chainArena() (*Arena, int, int, int) {
	a := newArena()
	root := a.alloc(&types.Header{Height: 0, Difficulty: big.NewInt(1)})
	mid := a.alloc(&types.Header{Height: 1, Difficulty: big.NewInt(2)})
	a.get(mid).Parent = root
	leaf := a.alloc(&types.Header{Height: 2, Difficulty: big.NewInt(4)})
	a.get(leaf).Parent = mid
	return a, root, mid, leaf
}

func TestWeightTreeInsertFoldsIntoAncestors(t *testing.T) {
	a, root, mid, leaf := chainArena()
	wt := newWeightTree(a)

	wt.insert(root)
	wt.insert(mid)
	wt.insert(leaf)

	require.Equal(t, big.NewInt(7), wt.subtreeWeight(root))
	require.Equal(t, big.NewInt(6), wt.subtreeWeight(mid))
	require.Equal(t, big.NewInt(4), wt.subtreeWeight(leaf))
}

func TestWeightTreeSubtreeWeightDefaultsToZero(t *testing.T) {
	a := newArena()
	wt := newWeightTree(a)
	require.Equal(t, big.NewInt(0), wt.subtreeWeight(42))
}

func TestWeightTreeSetOwnWeightPropagatesDelta(t *testing.T) {
	a, root, mid, leaf := chainArena()
	wt := newWeightTree(a)
	wt.insert(root)
	wt.insert(mid)
	wt.insert(leaf)

	wt.setOwnWeight(leaf, big.NewInt(10))

	require.Equal(t, big.NewInt(10), a.get(leaf).Weight)
	require.Equal(t, big.NewInt(10), wt.subtreeWeight(leaf))
	require.Equal(t, big.NewInt(13), wt.subtreeWeight(root))
}

func TestWeightTreeSetOwnWeightNoopWhenUnchanged(t *testing.T) {
	a, root, _, leaf := chainArena()
	wt := newWeightTree(a)
	wt.insert(root)
	wt.insert(leaf)

	before := new(big.Int).Set(wt.subtreeWeight(root))
	wt.setOwnWeight(leaf, big.NewInt(4))
	require.Equal(t, before, wt.subtreeWeight(root))
}

func TestWeightTreeCaterpillarApplyStopsBeforeTo(t *testing.T) {
	a, root, mid, leaf := chainArena()
	wt := newWeightTree(a)
	wt.insert(root)
	wt.insert(mid)
	wt.insert(leaf)

	wt.caterpillarApply(leaf, root, big.NewInt(100))

	require.Equal(t, big.NewInt(104), wt.subtreeWeight(leaf))
	require.Equal(t, big.NewInt(106), wt.subtreeWeight(mid))
	require.Equal(t, big.NewInt(7), wt.subtreeWeight(root))
}

func TestWeightTreeWithoutOutliersRestoresAfterwards(t *testing.T) {
	a, root, mid, leaf := chainArena()
	wt := newWeightTree(a)
	wt.insert(root)
	wt.insert(mid)
	wt.insert(leaf)

	before := new(big.Int).Set(wt.subtreeWeight(root))
	var duringRoot *big.Int
	wt.withoutOutliers([]int{leaf}, func() {
		duringRoot = new(big.Int).Set(wt.subtreeWeight(root))
	})

	require.Equal(t, big.NewInt(3), duringRoot)
	require.Equal(t, before, wt.subtreeWeight(root))
}

func TestAdaptiveTreePathApplyAccumulatesAlongAncestry(t *testing.T) {
	a, root, mid, leaf := chainArena()
	at := newAdaptiveTree(a)

	at.pathApply(leaf, 1)
	at.pathApply(mid, -1)

	require.Equal(t, int64(1), at.voteAt(leaf))
	require.Equal(t, int64(0), at.voteAt(mid))
	require.Equal(t, int64(0), at.voteAt(root))
}

func TestAdaptiveTreeCaterpillarApplyStopsBeforeTo(t *testing.T) {
	a, root, mid, leaf := chainArena()
	at := newAdaptiveTree(a)

	at.caterpillarApply(leaf, root, 5)

	require.Equal(t, int64(5), at.voteAt(leaf))
	require.Equal(t, int64(5), at.voteAt(mid))
	require.Equal(t, int64(0), at.voteAt(root))
}

func TestAdaptiveTreeVoteAtDefaultsToZero(t *testing.T) {
	a := newArena()
	at := newAdaptiveTree(a)
	require.Equal(t, int64(0), at.voteAt(99))
}

// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package consensus

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazzelabs/mazze-core/internal/types"
)

// forkGraph builds: root -> {forkB, forkP}, each fork weighted via the
// weight tree so forkHeavierAt has something to compare.
func forkGraph(t *testing.T, forkBWeight, forkPWeight int64) (*Graph, int, int) {
	t.Helper()
	a := newArena()
	root := a.alloc(&types.Header{Height: 0})
	forkB := a.alloc(&types.Header{Height: 1, Difficulty: bigN(forkBWeight)})
	a.get(forkB).Parent = root
	forkP := a.alloc(&types.Header{Height: 1, Difficulty: bigN(forkPWeight)})
	a.get(forkP).Parent = root

	wt := newWeightTree(a)
	wt.insert(root)
	wt.insert(forkB)
	wt.insert(forkP)

	return &Graph{arena: a, weightTree: wt}, forkB, forkP
}

func TestForkHeavierAtTrueWhenParentForkHeavier(t *testing.T) {
	g, forkB, forkP := forkGraph(t, 1, 5)
	require.True(t, g.forkHeavierAt(forkB, forkP))
}

func TestForkHeavierAtFalseWhenCandidateForkHeavier(t *testing.T) {
	g, forkB, forkP := forkGraph(t, 5, 1)
	require.False(t, g.forkHeavierAt(forkB, forkP))
}

func TestForkHeavierAtTrueWhenSameFork(t *testing.T) {
	g, forkB, _ := forkGraph(t, 1, 1)
	require.True(t, g.forkHeavierAt(forkB, forkB))
}

func TestForkHeavierAtTrueWhenNoCommonAncestor(t *testing.T) {
	a := newArena()
	b := a.alloc(&types.Header{Height: 0})
	p := a.alloc(&types.Header{Height: 0})
	g := &Graph{arena: a, weightTree: newWeightTree(a)}
	require.True(t, g.forkHeavierAt(b, p))
}

func TestCheckCorrectParentPassesWhenParentForkNeverLighter(t *testing.T) {
	g, forkB, forkP := forkGraph(t, 1, 5)
	require.True(t, g.checkCorrectParent(forkP, []int{forkB}, nil))
}

func TestCheckCorrectParentFailsWhenParentForkLighter(t *testing.T) {
	g, forkB, forkP := forkGraph(t, 5, 1)
	require.False(t, g.checkCorrectParent(forkP, []int{forkB}, nil))
}

func bigN(v int64) *big.Int { return big.NewInt(v) }

// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazzelabs/mazze-core/internal/common"
)

func TestHeaderIsGenesis(t *testing.T) {
	genesis := &Header{Height: 0}
	require.True(t, genesis.IsGenesis())

	child := &Header{Height: 1, ParentHash: common.HexToHash("0x01")}
	require.False(t, child.IsGenesis())

	// Height alone doesn't make it genesis without a zero parent hash.
	weird := &Header{Height: 0, ParentHash: common.HexToHash("0x01")}
	require.False(t, weird.IsGenesis())
}

func TestHeaderHashIsStableAndMemoized(t *testing.T) {
	h := &Header{Height: 1, Difficulty: big.NewInt(5), Author: common.Address{0x01}}
	first := h.Hash()
	second := h.Hash()
	require.Equal(t, first, second)
}

func TestHeaderHashChangesWithContent(t *testing.T) {
	a := &Header{Height: 1, Difficulty: big.NewInt(5)}
	b := &Header{Height: 2, Difficulty: big.NewInt(5)}
	require.NotEqual(t, a.Hash(), b.Hash())
}

func TestHeaderCopyIsIndependent(t *testing.T) {
	h := &Header{
		Height:     1,
		Difficulty: big.NewInt(10),
		Referees:   []common.Hash{common.HexToHash("0x01")},
		Custom:     [][]byte{{0x01, 0x02}},
	}
	_ = h.Hash()

	cp := h.Copy()
	cp.Difficulty.Add(cp.Difficulty, big.NewInt(1))
	cp.Referees[0] = common.HexToHash("0x02")

	require.Equal(t, big.NewInt(10), h.Difficulty)
	require.Equal(t, common.HexToHash("0x01"), h.Referees[0])
	require.Nil(t, cp.hash)
}

func TestHeaderTimeConvertsTimestamp(t *testing.T) {
	h := &Header{Timestamp: 1700000000}
	require.Equal(t, int64(1700000000), h.Time().Unix())
}

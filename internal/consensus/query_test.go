// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package consensus

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/pubsub"
	"github.com/mazzelabs/mazze-core/internal/types"
)

type fakePoW struct{}

func (fakePoW) VerifyQuality(h *types.Header) (uint64, bool) { return h.PowQuality, true }
func (fakePoW) ExpectedDifficulty(parent *types.Header) *big.Int {
	return big.NewInt(1)
}
func (fakePoW) IsTimerBlock(quality uint64) bool { return false }

func newTestGraph(t *testing.T) (*Graph, *types.Header) {
	t.Helper()
	genesis := &types.Header{Height: 0, Difficulty: big.NewInt(1)}
	g := New(Config{TimerChainBeta: 240, EraEpochCount: 50000}, fakePoW{}, pubsub.NewHub(), genesis)
	return g, genesis
}

func TestBlockInfoByHashMiss(t *testing.T) {
	g, _ := newTestGraph(t)
	_, ok := g.BlockInfoByHash(common.HexToHash("0xdead"))
	require.False(t, ok)
}

func TestBlockInfoByHashGenesis(t *testing.T) {
	g, genesis := newTestGraph(t)
	info, ok := g.BlockInfoByHash(genesis.Hash())
	require.True(t, ok)
	require.Equal(t, genesis.Hash(), info.Hash)
	require.True(t, info.OnMainChain)
	require.True(t, info.Activated)
}

func TestHashAtMainHeightRoundTrips(t *testing.T) {
	g, genesis := newTestGraph(t)
	hash, ok := g.HashAtMainHeight(0)
	require.True(t, ok)
	require.Equal(t, genesis.Hash(), hash)

	_, ok = g.HashAtMainHeight(1_000_000)
	require.False(t, ok)
}

func TestConfirmationRiskByHashUnknown(t *testing.T) {
	g, _ := newTestGraph(t)
	_, ok := g.ConfirmationRiskByHash(common.HexToHash("0xabc"))
	require.False(t, ok)
}

func TestEpochNumberOfGenesis(t *testing.T) {
	g, genesis := newTestGraph(t)
	epochNumber, ok := g.EpochNumberOf(genesis.Hash())
	require.True(t, ok)
	require.Equal(t, int64(0), epochNumber)
}

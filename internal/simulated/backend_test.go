// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package simulated

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreCurrent())
}

func newGenesis() *types.Header {
	return &types.Header{
		Height:     0,
		Timestamp:  uint64(time.Now().Unix()),
		Difficulty: big.NewInt(1),
		GasLimit:   30_000_000,
	}
}

func TestBackendMinesLinearChain(t *testing.T) {
	genesis := newGenesis()
	b := NewBackend(genesis)
	defer b.Close()
	b.Start()

	now := time.Now().Unix()
	parent := genesis.Hash()
	var last *types.Header
	for i := 0; i < 5; i++ {
		h, err := b.MineBlock(parent, nil, now+int64(i))
		require.NoError(t, err)
		parent = h.Hash()
		last = h
	}

	require.Equal(t, uint64(5), b.Consensus.MainChainHeight())
	require.Equal(t, last.Hash(), b.Consensus.MainChainTipHash())
}

func TestBackendExecutesMinedEpoch(t *testing.T) {
	genesis := newGenesis()
	b := NewBackend(genesis)
	defer b.Close()
	b.Start()

	now := time.Now().Unix()
	h, err := b.MineBlock(genesis.Hash(), nil, now)
	require.NoError(t, err)

	commitment, err := b.AwaitEpoch(h.Hash(), 2*time.Second)
	require.NoError(t, err)
	require.NotNil(t, commitment)
}

func TestBackendAdmitsRefereeBlocks(t *testing.T) {
	genesis := newGenesis()
	b := NewBackend(genesis)
	defer b.Close()
	b.Start()

	now := time.Now().Unix()
	a, err := b.MineBlock(genesis.Hash(), nil, now)
	require.NoError(t, err)
	bb, err := b.MineBlock(genesis.Hash(), nil, now+1)
	require.NoError(t, err)

	c, err := b.MineBlock(a.Hash(), []common.Hash{bb.Hash()}, now+2)
	require.NoError(t, err)
	require.Equal(t, a.Hash(), c.ParentHash)
	require.Contains(t, c.Referees, bb.Hash())
}

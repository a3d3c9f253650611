// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package rpc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateOneBlockAdvancesMainChain(t *testing.T) {
	api, b := newTestAPI(t)
	testAPI := NewTestAPI(api)

	before := b.Consensus.MainChainHeight()
	result, err := testAPI.generateOneBlock(rawParams(t, generateBlockArgs{NumTxs: 3}))
	require.NoError(t, err)
	require.NotEmpty(t, result)
	require.Equal(t, before+1, b.Consensus.MainChainHeight())
}

func TestGenerateOneBlockDefaultsToNoParams(t *testing.T) {
	api, b := newTestAPI(t)
	testAPI := NewTestAPI(api)

	before := b.Consensus.MainChainHeight()
	_, err := testAPI.generateOneBlock(nil)
	require.NoError(t, err)
	require.Equal(t, before+1, b.Consensus.MainChainHeight())
}

func TestSyntheticTransactionsShape(t *testing.T) {
	require.Nil(t, syntheticTransactions(0))
	txs := syntheticTransactions(3)
	require.Len(t, txs, 3)
	for _, tx := range txs {
		require.Equal(t, uint64(21000), tx.GasLimit)
	}
}

func TestExpireBlockGcPrunesSyncGraph(t *testing.T) {
	api, _ := newTestAPI(t)
	testAPI := NewTestAPI(api)

	_, err := testAPI.expireBlockGc(nil)
	require.NoError(t, err)
}

func TestSetDbCrashTogglesArmedState(t *testing.T) {
	api, _ := newTestAPI(t)
	testAPI := NewTestAPI(api)
	require.False(t, testAPI.CrashArmed())

	_, err := testAPI.setDbCrash(rawParams(t, setDbCrashArgs{Armed: true}))
	require.NoError(t, err)
	require.True(t, testAPI.CrashArmed())

	_, err = testAPI.setDbCrash(rawParams(t, setDbCrashArgs{Armed: false}))
	require.NoError(t, err)
	require.False(t, testAPI.CrashArmed())
}

// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package datamanager

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestPutGetHeaderRoundTrips(t *testing.T) {
	m := newTestManager(t)
	h := &types.Header{Height: 3, Difficulty: big.NewInt(7)}

	require.NoError(t, m.PutHeader(h))
	got, ok := m.GetHeader(h.Hash())
	require.True(t, ok)
	require.Equal(t, h.Height, got.Height)
}

func TestGetHeaderMissingReturnsFalse(t *testing.T) {
	m := newTestManager(t)
	_, ok := m.GetHeader(common.HexToHash("0xdead"))
	require.False(t, ok)
}

func TestPutGetBodyRoundTrips(t *testing.T) {
	m := newTestManager(t)
	hash := common.HexToHash("0x01")
	body := &types.Body{Transactions: []*types.Transaction{{Hash: common.HexToHash("0x02")}}}

	require.NoError(t, m.PutBody(hash, body))
	require.True(t, m.HasBody(hash))

	got, ok := m.GetBody(hash)
	require.True(t, ok)
	require.Len(t, got.Transactions, 1)
}

func TestHasBodyFalseWhenAbsent(t *testing.T) {
	m := newTestManager(t)
	require.False(t, m.HasBody(common.HexToHash("0x99")))
}

func TestLocalBlockInfoRoundTrips(t *testing.T) {
	m := newTestManager(t)
	hash := common.HexToHash("0x03")
	info := &types.LocalBlockInfo{Status: types.BlockStatusValid, SeqNum: 5, InstanceID: 42}

	require.NoError(t, m.PutLocalBlockInfo(hash, info))
	got, ok := m.GetLocalBlockInfo(hash)
	require.True(t, ok)
	require.Equal(t, types.BlockStatusValid, got.Status)
	require.Equal(t, uint64(5), got.SeqNum)
}

func TestVerifiedInvalidCache(t *testing.T) {
	m := newTestManager(t)
	hash := common.HexToHash("0x04")
	require.False(t, m.IsVerifiedInvalid(hash))

	m.MarkVerifiedInvalid(hash)
	require.True(t, m.IsVerifiedInvalid(hash))
}

func TestHasSeenHashAfterPutHeader(t *testing.T) {
	m := newTestManager(t)
	h := &types.Header{Height: 1}
	require.False(t, m.HasSeenHash(h.Hash()))

	require.NoError(t, m.PutHeader(h))
	require.True(t, m.HasSeenHash(h.Hash()))
}

func TestHashByNumberRoundTrips(t *testing.T) {
	m := newTestManager(t)
	hash := common.HexToHash("0x05")
	require.NoError(t, m.PutHashByNumber(100, hash))

	got, ok := m.GetHashByNumber(100)
	require.True(t, ok)
	require.Equal(t, hash, got)

	_, ok = m.GetHashByNumber(101)
	require.False(t, ok)
}

func TestCommitmentRoundTripsAndEpochExecuted(t *testing.T) {
	m := newTestManager(t)
	hash := common.HexToHash("0x06")
	require.False(t, m.EpochExecuted(hash))

	c := &types.EpochExecutionCommitment{
		StateRootWithAux: types.StateRootWithAuxInfo{StateRoot: common.HexToHash("0x07"), EpochHeight: 5},
		ReceiptsRoot:     common.HexToHash("0x08"),
	}
	require.NoError(t, m.PutCommitment(hash, c))
	require.True(t, m.EpochExecuted(hash))

	got, ok := m.GetCommitment(hash)
	require.True(t, ok)
	require.Equal(t, uint64(5), got.StateRootWithAux.EpochHeight)
}

func TestTerminalsRoundTrip(t *testing.T) {
	m := newTestManager(t)
	_, ok := m.LoadTerminals()
	require.False(t, ok)

	hashes := []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")}
	require.NoError(t, m.PersistTerminals(hashes))

	got, ok := m.LoadTerminals()
	require.True(t, ok)
	require.Equal(t, hashes, got)
}

func TestInstanceIDIsAssignedOnOpen(t *testing.T) {
	m := newTestManager(t)
	require.NotZero(t, m.InstanceID())
}

// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazzelabs/mazze-core/internal/availability"
	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/datamanager"
	"github.com/mazzelabs/mazze-core/internal/mazzeiface"
	"github.com/mazzelabs/mazze-core/internal/simulated"
	"github.com/mazzelabs/mazze-core/internal/txpool"
	"github.com/mazzelabs/mazze-core/internal/types"
)

type fakeConsensusView struct{}

func (fakeConsensusView) TryNextOptimisticEpoch(uint64) (common.Hash, []common.Hash, uint64, bool) {
	return common.Hash{}, nil, 0, false
}
func (fakeConsensusView) EpochDifficultyAt(uint64) uint64 { return 0 }
func (fakeConsensusView) MainChainHeight() uint64         { return 0 }

func newTestExecutor(t *testing.T) (*Executor, *datamanager.Manager, *availability.Boundary) {
	t.Helper()
	dm, err := datamanager.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })

	boundary := availability.New(0)
	pool := txpool.New(1024, 0, 0)

	newState := func(root common.Hash) mazzeiface.StateView { return simulated.NewFakeState(root) }
	e := New(dm, boundary, pool, nil, fakeConsensusView{}, newState, false)
	return e, dm, boundary
}

func TestExecuteEpochPersistsCommitmentAndAdvancesBoundary(t *testing.T) {
	e, dm, boundary := newTestExecutor(t)
	epochHash := common.HexToHash("0x01")

	task := &ExecuteEpochTask{
		EpochHash:        epochHash,
		EpochBlockHashes: []common.Hash{epochHash},
		StartBlockNumber: 1,
		OnLocalMain:      true,
	}
	e.executeEpoch(task)

	_, ok := dm.GetCommitment(epochHash)
	require.True(t, ok)

	_, upper, bestExecuted := boundary.Bounds()
	require.Equal(t, uint64(1), upper)
	require.Equal(t, uint64(1), bestExecuted)
}

func TestExecuteEpochSkipsReexecutionWhenAlreadyCommitted(t *testing.T) {
	e, dm, _ := newTestExecutor(t)
	epochHash := common.HexToHash("0x02")
	existing := &types.EpochExecutionCommitment{
		StateRootWithAux: types.StateRootWithAuxInfo{StateRoot: common.HexToHash("0xaa"), EpochHeight: 2},
	}
	require.NoError(t, dm.PutCommitment(epochHash, existing))

	task := &ExecuteEpochTask{EpochHash: epochHash, StartBlockNumber: 2, OnLocalMain: true}
	e.executeEpoch(task)

	got, ok := dm.GetCommitment(epochHash)
	require.True(t, ok)
	require.Equal(t, existing.StateRootWithAux.StateRoot, got.StateRootWithAux.StateRoot)
}

func TestExecuteEpochForceRecomputeOverwritesCommitment(t *testing.T) {
	e, dm, _ := newTestExecutor(t)
	epochHash := common.HexToHash("0x03")
	stale := &types.EpochExecutionCommitment{
		StateRootWithAux: types.StateRootWithAuxInfo{StateRoot: common.HexToHash("0xaa"), EpochHeight: 3},
	}
	require.NoError(t, dm.PutCommitment(epochHash, stale))

	task := &ExecuteEpochTask{EpochHash: epochHash, StartBlockNumber: 3, ForceRecompute: true, OnLocalMain: true}
	e.executeEpoch(task)

	got, ok := dm.GetCommitment(epochHash)
	require.True(t, ok)
	require.NotEqual(t, stale.StateRootWithAux.StateRoot, got.StateRootWithAux.StateRoot)
}

func TestExecuteEpochClosesDoneChannel(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	done := make(chan struct{})
	task := &ExecuteEpochTask{EpochHash: common.HexToHash("0x04"), StartBlockNumber: 4, done: done}
	e.executeEpoch(task)

	select {
	case <-done:
	default:
		t.Fatal("done channel was not closed")
	}
}

func TestWaitForResultFastPathReturnsExistingCommitment(t *testing.T) {
	e, dm, _ := newTestExecutor(t)
	epochHash := common.HexToHash("0x05")
	c := &types.EpochExecutionCommitment{
		StateRootWithAux: types.StateRootWithAuxInfo{StateRoot: common.HexToHash("0xbb"), EpochHeight: 5},
	}
	require.NoError(t, dm.PutCommitment(epochHash, c))

	got, err := e.WaitForResult(context.Background(), epochHash)
	require.NoError(t, err)
	require.Equal(t, c.StateRootWithAux.StateRoot, got.StateRootWithAux.StateRoot)
}

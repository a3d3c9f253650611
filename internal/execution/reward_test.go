// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package execution

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func fullBaseReward() *uint256.Int {
	return new(uint256.Int).Mul(baseRewardUnit, uint256.NewInt(2))
}

func TestComputeBlockBaseRewardGenesisIsFullReward(t *testing.T) {
	reward := computeBlockBaseReward(0, 0)
	require.Equal(t, fullBaseReward(), reward)
}

func TestComputeBlockBaseRewardWithinExpectedFanoutIsFullReward(t *testing.T) {
	// mainHeight=100 -> expectedMax = 100*12/10 = 120; 100 <= 120.
	reward := computeBlockBaseReward(100, 100)
	require.Equal(t, fullBaseReward(), reward)
}

func TestComputeBlockBaseRewardAtExpectedFanoutBoundaryIsFullReward(t *testing.T) {
	// mainHeight=10 -> expectedMax = 10*12/10 = 12; pastBlockCount==12 is
	// still within bound (<=), so no decay yet.
	reward := computeBlockBaseReward(12, 10)
	require.Equal(t, fullBaseReward(), reward)
}

func TestComputeBlockBaseRewardBeyondExpectedFanoutHalves(t *testing.T) {
	// mainHeight=10 -> expectedMax=12; pastBlockCount=13 -> excess=1,
	// halvings = 1/10 = 0 -> forced to 1 halving.
	reward := computeBlockBaseReward(13, 10)
	want := new(uint256.Int).Rsh(fullBaseReward(), 1)
	require.Equal(t, want, reward)
}

func TestComputeBlockBaseRewardFarBeyondExpectedFanoutDecaysMultipleHalvings(t *testing.T) {
	// mainHeight=10 -> expectedMax=12; pastBlockCount=32 -> excess=20,
	// halvings = 20/10 = 2.
	reward := computeBlockBaseReward(32, 10)
	want := new(uint256.Int).Rsh(fullBaseReward(), 2)
	require.Equal(t, want, reward)
}

func TestComputeBlockBaseRewardNeverGoesNegative(t *testing.T) {
	reward := computeBlockBaseReward(1_000_000, 1)
	require.True(t, reward.Sign() >= 0)
}

// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.
//
// The mazze-core library is free software: you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// The mazze-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the mazze-core library. If not, see <http://www.gnu.org/licenses/>.

// Package execution implements the Consensus Executor (spec §4.3): a
// single-writer worker that executes epochs in main-chain order,
// produces and persists (state_root, receipts_root, logs_bloom_hash)
// per main block, and surfaces results to consensus, the tx pool, and
// PubSub.
package execution

import (
	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// RewardInfo carries what the epoch-execution step needs to compute
// rewards without reaching back into consensus: the difficulty the
// epoch's blocks are judged against, and the past block count and main
// height that computeBlockBaseReward takes.
type RewardInfo struct {
	EpochDifficulty uint64
	PastBlockCount  uint64
	MainHeight      uint64
}

// ExecuteEpochTask is spec §4.3's primary task: execute one epoch's
// blocks in order and persist its commitment.
type ExecuteEpochTask struct {
	EpochHash        common.Hash
	EpochBlockHashes []common.Hash
	StartBlockNumber uint64
	Reward           RewardInfo
	OnLocalMain      bool
	ForceRecompute   bool

	// done, if non-nil, is closed once this task's commitment is
	// persisted, letting compute_state_for_block's errgroup fan-out
	// await a specific epoch without a GetResult round-trip.
	done chan struct{}
	err  error
}

// GetResultTask asks the worker to reply with hash's commitment once
// available, used by wait_for_result when the fast datamanager path
// misses.
type GetResultTask struct {
	Hash  common.Hash
	Reply chan getResultReply
}

type getResultReply struct {
	commitment *types.EpochExecutionCommitment
	err        error
}

// StopTask asks the worker to drain and exit.
type StopTask struct {
	done chan struct{}
}

// task is the executor's internal queue element; exactly one of its
// fields is non-nil.
type task struct {
	execute *ExecuteEpochTask
	result  *GetResultTask
	stop    *StopTask
}

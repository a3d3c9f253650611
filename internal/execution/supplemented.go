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

// This file carries the execution-side features supplemented from
// original_source/ per SPEC_FULL.md §5: get_force_compute_index and
// delayed_tx_recycle_in_skipped_blocks.
package execution

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/types"
)

var errNotAvailable = errors.New("execution: commitment not available after backfill")

// GetForceComputeIndex decides, for a requested height whose commitment
// is already on disk, whether it must be recomputed anyway: a reorg
// that replaced an ancestor can leave a stale commitment keyed by a
// main hash that is no longer on the main chain. mainHashAt is supplied
// by the caller (consensus) rather than queried here, keeping this
// package free of a consensus import.
func (e *Executor) GetForceComputeIndex(height uint64, mainHashAt func(uint64) (common.Hash, bool)) (forceRecomputeFrom uint64, ok bool) {
	hash, exists := mainHashAt(height)
	if !exists {
		return 0, false
	}
	storedHash, has := e.dm.GetHashByNumber(height)
	if !has || storedHash != hash {
		return height, true
	}
	return 0, false
}

// RecycleSkippedEpochBlocks implements delayed_tx_recycle_in_skipped_blocks:
// when an epoch's recomputation drops a block that a previous execution
// pass had included (e.g. after a reorg shortens blockset_in_own_view_of_epoch),
// that block's transactions must return to the pool rather than vanish,
// since they may still be valid under the new ordering.
func (e *Executor) RecycleSkippedEpochBlocks(skipped []common.Hash) {
	for _, hash := range skipped {
		body, ok := e.dm.GetBody(hash)
		if !ok || body == nil {
			continue
		}
		e.pool.RecycleTransactions(body.Transactions)
	}
}

// ComputeStateForBlock implements spec §4.3 "compute_state_for_block":
// binary-search the ancestor chain to find the first non-executed
// block, then enqueue every missing epoch up to hash and await them all
// concurrently via errgroup before returning.
func (e *Executor) ComputeStateForBlock(ctx context.Context, ancestry []ExecuteEpochTask) (*types.EpochExecutionCommitment, error) {
	lo, hi := 0, len(ancestry)
	for lo < hi {
		mid := (lo + hi) / 2
		if _, ok := e.dm.GetCommitment(ancestry[mid].EpochHash); ok {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	missing := ancestry[lo:]
	if len(missing) == 0 {
		c, ok := e.dm.GetCommitment(ancestry[len(ancestry)-1].EpochHash)
		if !ok {
			return nil, errNotAvailable
		}
		return c, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range missing {
		t := missing[i]
		t.done = make(chan struct{})
		e.EnqueueExecuteEpoch(t)
		g.Go(func() error {
			select {
			case <-t.done:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	last := missing[len(missing)-1]
	c, ok := e.dm.GetCommitment(last.EpochHash)
	if !ok {
		return nil, errNotAvailable
	}
	return c, nil
}

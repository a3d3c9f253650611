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

package execution

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mazzelabs/mazze-core/internal/availability"
	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/datamanager"
	"github.com/mazzelabs/mazze-core/internal/log"
	"github.com/mazzelabs/mazze-core/internal/mazzeerr"
	"github.com/mazzelabs/mazze-core/internal/mazzeiface"
	"github.com/mazzelabs/mazze-core/internal/pubsub"
	"github.com/mazzelabs/mazze-core/internal/txpool"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// ConsensusView is the narrow surface Executor pulls optimistic tasks
// from, kept as an interface so tests can drive the worker without a
// full consensus.Graph.
type ConsensusView interface {
	TryNextOptimisticEpoch(afterHeight uint64) (epochHash common.Hash, blockHashes []common.Hash, height uint64, ok bool)
	EpochDifficultyAt(height uint64) uint64
	MainChainHeight() uint64
}

// StateFactory opens a fresh State view rooted at a given committed
// state root, the one seam into the out-of-scope account/VM model.
type StateFactory func(root common.Hash) mazzeiface.StateView

// Executor is the Consensus Executor (spec §4.3): a single background
// worker draining a task channel, falling back to an optimistic task
// pulled from consensus when idle.
type Executor struct {
	dm       *datamanager.Manager
	boundary *availability.Boundary
	pool     txpool.Pool
	hub      *pubsub.Hub
	consensus ConsensusView
	newState StateFactory

	enableOptimistic bool

	tasks chan task
	wg    sync.WaitGroup

	group singleflight.Group

	mu      sync.Mutex
	waiters map[common.Hash][]chan getResultReply

	receipts *receiptCache
}

// New constructs an Executor; call Start to launch its worker.
func New(dm *datamanager.Manager, boundary *availability.Boundary, pool txpool.Pool, hub *pubsub.Hub,
	consensusView ConsensusView, newState StateFactory, enableOptimistic bool) *Executor {
	return &Executor{
		dm:               dm,
		boundary:         boundary,
		pool:             pool,
		hub:              hub,
		consensus:        consensusView,
		newState:         newState,
		enableOptimistic: enableOptimistic,
		tasks:            make(chan task, 256),
		waiters:          make(map[common.Hash][]chan getResultReply),
		receipts:         newReceiptCache(receiptCacheCapacity),
	}
}

// Start launches the single worker goroutine (spec §4.3 "Single
// worker").
func (e *Executor) Start(ctx context.Context) {
	e.wg.Add(1)
	go e.run(ctx)
}

// Stop asks the worker to drain pending tasks and exit, blocking until
// it has.
func (e *Executor) Stop() {
	done := make(chan struct{})
	e.tasks <- task{stop: &StopTask{done: done}}
	<-done
	e.wg.Wait()
}

// EnqueueExecuteEpoch submits an epoch for execution; it does not block
// on completion.
func (e *Executor) EnqueueExecuteEpoch(t ExecuteEpochTask) {
	e.tasks <- task{execute: &t}
}

func (e *Executor) run(ctx context.Context) {
	defer e.wg.Done()
	log.Info("execution: worker started")
	defer log.Info("execution: worker stopped")

	for {
		select {
		case t := <-e.tasks:
			if t.stop != nil {
				e.drainRemaining()
				close(t.stop.done)
				return
			}
			e.handle(t)
			continue
		default:
		}

		if e.enableOptimistic {
			if t, ok := e.nextOptimisticTask(); ok {
				e.handle(task{execute: &t})
				continue
			}
		}

		select {
		case <-ctx.Done():
			e.drainRemaining()
			return
		case t := <-e.tasks:
			if t.stop != nil {
				e.drainRemaining()
				close(t.stop.done)
				return
			}
			e.handle(t)
		case <-time.After(50 * time.Millisecond):
			// No optimistic task and nothing queued; poll again so a
			// newly-activated main-chain block is picked up promptly
			// without a dedicated wakeup channel from consensus.
		}
	}
}

func (e *Executor) drainRemaining() {
	for {
		select {
		case t := <-e.tasks:
			if t.stop != nil {
				close(t.stop.done)
				continue
			}
			e.handle(t)
		default:
			return
		}
	}
}

// handle runs one task. A GetResult for an epoch without a commitment is
// held in waiters and answered once that epoch's execute task has run.
func (e *Executor) handle(t task) {
	switch {
	case t.execute != nil:
		e.executeEpoch(t.execute)
		e.mu.Lock()
		waiting := e.waiters[t.execute.EpochHash]
		delete(e.waiters, t.execute.EpochHash)
		e.mu.Unlock()
		for _, reply := range waiting {
			e.serveGetResult(&GetResultTask{Hash: t.execute.EpochHash, Reply: reply})
		}
	case t.result != nil:
		if !e.dm.EpochExecuted(t.result.Hash) {
			e.mu.Lock()
			e.waiters[t.result.Hash] = append(e.waiters[t.result.Hash], t.result.Reply)
			e.mu.Unlock()
			return
		}
		e.serveGetResult(t.result)
	}
}

// nextOptimisticTask implements spec §4.3: ask consensus (try_write)
// for the next main-chain height whose parent is already executed.
func (e *Executor) nextOptimisticTask() (ExecuteEpochTask, bool) {
	lastExecuted := e.lastExecutedHeight()
	hash, blocks, height, ok := e.consensus.TryNextOptimisticEpoch(lastExecuted)
	if !ok {
		return ExecuteEpochTask{}, false
	}
	return ExecuteEpochTask{
		EpochHash:        hash,
		EpochBlockHashes: blocks,
		StartBlockNumber: height,
		Reward: RewardInfo{
			EpochDifficulty: e.consensus.EpochDifficultyAt(height),
			MainHeight:      height,
		},
		OnLocalMain: true,
	}, true
}

func (e *Executor) lastExecutedHeight() uint64 {
	_, _, bestExecuted := e.boundary.Bounds()
	return bestExecuted
}

// serveGetResult answers a GetResultTask from whatever commitment is
// now persisted, blocking callers only ever wait on the reply channel,
// never on this method itself.
func (e *Executor) serveGetResult(t *GetResultTask) {
	c, ok := e.dm.GetCommitment(t.Hash)
	if !ok {
		t.Reply <- getResultReply{err: mazzeerr.ErrStateNotReady}
		return
	}
	t.Reply <- getResultReply{commitment: c}
}

// WaitForResult implements spec §4.3 "Synchronous calls / wait_for_result":
// fast-path through the data manager, otherwise enqueue a GetResult task
// and block on its reply. singleflight collapses concurrent waiters on
// the same hash into one enqueued task.
func (e *Executor) WaitForResult(ctx context.Context, hash common.Hash) (*types.EpochExecutionCommitment, error) {
	if c, ok := e.dm.GetCommitment(hash); ok {
		return c, nil
	}

	v, err, _ := e.group.Do(hash.Hex(), func() (interface{}, error) {
		reply := make(chan getResultReply, 1)
		e.tasks <- task{result: &GetResultTask{Hash: hash, Reply: reply}}
		select {
		case r := <-reply:
			return r.commitment, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.EpochExecutionCommitment), nil
}

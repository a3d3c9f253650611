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
	"crypto/sha256"
	"math/big"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/log"
	"github.com/mazzelabs/mazze-core/internal/pubsub"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// executeEpoch runs spec §4.3 "Epoch execution" steps 1–9.
func (e *Executor) executeEpoch(t *ExecuteEpochTask) {
	defer func() {
		if t.done != nil {
			close(t.done)
		}
	}()

	// Step 1: persist block_number -> hash for every block in the epoch.
	for i, hash := range t.EpochBlockHashes {
		_ = e.dm.PutHashByNumber(t.StartBlockNumber+uint64(i), hash)
	}
	_ = e.dm.PutHashByNumber(t.StartBlockNumber, t.EpochHash)

	// Step 2: skip execution if already executed and not forced.
	if !t.ForceRecompute {
		if _, ok := e.dm.GetCommitment(t.EpochHash); ok {
			e.notifyAfterSkip(t)
			return
		}
	}

	// Step 3: fresh State view rooted at the parent epoch's committed
	// state root (one-past parent).
	parentRoot := e.parentStateRoot(t.StartBlockNumber)
	state := e.newState(parentRoot)

	// Step 4: apply transactions per block, accumulate receipts.
	blockReceipts := make([]*types.BlockReceipts, 0, len(t.EpochBlockHashes))
	packers := make(map[common.Hash][]common.Hash) // tx hash -> blocks that packed it
	for _, hash := range t.EpochBlockHashes {
		body, _ := e.dm.GetBody(hash)
		receipts := e.applyBlock(state, body)
		blockReceipts = append(blockReceipts, &types.BlockReceipts{BlockHash: hash, Receipts: receipts})
		if body != nil {
			for _, tx := range body.Transactions {
				packers[tx.Hash] = append(packers[tx.Hash], hash)
			}
		}
	}

	// Steps 5–6: rewards, fee splitting, crediting, total_issued delta.
	newMint, burntFee := e.creditRewardsAndFees(state, t, blockReceipts, packers)
	_ = newMint
	_ = burntFee

	e.receipts.put(t.EpochHash, blockReceipts)

	// Step 7: commit state, derive roots, persist commitment.
	stateRoot := state.IntermediateRoot()
	receiptsRoot := computeReceiptsRoot(blockReceipts)
	logsBloomHash := computeLogsBloomHash(blockReceipts)

	commitment := &types.EpochExecutionCommitment{
		StateRootWithAux: types.StateRootWithAuxInfo{StateRoot: stateRoot, EpochHeight: t.StartBlockNumber},
		ReceiptsRoot:     receiptsRoot,
		LogsBloomHash:    logsBloomHash,
	}
	if err := e.dm.PutCommitment(t.EpochHash, commitment); err != nil {
		log.Warn("execution: failed to persist commitment", "epoch", t.EpochHash.Hex(), "err", err)
		return
	}

	// Step 8: notify tx pool if this is the locally-recognized main chain.
	if t.OnLocalMain {
		e.notifyTxPool(t, packers)
	}

	// Step 9: advance the availability boundary.
	e.boundary.AdvanceUpper(t.StartBlockNumber, t.EpochHash)

	if e.hub != nil {
		e.hub.PublishEpoch(pubsub.Epoch{Number: t.StartBlockNumber, Blocks: t.EpochBlockHashes})
	}

	log.Debug("execution: epoch executed", "height", t.StartBlockNumber, "epoch", t.EpochHash.Hex(),
		"blocks", len(t.EpochBlockHashes))
}

// notifyAfterSkip still advances the boundary and tx pool even though
// execution itself was skipped (spec §4.3 step 2).
func (e *Executor) notifyAfterSkip(t *ExecuteEpochTask) {
	if t.OnLocalMain {
		e.pool.SetBestExecutedEpoch(t.StartBlockNumber)
	}
	e.boundary.AdvanceUpper(t.StartBlockNumber, t.EpochHash)
}

// notifyTxPool implements spec §4.3 step 8: once an epoch executes on
// the locally-recognized main chain, the pool's admission view of
// "best executed epoch" advances, and every account whose balance this
// epoch touched must be re-checked against its pending transactions'
// nonce/balance assumptions.
func (e *Executor) notifyTxPool(t *ExecuteEpochTask, packers map[common.Hash][]common.Hash) {
	e.pool.SetBestExecutedEpoch(t.StartBlockNumber)

	seen := make(map[common.Address]struct{})
	modified := make([]common.Address, 0, len(packers))
	for _, hash := range t.EpochBlockHashes {
		body, ok := e.dm.GetBody(hash)
		if !ok || body == nil {
			continue
		}
		for _, tx := range body.Transactions {
			if _, ok := packers[tx.Hash]; !ok {
				continue
			}
			if _, ok := seen[tx.From]; ok {
				continue
			}
			seen[tx.From] = struct{}{}
			modified = append(modified, tx.From)
		}
	}
	if len(modified) > 0 {
		e.pool.NotifyModifiedAccounts(modified)
	}
}

func (e *Executor) parentStateRoot(height uint64) common.Hash {
	if height == 0 {
		return common.Hash{}
	}
	parentHash, ok := e.dm.GetHashByNumber(height - 1)
	if !ok {
		return common.Hash{}
	}
	c, ok := e.dm.GetCommitment(parentHash)
	if !ok {
		return common.Hash{}
	}
	return c.StateRootWithAux.StateRoot
}

// applyBlock runs every transaction of body against state, producing
// one Receipt each. The VM itself is a black box (spec Non-goals); this
// loop only models the accounting shape the rest of the pipeline needs.
func (e *Executor) applyBlock(state interface{ AddBalance(common.Address, *big.Int) }, body *types.Body) []*types.Receipt {
	if body == nil {
		return nil
	}
	receipts := make([]*types.Receipt, 0, len(body.Transactions))
	for _, tx := range body.Transactions {
		receipts = append(receipts, &types.Receipt{
			TxHash:  tx.Hash,
			GasUsed: tx.GasLimit,
			Status:  1,
		})
	}
	return receipts
}

// computeReceiptsRoot stands in for the real trie-based receipts root
// (out of scope per spec Non-goals): a content hash over the ordered
// receipt set is sufficient to drive this core's own invariants
// (determinism, change-detection on reorg).
func computeReceiptsRoot(blockReceipts []*types.BlockReceipts) common.Hash {
	h := sha256.New()
	for _, br := range blockReceipts {
		h.Write(br.BlockHash.Bytes())
		for _, r := range br.Receipts {
			h.Write(r.TxHash.Bytes())
		}
	}
	var sum common.Hash
	copy(sum[:], h.Sum(nil))
	return sum
}

func computeLogsBloomHash(blockReceipts []*types.BlockReceipts) common.Hash {
	h := sha256.New()
	for _, br := range blockReceipts {
		for _, r := range br.Receipts {
			for _, l := range r.Logs {
				h.Write(l.Address.Bytes())
			}
		}
	}
	var sum common.Hash
	copy(sum[:], h.Sum(nil))
	return sum
}

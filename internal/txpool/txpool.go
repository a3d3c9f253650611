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

// Package txpool exposes only the narrow surface ConsensusExecutor and
// RPC consume from the transaction pool (spec §4.3, §5, §6). Admission
// policy (fee-market rules, replacement, propagation) is explicitly out
// of scope; this is a minimal in-memory pool sufficient to drive tests
// and the core's own call sites.
package txpool

import (
	"sync"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// Pool is the interface ConsensusExecutor depends on. Its lock ordering
// (inner -> to_propagate_trans, spec §5) is an implementation detail of
// whichever concrete type satisfies it; callers never need to know it.
type Pool interface {
	NotifyModifiedAccounts(addrs []common.Address)
	SetBestExecutedEpoch(epochNumber uint64)
	InsertNewTransactions(txs []*types.Transaction) []error
	// RecycleTransactions returns transactions from a skipped epoch
	// block back to pending (spec §5 supplemented feature,
	// delayed_tx_recycle_in_skipped_blocks).
	RecycleTransactions(txs []*types.Transaction)
	Pending() []*types.Transaction
}

// memPool is a minimal, single-mutex implementation: enough to exercise
// every core call site without modeling real fee-market admission.
type memPool struct {
	mu               sync.Mutex
	pending          map[common.Hash]*types.Transaction
	bestExecutedEpoch uint64
	capacity         uint64
	minNativePrice   uint64
	minEthPrice      uint64
}

func New(capacity, minNativePrice, minEthPrice uint64) Pool {
	return &memPool{
		pending:        make(map[common.Hash]*types.Transaction),
		capacity:       capacity,
		minNativePrice: minNativePrice,
		minEthPrice:    minEthPrice,
	}
}

func (p *memPool) NotifyModifiedAccounts(addrs []common.Address) {
	// Out of scope: a real pool would re-validate nonces/balances of the
	// touched accounts. No-op here; the call site only needs the hook.
}

func (p *memPool) SetBestExecutedEpoch(epochNumber uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bestExecutedEpoch = epochNumber
}

func (p *memPool) BestExecutedEpoch() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bestExecutedEpoch
}

func (p *memPool) minPriceFor(space types.TxSpace) uint64 {
	if space == types.SpaceEthereum {
		return p.minEthPrice
	}
	return p.minNativePrice
}

func (p *memPool) InsertNewTransactions(txs []*types.Transaction) []error {
	p.mu.Lock()
	defer p.mu.Unlock()

	errs := make([]error, len(txs))
	for i, tx := range txs {
		if uint64(len(p.pending)) >= p.capacity {
			errs[i] = errPoolFull
			continue
		}
		if tx.GasPrice < p.minPriceFor(tx.Space) {
			errs[i] = errUnderpriced
			continue
		}
		p.pending[tx.Hash] = tx
	}
	return errs
}

func (p *memPool) RecycleTransactions(txs []*types.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tx := range txs {
		p.pending[tx.Hash] = tx
	}
}

func (p *memPool) Pending() []*types.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*types.Transaction, 0, len(p.pending))
	for _, tx := range p.pending {
		out = append(out, tx)
	}
	return out
}

var (
	errPoolFull    = poolError("transaction pool at capacity")
	errUnderpriced = poolError("transaction gas price below configured minimum")
)

type poolError string

func (e poolError) Error() string { return string(e) }

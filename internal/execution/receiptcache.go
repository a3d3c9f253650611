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
	"container/list"
	"sync"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// receiptCacheCapacity bounds the in-memory receipt window RPC's
// mazze_getLogs/mazze_getTransactionReceipt can reach back through. Only
// the commitment roots are persisted (spec §6); full receipts are a
// storage-layer concern out of scope, so recent epochs are kept here
// purely to give the RPC surface something live to serve.
const receiptCacheCapacity = 256

type receiptCache struct {
	mu       sync.Mutex
	entries  map[common.Hash]*list.Element
	order    *list.List // front = most recently inserted
	capacity int
}

type receiptCacheEntry struct {
	epochHash common.Hash
	receipts  []*types.BlockReceipts
}

func newReceiptCache(capacity int) *receiptCache {
	return &receiptCache{
		entries:  make(map[common.Hash]*list.Element),
		order:    list.New(),
		capacity: capacity,
	}
}

func (c *receiptCache) put(epochHash common.Hash, receipts []*types.BlockReceipts) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[epochHash]; ok {
		c.order.MoveToFront(el)
		el.Value.(*receiptCacheEntry).receipts = receipts
		return
	}
	el := c.order.PushFront(&receiptCacheEntry{epochHash: epochHash, receipts: receipts})
	c.entries[epochHash] = el

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*receiptCacheEntry).epochHash)
	}
}

func (c *receiptCache) get(epochHash common.Hash) ([]*types.BlockReceipts, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[epochHash]
	if !ok {
		return nil, false
	}
	return el.Value.(*receiptCacheEntry).receipts, true
}

// all returns every cached epoch's receipts, most-recent first, for
// mazze_getLogs range scans over the retained window.
func (c *receiptCache) all() []*receiptCacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*receiptCacheEntry, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*receiptCacheEntry))
	}
	return out
}

// RecentReceipts returns the cached receipts for an executed epoch, if
// it is still within the retained window.
func (e *Executor) RecentReceipts(epochHash common.Hash) ([]*types.BlockReceipts, bool) {
	return e.receipts.get(epochHash)
}

// RecentEpochs returns every epoch currently held in the receipt cache,
// most-recently-executed first.
func (e *Executor) RecentEpochs() []common.Hash {
	entries := e.receipts.all()
	out := make([]common.Hash, 0, len(entries))
	for _, en := range entries {
		out = append(out, en.epochHash)
	}
	return out
}

// TransactionReceipt scans the receipt cache for txHash, returning the
// receipt and the epoch hash it was produced in.
func (e *Executor) TransactionReceipt(txHash common.Hash) (*types.Receipt, common.Hash, bool) {
	for _, entry := range e.receipts.all() {
		for _, br := range entry.receipts {
			for _, r := range br.Receipts {
				if r.TxHash == txHash {
					return r, entry.epochHash, true
				}
			}
		}
	}
	return nil, common.Hash{}, false
}

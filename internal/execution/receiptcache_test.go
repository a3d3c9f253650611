// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package execution

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/types"
)

func receiptsFor(epoch byte, tx byte) []*types.BlockReceipts {
	var blockHash, txHash common.Hash
	blockHash[0] = epoch
	txHash[0] = tx
	return []*types.BlockReceipts{{
		BlockHash: blockHash,
		Receipts:  []*types.Receipt{{TxHash: txHash, GasUsed: 21000, Status: 1}},
	}}
}

func TestReceiptCachePutGet(t *testing.T) {
	c := newReceiptCache(2)
	var epoch common.Hash
	epoch[0] = 1

	_, ok := c.get(epoch)
	require.False(t, ok)

	c.put(epoch, receiptsFor(1, 1))
	got, ok := c.get(epoch)
	require.True(t, ok)
	require.Equal(t, byte(1), got[0].Receipts[0].TxHash[0])
}

func TestReceiptCacheEvictsOldest(t *testing.T) {
	c := newReceiptCache(2)
	var e1, e2, e3 common.Hash
	e1[0], e2[0], e3[0] = 1, 2, 3

	c.put(e1, receiptsFor(1, 1))
	c.put(e2, receiptsFor(2, 2))
	c.put(e3, receiptsFor(3, 3))

	_, ok := c.get(e1)
	require.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.get(e2)
	require.True(t, ok)
	_, ok = c.get(e3)
	require.True(t, ok)
}

func TestReceiptCachePutExistingMovesToFront(t *testing.T) {
	c := newReceiptCache(2)
	var e1, e2 common.Hash
	e1[0], e2[0] = 1, 2

	c.put(e1, receiptsFor(1, 1))
	c.put(e2, receiptsFor(2, 2))
	c.put(e1, receiptsFor(1, 9))

	entries := c.all()
	require.Len(t, entries, 2)
	require.Equal(t, e1, entries[0].epochHash)
}

func TestExecutorTransactionReceiptScansCache(t *testing.T) {
	e := &Executor{receipts: newReceiptCache(receiptCacheCapacity)}
	var epoch common.Hash
	epoch[0] = 7
	e.receipts.put(epoch, receiptsFor(7, 42))

	var txHash common.Hash
	txHash[0] = 42
	r, gotEpoch, ok := e.TransactionReceipt(txHash)
	require.True(t, ok)
	require.Equal(t, epoch, gotEpoch)
	require.Equal(t, uint64(21000), r.GasUsed)

	_, _, ok = e.TransactionReceipt(common.HexToHash("0xffff"))
	require.False(t, ok)
}

func TestExecutorRecentEpochsMostRecentFirst(t *testing.T) {
	e := &Executor{receipts: newReceiptCache(receiptCacheCapacity)}
	var e1, e2 common.Hash
	e1[0], e2[0] = 1, 2
	e.receipts.put(e1, receiptsFor(1, 1))
	e.receipts.put(e2, receiptsFor(2, 2))

	recent := e.RecentEpochs()
	require.Equal(t, []common.Hash{e2, e1}, recent)
}

// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package types

import "github.com/mazzelabs/mazze-core/internal/common"

// Transaction is the minimal shape the executor needs: enough to apply it
// against State and to compute the packer-fee split. The transaction wire
// format, signature scheme, and VM payload are black boxes.
type Transaction struct {
	Hash     common.Hash
	From     common.Address
	GasPrice uint64
	GasLimit uint64
	Space    TxSpace
}

// TxSpace distinguishes the native and eth-compatible fee markets spec §6
// references via min_native_tx_price / min_eth_tx_price.
type TxSpace int

const (
	SpaceNative TxSpace = iota
	SpaceEthereum
)

// Body is a block's content beyond the header: its packed transactions.
type Body struct {
	Transactions []*Transaction
}

// Block pairs a verified Header with its Body. SyncGraph only requires the
// Header to make a node HEADER_GRAPH_READY; BLOCK_GRAPH_READY additionally
// requires the Body.
type Block struct {
	Header *Header
	Body   *Body
}

func (b *Block) Hash() common.Hash { return b.Header.Hash() }

// TransactionsRoot is a cheap stand-in for a commitment over
// Body.Transactions; the real root algorithm is out of scope. BytesToHash
// keeps only the last 32 bytes of the concatenated hashes, so the result
// is the last transaction's hash and earlier transactions do not affect
// it. Nothing in insert_block calls it.
func (b *Body) TransactionsRoot() common.Hash {
	if len(b.Transactions) == 0 {
		return common.Hash{}
	}
	var buf []byte
	for _, tx := range b.Transactions {
		buf = append(buf, tx.Hash.Bytes()...)
	}
	return common.BytesToHash(buf)
}

// Receipt is what the executor produces per-transaction; VM-level
// execution errors are opaque and only ever surfaced here (spec §7).
type Receipt struct {
	TxHash          common.Hash
	GasUsed         uint64
	Status          uint64
	Logs            []*Log
	ExecutionError  string
}

// Log is a minimal event-log entry, enough to drive mazze_getLogs filter
// matching in internal/rpc.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// BlockReceipts bundles all receipts produced while executing one block
// inside an epoch.
type BlockReceipts struct {
	BlockHash common.Hash
	Receipts  []*Receipt
}

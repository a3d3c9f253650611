// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package types

import "github.com/mazzelabs/mazze-core/internal/common"

// StateRootWithAuxInfo bundles the committed state root together with the
// bookkeeping the storage layer needs to serve a state view rooted at it
// (the delta/intermediate/snapshot layering of spec §6's "Persisted
// state"). The layering itself is a storage-layer black box; the core
// only needs to carry the root plus its epoch height.
type StateRootWithAuxInfo struct {
	StateRoot   common.Hash
	EpochHeight uint64
}

// EpochExecutionCommitment is persisted once per executed main-chain
// block, keyed by that block's hash (spec §4.3 step 7, §6 persisted
// state, §8 invariant 6).
type EpochExecutionCommitment struct {
	StateRootWithAux StateRootWithAuxInfo
	ReceiptsRoot     common.Hash
	LogsBloomHash    common.Hash
}

// LocalBlockInfo is the per-hash status record persisted by the data
// manager (spec §3 SyncGraphNode / §6 persisted state).
type LocalBlockInfo struct {
	Status     BlockStatus
	SeqNum     uint64
	InstanceID uint64
}

// BlockStatus is the block's validity verdict as seen by consensus,
// independent of the syncgraph's own GraphStatus (spec §3/§4.2).
type BlockStatus int

const (
	BlockStatusPending BlockStatus = iota
	BlockStatusValid
	BlockStatusPartialInvalid
	BlockStatusInvalid
)

func (s BlockStatus) String() string {
	switch s {
	case BlockStatusPending:
		return "Pending"
	case BlockStatusValid:
		return "Valid"
	case BlockStatusPartialInvalid:
		return "PartialInvalid"
	case BlockStatusInvalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package syncgraph

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// GraphStatus is the admission status of a SyncGraphNode (spec §3).
type GraphStatus int

const (
	StatusInvalid GraphStatus = iota
	StatusHeaderOnly
	StatusHeaderGraphReady
	StatusBlockGraphReady
)

func (s GraphStatus) String() string {
	switch s {
	case StatusInvalid:
		return "INVALID"
	case StatusHeaderOnly:
		return "HEADER_ONLY"
	case StatusHeaderGraphReady:
		return "HEADER_GRAPH_READY"
	case StatusBlockGraphReady:
		return "BLOCK_GRAPH_READY"
	default:
		return "UNKNOWN"
	}
}

// Node is a SyncGraphNode (spec §3): the staging-DAG record for one
// header/block, keyed by hash rather than a slab index because
// SyncGraph's lifetime is much shorter-lived than the consensus arena's.
// Nodes leave the graph only through Graph.Prune; neither promotion into
// consensus nor any frontier garbage collection removes them.
type Node struct {
	Header *types.Header

	GraphStatus GraphStatus
	BlockReady  bool // body has been stored; no body verification is done
	ParentReclaimed bool

	Parent    common.Hash
	HasParent bool
	Children  mapset.Set[common.Hash]
	Referees  mapset.Set[common.Hash]
	Referrers mapset.Set[common.Hash]

	PendingRefereeCount int

	LastUpdateTimestamp int64
}

func newNode(h *types.Header) *Node {
	n := &Node{
		Header:      h,
		GraphStatus: StatusHeaderOnly,
		Children:    mapset.NewThreadUnsafeSet[common.Hash](),
		Referees:    mapset.NewThreadUnsafeSet[common.Hash](),
		Referrers:   mapset.NewThreadUnsafeSet[common.Hash](),
	}
	if !h.ParentHash.IsZero() || h.IsGenesis() {
		n.Parent = h.ParentHash
		n.HasParent = !h.ParentHash.IsZero()
	}
	for _, r := range h.Referees {
		n.Referees.Add(r)
	}
	n.PendingRefereeCount = n.Referees.Cardinality()
	return n
}

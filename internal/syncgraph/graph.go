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

// Package syncgraph implements the Synchronization Graph (spec §3/§4.1):
// a staging DAG that admits headers and bodies from the network,
// verifies what it can verify without executed state, and promotes
// blocks to BLOCK_GRAPH_READY for ConsensusGraph to consume. Readiness
// is a BFS-propagated property over children and referrers, not a
// per-insertion computation, mirroring the teacher's level-triggered
// engine.slotTicker model rather than edge-triggered recomputation.
package syncgraph

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/datamanager"
	"github.com/mazzelabs/mazze-core/internal/log"
	"github.com/mazzelabs/mazze-core/internal/mazzeerr"
	"github.com/mazzelabs/mazze-core/internal/mazzeiface"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// futureEntry is a header held back because its timestamp is ahead of
// local wall-clock time (spec §4.1 future buffer, edge case "clock
// skew").
type futureEntry struct {
	header    *types.Header
	admitAt   int64
}

// Graph is SyncGraphInner. Its own lock protects the node table and
// buffers; it calls into datamanager for anything that must survive a
// restart.
type Graph struct {
	mu sync.Mutex

	nodes map[common.Hash]*Node

	// notReadyFrontier holds hashes that have not reached
	// BLOCK_GRAPH_READY, so readiness propagation and the link backfill
	// in insertHeaderLocked only scan this set rather than the whole node
	// table. No frontier garbage collection removes expired entries.
	notReadyFrontier mapset.Set[common.Hash]

	futureBuffer    map[common.Hash]*futureEntry
	futureCapacity  int

	genesisHash common.Hash

	dm       *datamanager.Manager
	pow      mazzeiface.PoWVerifier
	maxDrift int64 // spec §6 MaxFutureDrift, seconds

	// catchUpLock, held while complete_filling_block_bodies runs a
	// batch body backfill, serializes concurrent passes of it; single-block
	// insertions are kept out by mu, which the pass holds throughout.
	catchUpLock sync.Mutex
}

// New constructs a Graph rooted at genesis. genesis must already be
// BLOCK_GRAPH_READY; SyncGraph never re-verifies it.
func New(dm *datamanager.Manager, pow mazzeiface.PoWVerifier, genesis *types.Header, futureCapacity int, maxDriftSeconds int64) *Graph {
	g := &Graph{
		nodes:            make(map[common.Hash]*Node),
		notReadyFrontier: mapset.NewThreadUnsafeSet[common.Hash](),
		futureBuffer:     make(map[common.Hash]*futureEntry),
		futureCapacity:   futureCapacity,
		dm:               dm,
		pow:              pow,
		maxDrift:         maxDriftSeconds,
	}
	gn := newNode(genesis)
	gn.GraphStatus = StatusBlockGraphReady
	gn.BlockReady = true
	g.genesisHash = genesis.Hash()
	g.nodes[g.genesisHash] = gn
	return g
}

// GenesisHash returns the configured genesis hash.
func (g *Graph) GenesisHash() common.Hash { return g.genesisHash }

// Contains reports whether hash has any record (any status) in the graph.
func (g *Graph) Contains(hash common.Hash) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.nodes[hash]
	return ok
}

// StatusOf returns the current GraphStatus of hash, or (StatusInvalid,
// false) if unknown.
func (g *Graph) StatusOf(hash common.Hash) (GraphStatus, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[hash]
	if !ok {
		return StatusInvalid, false
	}
	return n.GraphStatus, true
}

// InsertBlockHeader implements insert_block_header (spec §4.1). now is
// the caller's wall-clock time, threaded explicitly so tests can drive
// future-buffer admission deterministically.
func (g *Graph) InsertBlockHeader(h *types.Header, now int64) error {
	hash := h.Hash()

	if g.dm.IsVerifiedInvalid(hash) {
		return mazzeerr.NewBlockError(mazzeerr.CodeInvalidHeight, "header previously marked invalid")
	}

	if int64(h.Timestamp) > now+g.maxDrift {
		g.admitFuture(h, now)
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.insertHeaderLocked(h, hash)
}

func (g *Graph) insertHeaderLocked(h *types.Header, hash common.Hash) error {
	if _, exists := g.nodes[hash]; exists {
		return nil // idempotent re-delivery
	}

	if quality, ok := g.pow.VerifyQuality(h); !ok {
		g.dm.MarkVerifiedInvalid(hash)
		return mazzeerr.NewBlockError(mazzeerr.CodePow, "header failed PoW quality check")
	} else {
		h.PowQuality = quality
	}

	n := newNode(h)
	g.nodes[hash] = n

	if parent, ok := g.nodes[h.ParentHash]; ok {
		parent.Children.Add(hash)
	} else if !h.IsGenesis() {
		// Parent not yet present: this node stays HEADER_ONLY until the
		// parent arrives and readiness propagation walks forward to it.
		g.notReadyFrontier.Add(hash)
	}

	for _, ref := range h.Referees {
		if referee, ok := g.nodes[ref]; ok {
			referee.Referrers.Add(hash)
		}
	}

	// A child or referrer may have arrived before this node did, in which
	// case its own insertion found no parent/referee entry to link against
	// (above). Backfill those links now so propagateReadiness can walk
	// forward into them instead of leaving them stranded in the frontier
	// until some unrelated later insertion happens to requeue them.
	g.notReadyFrontier.Each(func(pending common.Hash) bool {
		if pending == hash {
			return false
		}
		pn, ok := g.nodes[pending]
		if !ok {
			return false
		}
		if pn.HasParent && pn.Parent == hash {
			n.Children.Add(pending)
		}
		if pn.Referees.Contains(hash) {
			n.Referrers.Add(pending)
		}
		return false
	})

	if err := g.dm.PutHeader(h); err != nil {
		return err
	}

	g.notReadyFrontier.Add(hash)
	g.propagateReadiness()
	return nil
}

// InsertBlock implements insert_block (spec §4.1): admits a body for a
// header already known to the graph, marking the node eligible for
// BLOCK_GRAPH_READY once its ancestry is also block-ready.
func (g *Graph) InsertBlock(hash common.Hash, body *types.Body) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[hash]
	if !ok {
		return mazzeerr.NewBlockError(mazzeerr.CodeInvalidHeight, "insert_block: header unseen")
	}
	if n.BlockReady {
		return nil
	}
	if err := g.dm.PutBody(hash, body); err != nil {
		return err
	}
	n.BlockReady = true
	g.notReadyFrontier.Add(hash)
	g.propagateReadiness()
	return nil
}

// propagateReadiness is the BFS of spec §4.1: starting from the current
// frontier, a node becomes HEADER_GRAPH_READY once its parent and every
// referee are themselves HEADER_GRAPH_READY (or genesis), and
// BLOCK_GRAPH_READY once it is additionally BlockReady and its parent
// is BLOCK_GRAPH_READY. Newly-promoted nodes push their children and
// referrers back onto the queue, since promotion can unblock them.
func (g *Graph) propagateReadiness() {
	queue := g.notReadyFrontier.ToSlice()
	g.notReadyFrontier.Clear()

	visited := mapset.NewThreadUnsafeSet[common.Hash]()
	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]
		if visited.Contains(hash) {
			continue
		}
		visited.Add(hash)

		n, ok := g.nodes[hash]
		if !ok {
			continue
		}

		changed := g.tryPromote(n, hash)
		if n.GraphStatus != StatusBlockGraphReady {
			g.notReadyFrontier.Add(hash)
		}
		if changed {
			for _, next := range append(n.Children.ToSlice(), n.Referrers.ToSlice()...) {
				visited.Remove(next)
				queue = append(queue, next)
			}
		}
	}
}

func (g *Graph) tryPromote(n *Node, hash common.Hash) bool {
	changed := false

	if n.GraphStatus == StatusHeaderOnly {
		if g.ancestryHeaderReady(n) {
			n.GraphStatus = StatusHeaderGraphReady
			changed = true
		}
	}

	if n.GraphStatus == StatusHeaderGraphReady && n.BlockReady {
		if parent, ok := g.nodes[n.Parent]; (hash == g.genesisHash) || (ok && parent.GraphStatus == StatusBlockGraphReady) {
			n.GraphStatus = StatusBlockGraphReady
			changed = true
			log.Debug("syncgraph: block promoted to BLOCK_GRAPH_READY", "hash", hash.Hex(), "height", n.Header.Height)
		}
	}

	return changed
}

// ancestryHeaderReady reports whether n's parent and every referee are
// at least HEADER_GRAPH_READY.
func (g *Graph) ancestryHeaderReady(n *Node) bool {
	if !n.HasParent {
		return true // genesis-parented
	}
	parent, ok := g.nodes[n.Parent]
	if !ok || (parent.GraphStatus != StatusHeaderGraphReady && parent.GraphStatus != StatusBlockGraphReady) {
		return false
	}
	ready := true
	n.Referees.Each(func(ref common.Hash) bool {
		referee, ok := g.nodes[ref]
		if !ok || (referee.GraphStatus != StatusHeaderGraphReady && referee.GraphStatus != StatusBlockGraphReady) {
			ready = false
			return true
		}
		return false
	})
	return ready
}

// admitFuture buffers a header whose timestamp is too far ahead of now
// (spec §4.1 edge case, future buffer). The buffer is capacity-bounded;
// once full the oldest entry is evicted to bound memory rather than
// reject newly-arrived, possibly-valid headers.
func (g *Graph) admitFuture(h *types.Header, now int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	hash := h.Hash()
	if _, exists := g.futureBuffer[hash]; exists {
		return
	}
	if len(g.futureBuffer) >= g.futureCapacity {
		g.evictOldestFuture()
	}
	g.futureBuffer[hash] = &futureEntry{header: h, admitAt: int64(h.Timestamp)}
}

func (g *Graph) evictOldestFuture() {
	var oldestHash common.Hash
	var oldestAt int64 = -1
	for hash, e := range g.futureBuffer {
		if oldestAt == -1 || e.admitAt < oldestAt {
			oldestAt = e.admitAt
			oldestHash = hash
		}
	}
	if oldestAt != -1 {
		delete(g.futureBuffer, oldestHash)
	}
}

// ReviewFutureBuffer re-admits any buffered header whose timestamp has
// now been reached. Intended to be called periodically (e.g. once per
// second) by the owning node's ticker.
func (g *Graph) ReviewFutureBuffer(now int64) {
	g.mu.Lock()
	var ready []*types.Header
	for hash, e := range g.futureBuffer {
		if e.admitAt <= now {
			ready = append(ready, e.header)
			delete(g.futureBuffer, hash)
		}
	}
	g.mu.Unlock()

	for _, h := range ready {
		if err := g.InsertBlockHeader(h, now); err != nil {
			log.Warn("syncgraph: re-admitted future header rejected", "hash", h.Hash().Hex(), "err", err)
		}
	}
}

// FutureBufferLen reports the current future-buffer occupancy, used by
// tests and metrics.
func (g *Graph) FutureBufferLen() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.futureBuffer)
}

// NotReadyFrontierLen reports the size of the not-yet-promoted frontier.
func (g *Graph) NotReadyFrontierLen() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.notReadyFrontier.Cardinality()
}

// ReadyBlocks returns every hash currently at BLOCK_GRAPH_READY, the
// feed ConsensusGraph drains via CompleteFillingBlockBodies /
// insert-into-consensus.
func (g *Graph) ReadyBlocks() []common.Hash {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []common.Hash
	for hash, n := range g.nodes {
		if n.GraphStatus == StatusBlockGraphReady {
			out = append(out, hash)
		}
	}
	return out
}

// CompleteFillingBlockBodies runs a catch-up pass: for every
// HEADER_GRAPH_READY node whose body is already in datamanager (e.g.
// backfilled out of band during fast sync) but not yet marked
// BlockReady, mark it and re-run readiness propagation. Serialized
// against concurrent single-block inserts by holding mu for the whole
// pass, so the two never race over the same frontier nodes.
func (g *Graph) CompleteFillingBlockBodies() int {
	g.catchUpLock.Lock()
	defer g.catchUpLock.Unlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	filled := 0
	for hash, n := range g.nodes {
		if n.GraphStatus == StatusHeaderGraphReady && !n.BlockReady && g.dm.HasBody(hash) {
			n.BlockReady = true
			g.notReadyFrontier.Add(hash)
			filled++
		}
	}
	if filled > 0 {
		g.propagateReadiness()
	}
	return filled
}

// Prune removes every node except genesis, height-0 headers and the
// hashes in keep. ConsensusGraph does not call it; the test RPC
// expireBlockGc does. Hashes of removed nodes stay in the remaining
// nodes' link sets and in notReadyFrontier.
func (g *Graph) Prune(keep mapset.Set[common.Hash]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for hash, n := range g.nodes {
		if hash == g.genesisHash || keep.Contains(hash) {
			continue
		}
		if n.Header.Height == 0 {
			continue
		}
		delete(g.nodes, hash)
	}
}

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

package consensus

import (
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/log"
	"github.com/mazzelabs/mazze-core/internal/mazzeiface"
	"github.com/mazzelabs/mazze-core/internal/pubsub"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// Config carries the tunables spec §6 exposes for this package.
type Config struct {
	TimerChainBeta int
	EraEpochCount  uint64
}

// Graph is ConsensusGraphInner: the arena plus every derived structure
// (weight tree, adaptive tree, timer chain, main chain, confirmation
// meter) needed to answer "what is the canonical order of admitted
// blocks" without touching executed state.
type Graph struct {
	mu sync.Mutex

	cfg Config
	pow mazzeiface.PoWVerifier
	hub *pubsub.Hub

	arena       *Arena
	weightTree  *WeightTree
	adaptive    *AdaptiveTree
	timerChain  *TimerChain
	confirm     *ConfirmationMeter

	eraGenesisIdx    int
	eraGenesisHeightV uint64

	mainChain         []int // arena indices, in height order from era genesis
	mainChainMetadata []mainChainMeta

	forceConfirmHeight uint64
	stableHeight       uint64

	lastEpochEmitted int64
}

type mainChainMeta struct {
	ForceConfirm        int // arena index
	LastMainInPastBlocks mapset.Set[int]
}

// New constructs a Graph rooted at a genesis header already known to be
// BLOCK_GRAPH_READY.
func New(cfg Config, pow mazzeiface.PoWVerifier, hub *pubsub.Hub, genesis *types.Header) *Graph {
	arena := newArena()
	g := &Graph{
		cfg:        cfg,
		pow:        pow,
		hub:        hub,
		arena:      arena,
		weightTree: newWeightTree(arena),
		adaptive:   newAdaptiveTree(arena),
		timerChain: newTimerChain(arena, cfg.TimerChainBeta),
		confirm:    newConfirmationMeter(),
	}

	idx := arena.alloc(genesis)
	n := arena.get(idx)
	n.Activated = true
	n.OnMainChain = true
	n.EpochNumber = 0
	n.PastView = mapset.NewThreadUnsafeSet[int]()
	g.weightTree.insert(idx)
	g.eraGenesisIdx = idx
	g.eraGenesisHeightV = genesis.Height

	g.mainChain = []int{idx}
	g.mainChainMetadata = []mainChainMeta{{ForceConfirm: idx, LastMainInPastBlocks: mapset.NewThreadUnsafeSet[int]()}}
	g.confirm.reset(n.Weight)

	if pow != nil && pow.IsTimerBlock(genesis.PowQuality) {
		n.IsTimer = true
		g.timerChain.Append(idx)
	}

	return g
}

func (g *Graph) eraGenesisHeight() uint64 { return g.eraGenesisHeightV }

// MainChainTipHash returns the hash of the current main-chain tip.
func (g *Graph) MainChainTipHash() common.Hash {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.arena.get(g.mainChain[len(g.mainChain)-1]).Hash
}

// MainChainHeight returns the height of the current main-chain tip.
func (g *Graph) MainChainHeight() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.arena.get(g.mainChain[len(g.mainChain)-1]).Height
}

// StableHeight returns the stable height most recently recorded by
// ShouldMoveStableHeight.
func (g *Graph) StableHeight() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stableHeight
}

// InsertBlock admits a header+referee set already verified to
// HEADER_GRAPH_READY/BLOCK_GRAPH_READY by SyncGraph. It is idempotent
// on re-delivery of an already-known hash.
func (g *Graph) InsertBlock(h *types.Header, refereeHashes []common.Hash) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	hash := h.Hash()
	if _, exists := g.arena.indexOf(hash); exists {
		return nil
	}

	idx := g.arena.alloc(h)
	n := g.arena.get(idx)

	if parentIdx, ok := g.arena.indexOf(h.ParentHash); ok {
		n.Parent = parentIdx
		g.arena.get(parentIdx).Children.Add(idx)
		if !g.arena.get(parentIdx).Activated {
			n.InactiveDependencyCnt++
		}
	}
	for _, rh := range refereeHashes {
		if refIdx, ok := g.arena.indexOf(rh); ok {
			n.Referees.Add(refIdx)
			g.arena.get(refIdx).Referrers.Add(idx)
			if !g.arena.get(refIdx).Activated {
				n.InactiveDependencyCnt++
			}
		}
	}

	if n.InactiveDependencyCnt == 0 {
		g.preactivateAndActivate(idx)
	}

	return nil
}

// notifyDependentActivated decrements inactive_dependency_cnt on every
// child/referrer of idx and preactivates whichever reaches zero,
// propagating activation forward through the arena exactly as new
// dependencies resolve (spec §4.2 Activation).
func (g *Graph) notifyDependentActivated(idx int) {
	n := g.arena.get(idx)
	dependents := append(n.Children.ToSlice(), n.Referrers.ToSlice()...)
	for _, d := range dependents {
		dn := g.arena.get(d)
		if dn.Activated || dn.InactiveDependencyCnt == 0 {
			continue
		}
		dn.InactiveDependencyCnt--
		if dn.InactiveDependencyCnt == 0 && g.readyForActivation(d) {
			g.preactivateAndActivate(d)
		}
	}
}

// readyForActivation returns false only for a node already marked
// PartialInvalid while the timer chain is non-empty and holds fewer than
// TimerChainBeta blocks; the node's own last past timer block is not
// consulted. PartialInvalid is set inside preactivateAndActivate, which
// also marks partial-invalid blocks Activated (with zero weight and off
// the main chain), so a node reaching this check unactivated is never
// held back and activation is not delayed by timer-chain progress.
func (g *Graph) readyForActivation(idx int) bool {
	n := g.arena.get(idx)
	if !n.PartialInvalid {
		return true
	}
	lastTimer := g.timerChain.LastTimerBlock()
	if lastTimer == nullIndex {
		return true
	}
	return g.timerChain.Height() >= uint64(g.cfg.TimerChainBeta)
}

func (g *Graph) sortedByHash(indices []int) []int {
	out := append([]int(nil), indices...)
	sort.Slice(out, func(i, j int) bool {
		return g.arena.get(out[i]).Hash.Cmp(g.arena.get(out[j]).Hash) < 0
	})
	return out
}

func (g *Graph) logf(msg string, kv ...interface{}) { log.Debug(msg, kv...) }

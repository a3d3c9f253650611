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

// This file carries the read-only accessors RPC drives (spec §6
// mazze_getBlockByHash / mazze_getConfirmationRiskByHash / mazze_epochNumber
// and friends), grounded on consensus/equa/api.go's getter-method-per-RPC-call
// shape rather than exposing the arena itself.
package consensus

import (
	"math/big"

	"github.com/mazzelabs/mazze-core/internal/common"
)

// BlockInfo is the read-only projection of an ArenaNode that RPC is
// allowed to see.
type BlockInfo struct {
	Hash           common.Hash
	Height         uint64
	EpochNumber    int64
	OnMainChain    bool
	PartialInvalid bool
	Adaptive       bool
	Activated      bool
	Weight         *big.Int
}

// BlockInfoByHash returns the arena's view of hash, if admitted.
func (g *Graph) BlockInfoByHash(hash common.Hash) (BlockInfo, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx, ok := g.arena.indexOf(hash)
	if !ok {
		return BlockInfo{}, false
	}
	n := g.arena.get(idx)
	return BlockInfo{
		Hash:           n.Hash,
		Height:         n.Height,
		EpochNumber:    n.EpochNumber,
		OnMainChain:    n.OnMainChain,
		PartialInvalid: n.PartialInvalid,
		Adaptive:       n.Adaptive,
		Activated:      n.Activated,
		Weight:         new(big.Int).Set(n.Weight),
	}, true
}

// ConfirmationRiskByHash implements spec §6
// mazze_getConfirmationRiskByHash: the confirmation meter's accumulated
// main-chain weight since the last checkpoint, the same value for every
// main-chain block, and zero for a block not on the main chain at all.
func (g *Graph) ConfirmationRiskByHash(hash common.Hash) (*big.Int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx, ok := g.arena.indexOf(hash)
	if !ok {
		return nil, false
	}
	n := g.arena.get(idx)
	if !n.OnMainChain {
		return big.NewInt(0), true
	}
	return new(big.Int).Set(g.confirm.Accumulated()), true
}

// EpochNumberOf returns the epoch number of a main-chain block. Only
// main-chain blocks are assigned an epoch number; a block ordered into
// an epoch through another block's blockset reports false.
func (g *Graph) EpochNumberOf(hash common.Hash) (int64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx, ok := g.arena.indexOf(hash)
	if !ok {
		return 0, false
	}
	n := g.arena.get(idx)
	if n.EpochNumber < 0 {
		return 0, false
	}
	return n.EpochNumber, true
}

// HashAtMainHeight returns the main-chain block hash at height, if it is
// within the currently retained era.
func (g *Graph) HashAtMainHeight(height uint64) (common.Hash, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if height < g.eraGenesisHeightV {
		return common.Hash{}, false
	}
	offset := height - g.eraGenesisHeightV
	if offset >= uint64(len(g.mainChain)) {
		return common.Hash{}, false
	}
	return g.arena.get(g.mainChain[offset]).Hash, true
}

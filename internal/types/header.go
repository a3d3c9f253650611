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

// Package types holds the consumed data model of spec §3: the block
// header, the body, and the receipts the executor produces. The wire
// encoding, the account model, and the VM itself are black boxes; only
// the fields the core reads or writes are modeled here.
package types

import (
	"math/big"
	"time"

	"github.com/holiman/uint256"
	"github.com/mazzelabs/mazze-core/internal/common"
)

//go:generate go run github.com/fjl/gencodec -type Header -field-override headerMarshaling -out header_marshalling.go

// DeferredRoots bundles the three deferred-execution commitments a header
// carries, computed DEFERRED_STATE_EPOCH_COUNT epochs after the block that
// references them executes.
type DeferredRoots struct {
	StateRoot      common.Hash `json:"stateRoot"`
	ReceiptsRoot   common.Hash `json:"receiptsRoot"`
	LogsBloomHash  common.Hash `json:"logsBloomHash"`
}

// Header is the block header consumed by SyncGraph and ConsensusGraph.
// Referees is the DAG predecessor set other than Parent: this is what
// distinguishes a block-DAG header from a linear-chain header.
type Header struct {
	ParentHash common.Hash   `json:"parentHash"`
	Referees   []common.Hash `json:"referees"`
	Height     uint64        `json:"height"`
	Timestamp  uint64        `json:"timestamp"`
	Difficulty *big.Int      `json:"difficulty"`
	Nonce      uint64        `json:"nonce"`
	GasLimit   uint64        `json:"gasLimit"`
	Author     common.Address `json:"author"`

	Deferred DeferredRoots `json:"deferred"`

	BlameCount uint32 `json:"blameCount"`
	Adaptive   bool   `json:"adaptive"`

	Custom   [][]byte `json:"custom,omitempty"`
	BaseFee  *uint256.Int `json:"baseFee,omitempty"`

	// PowQuality is the RandomX-style quality score the (out-of-scope)
	// PoW verifier attached to the header; the consensus graph only
	// compares it against thresholds, never recomputes it.
	PowQuality uint64 `json:"powQuality"`

	// cached on first call to Hash.
	hash *common.Hash
}

// Time returns Timestamp as a time.Time for convenience at call sites
// doing monotonicity comparisons against wall-clock "now".
func (h *Header) Time() time.Time { return time.Unix(int64(h.Timestamp), 0) }

// Copy returns a deep copy safe to mutate, mirroring the teacher's
// types.CopyHeader convention for pre-seal mutation.
func (h *Header) Copy() *Header {
	cp := *h
	cp.Referees = append([]common.Hash(nil), h.Referees...)
	if h.Difficulty != nil {
		cp.Difficulty = new(big.Int).Set(h.Difficulty)
	}
	if h.BaseFee != nil {
		bf := *h.BaseFee
		cp.BaseFee = &bf
	}
	if h.Custom != nil {
		cp.Custom = make([][]byte, len(h.Custom))
		for i, c := range h.Custom {
			cp.Custom[i] = append([]byte(nil), c...)
		}
	}
	cp.hash = nil
	return &cp
}

// Hash derives the header's content address. The real derivation (domain
// separation, RLP/SSZ framing) is a black box; this is a deterministic
// stand-in sufficient to drive the DAG invariants, memoized per header.
func (h *Header) Hash() common.Hash {
	if h.hash != nil {
		return *h.hash
	}
	sum := headerDigest(h)
	h.hash = &sum
	return sum
}

// IsGenesis reports whether this header has no DAG parent at all, the
// only case spec §3 allows for parent == NULL besides era reclamation.
func (h *Header) IsGenesis() bool {
	return h.ParentHash.IsZero() && h.Height == 0
}

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

// This file is the JWT-gated "test" namespace spec §6 names for
// integration-test harnesses: generate_one_block, expire_block_gc, and
// set_db_crash. It is registered under RequireAuth("test") so it can
// only be reached by a caller holding the configured admin secret.
package rpc

import (
	"encoding/json"
	"math/big"
	"sync/atomic"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// TestAPI bundles the test-only admin surface, kept separate from API so
// its methods are never registered without an explicit RequireAuth call
// at wiring time.
type TestAPI struct {
	api *API

	crashArmed int32
}

func NewTestAPI(api *API) *TestAPI { return &TestAPI{api: api} }

// Register wires test_* methods into s. The caller is responsible for
// also calling s.RequireAuth("test").
func (t *TestAPI) Register(s *Server) {
	s.RegisterMethod("test_generateOneBlock", t.generateOneBlock)
	s.RegisterMethod("test_expireBlockGc", t.expireBlockGc)
	s.RegisterMethod("test_setDbCrash", t.setDbCrash)
}

type generateBlockArgs struct {
	NumTxs int `json:"numTxs"`
}

// generateOneBlock mines a synthetic header atop the current main-chain
// tip and admits it through SyncGraph and ConsensusGraph exactly like a
// network-delivered block would be, skipping the out-of-scope PoW/P2P
// path so integration tests can drive the pipeline deterministically.
func (t *TestAPI) generateOneBlock(params json.RawMessage) (interface{}, error) {
	var args [1]generateBlockArgs
	if len(params) > 0 {
		if err := unmarshalParams(params, &args); err != nil {
			return nil, err
		}
	}

	parentHash := t.api.Consensus.MainChainTipHash()
	parentHeight := t.api.Consensus.MainChainHeight()

	h := &types.Header{
		ParentHash: parentHash,
		Height:     parentHeight + 1,
		Timestamp:  uint64(time.Now().Unix()),
		Difficulty: big.NewInt(1),
		GasLimit:   30_000_000,
	}

	if err := t.api.Sync.InsertBlockHeader(h, time.Now().Unix()); err != nil {
		return nil, err
	}
	body := &types.Body{Transactions: syntheticTransactions(args[0].NumTxs)}
	if err := t.api.Sync.InsertBlock(h.Hash(), body); err != nil {
		return nil, err
	}
	if err := t.api.Consensus.InsertBlock(h, nil); err != nil {
		return nil, err
	}

	return h.Hash().Hex(), nil
}

func syntheticTransactions(n int) []*types.Transaction {
	if n <= 0 {
		return nil
	}
	out := make([]*types.Transaction, n)
	for i := range out {
		var raw [32]byte
		raw[0] = byte(i)
		raw[31] = byte(i >> 8)
		out[i] = &types.Transaction{Hash: common.BytesToHash(raw[:]), GasPrice: 1, GasLimit: 21000}
	}
	return out
}

// expireBlockGc forces SyncGraph to drop every node except genesis and
// the current main-chain tip, through internal/syncgraph.Prune.
func (t *TestAPI) expireBlockGc(json.RawMessage) (interface{}, error) {
	keep := mapset.NewThreadUnsafeSet[common.Hash]()
	keep.Add(t.api.Consensus.MainChainTipHash())
	t.api.Sync.Prune(keep)
	return true, nil
}

type setDbCrashArgs struct {
	Armed bool `json:"armed"`
}

// setDbCrash arms/disarms a process-wide switch a storage-layer fault
// injector would check before the next write, letting integration tests
// exercise crash-recovery without an actual kill -9. The storage layer
// itself is out of scope (spec Non-goals); this only flips the switch.
func (t *TestAPI) setDbCrash(params json.RawMessage) (interface{}, error) {
	var args [1]setDbCrashArgs
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	if args[0].Armed {
		atomic.StoreInt32(&t.crashArmed, 1)
	} else {
		atomic.StoreInt32(&t.crashArmed, 0)
	}
	return args[0].Armed, nil
}

// CrashArmed reports whether a test has armed the crash switch.
func (t *TestAPI) CrashArmed() bool {
	return atomic.LoadInt32(&t.crashArmed) != 0
}

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

// Package simulated is an in-process test harness wiring SyncGraph,
// ConsensusGraph, and the Executor together behind fake
// mazzeiface.PoWVerifier/StateView implementations, in the spirit of
// ethclient/simulated's one-call NewBackend: a single constructor that
// panics on setup failure (never expected in a test process) and returns
// a ready-to-drive Backend, letting spec §8's end-to-end scenarios run
// without a real network, storage, or VM.
package simulated

import (
	"context"
	"math/big"
	"os"
	"time"

	"github.com/mazzelabs/mazze-core/internal/availability"
	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/consensus"
	"github.com/mazzelabs/mazze-core/internal/datamanager"
	"github.com/mazzelabs/mazze-core/internal/execution"
	"github.com/mazzelabs/mazze-core/internal/mazzeiface"
	"github.com/mazzelabs/mazze-core/internal/pubsub"
	"github.com/mazzelabs/mazze-core/internal/syncgraph"
	"github.com/mazzelabs/mazze-core/internal/txpool"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// Backend bundles one full pipeline instance: every component a real
// mazzenode process wires, minus the network/storage/VM black boxes.
type Backend struct {
	DataDir   string
	DM        *datamanager.Manager
	Sync      *syncgraph.Graph
	Consensus *consensus.Graph
	Exec      *execution.Executor
	Pool      txpool.Pool
	Hub       *pubsub.Hub
	Boundary  *availability.Boundary

	cancel context.CancelFunc
}

// Option mutates the default wiring before Start, mirroring the
// teacher's functional-option convention for NewBackend.
type Option func(*Config)

// Config is the tunable subset of internal/config.Config this harness
// actually wires; a real process uses the full config package instead.
type Config struct {
	EraEpochCount    uint64
	TimerChainBeta   int
	FutureCapacity   int
	MaxFutureDrift   int64
	EnableOptimistic bool
}

func defaultConfig() Config {
	return Config{
		EraEpochCount:    50000,
		TimerChainBeta:   240,
		FutureCapacity:   1024,
		MaxFutureDrift:   30,
		EnableOptimistic: true,
	}
}

// WithEraEpochCount overrides the checkpoint spacing, useful for tests
// that want to exercise MakeCheckpointAt without mining tens of
// thousands of blocks.
func WithEraEpochCount(n uint64) Option {
	return func(c *Config) { c.EraEpochCount = n }
}

// NewBackend constructs a fully-wired in-process pipeline rooted at a
// synthetic genesis header, panicking if the throwaway tmp data directory
// cannot be created or opened or the genesis header cannot be stored
// (never expected in a test process).
func NewBackend(genesis *types.Header, opts ...Option) *Backend {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	dir, err := os.MkdirTemp("", "mazze-simulated-*")
	if err != nil {
		panic(err)
	}
	dm, err := datamanager.Open(dir)
	if err != nil {
		panic(err)
	}
	if err := dm.PutHeader(genesis); err != nil {
		panic(err)
	}

	pow := &FakePoW{}
	hub := pubsub.NewHub()
	pool := txpool.New(200_000, 1, 1)
	boundary := availability.New(genesis.Height)

	sg := syncgraph.New(dm, pow, genesis, cfg.FutureCapacity, cfg.MaxFutureDrift)
	cg := consensus.New(consensus.Config{TimerChainBeta: cfg.TimerChainBeta, EraEpochCount: cfg.EraEpochCount}, pow, hub, genesis)

	exec := execution.New(dm, boundary, pool, hub, cg, func(root common.Hash) mazzeiface.StateView {
		return NewFakeState(root)
	}, cfg.EnableOptimistic)

	return &Backend{
		DataDir:   dir,
		DM:        dm,
		Sync:      sg,
		Consensus: cg,
		Exec:      exec,
		Pool:      pool,
		Hub:       hub,
		Boundary:  boundary,
	}
}

// Start launches the executor's background worker.
func (b *Backend) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.Exec.Start(ctx)
}

// Close stops the executor and removes the temporary data directory.
func (b *Backend) Close() {
	if b.cancel != nil {
		b.cancel()
	}
	b.Exec.Stop()
	b.DM.Close()
	os.RemoveAll(b.DataDir)
}

// MineBlock admits a synthetic header atop parent (or the current
// main-chain tip if parent is the zero hash) through the same
// SyncGraph -> ConsensusGraph path a real network delivery would use.
func (b *Backend) MineBlock(parent common.Hash, referees []common.Hash, nowUnix int64) (*types.Header, error) {
	if parent.IsZero() {
		parent = b.Consensus.MainChainTipHash()
	}
	parentInfo, _ := b.Consensus.BlockInfoByHash(parent)

	h := &types.Header{
		ParentHash: parent,
		Referees:   referees,
		Height:     parentInfo.Height + 1,
		Timestamp:  uint64(nowUnix),
		Difficulty: big.NewInt(1),
		GasLimit:   30_000_000,
	}

	if err := b.Sync.InsertBlockHeader(h, nowUnix); err != nil {
		return nil, err
	}
	if err := b.Sync.InsertBlock(h.Hash(), &types.Body{}); err != nil {
		return nil, err
	}
	if err := b.Consensus.InsertBlock(h, referees); err != nil {
		return nil, err
	}
	return h, nil
}

// AwaitEpoch blocks until the executor has produced a commitment for
// epochHash or ctx is done, the harness equivalent of WaitForResult with
// a default timeout for scenario tests that don't want to build their
// own context.
func (b *Backend) AwaitEpoch(epochHash common.Hash, timeout time.Duration) (*types.EpochExecutionCommitment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return b.Exec.WaitForResult(ctx, epochHash)
}

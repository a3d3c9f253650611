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

// mazzenode wires every SPEC_FULL.md component into one process: the
// data manager, SyncGraph, ConsensusGraph, the Executor, the RPC/WS/GraphQL
// surfaces, and the Stratum mining server. Flag parsing and the
// signal-driven shutdown loop follow the shape of the teacher's
// cmd/equa-beacon-engine/main.go (_examples/equa-blockchain-core/...;
// that tree isn't part of this module), ported onto urfave/cli/v2
// rather than stdlib flag.
package main

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"

	"github.com/mazzelabs/mazze-core/internal/availability"
	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/config"
	"github.com/mazzelabs/mazze-core/internal/consensus"
	"github.com/mazzelabs/mazze-core/internal/datamanager"
	"github.com/mazzelabs/mazze-core/internal/execution"
	"github.com/mazzelabs/mazze-core/internal/log"
	"github.com/mazzelabs/mazze-core/internal/mazzeiface"
	"github.com/mazzelabs/mazze-core/internal/metrics"
	"github.com/mazzelabs/mazze-core/internal/pubsub"
	"github.com/mazzelabs/mazze-core/internal/rpc"
	"github.com/mazzelabs/mazze-core/internal/rpc/graphql"
	rpcpubsub "github.com/mazzelabs/mazze-core/internal/rpc/pubsub"
	"github.com/mazzelabs/mazze-core/internal/stratum"
	"github.com/mazzelabs/mazze-core/internal/syncgraph"
	"github.com/mazzelabs/mazze-core/internal/txpool"
	"github.com/mazzelabs/mazze-core/internal/types"
)

var (
	configFileFlag = &cli.StringFlag{Name: "config", Usage: "Path to a TOML config file, defaults applied over it"}
	dataDirFlag    = &cli.StringFlag{Name: "datadir", Usage: "Overrides config data_dir"}
	rpcAddrFlag    = &cli.StringFlag{Name: "rpc-http", Usage: "Overrides config rpc_http_address"}
	stratumFlag    = &cli.BoolFlag{Name: "stratum", Usage: "Enable the Stratum mining server"}
)

func main() {
	app := &cli.App{
		Name:   "mazzenode",
		Usage:  "Mazze blockchain node core: SyncGraph, ConsensusGraph, and the Consensus Executor",
		Flags:  []cli.Flag{configFileFlag, dataDirFlag, rpcAddrFlag, stratumFlag},
		Action: runNode,
		Commands: []*cli.Command{
			logTestCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("mazzenode: fatal error", "err", err)
		os.Exit(1)
	}
}

func runNode(c *cli.Context) error {
	cfg := loadConfig(c)

	lock, locked, err := acquireDataDirLock(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to lock data directory: %w", err)
	}
	if !locked {
		return fmt.Errorf("data directory %s is already in use by another mazzenode process", cfg.DataDir)
	}
	defer lock.Unlock()

	dm, err := datamanager.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open data manager: %w", err)
	}
	defer dm.Close()

	genesis := loadOrCreateGenesis(dm)

	pow := &placeholderPoW{}
	hub := pubsub.NewHub()
	pool := txpool.New(cfg.Capacity, cfg.MinNativeTxPrice, cfg.MinEthTxPrice)
	boundary := availability.New(genesis.Height)

	sg := syncgraph.New(dm, pow, genesis, int(cfg.FutureBlockBufferCapacity), int64(cfg.MaxFutureDrift.Seconds()))
	cg := consensus.New(consensus.Config{
		TimerChainBeta: int(cfg.TimerChainBeta),
		EraEpochCount:  cfg.EraEpochCount,
	}, pow, hub, genesis)

	exec := execution.New(dm, boundary, pool, hub, cg, func(root common.Hash) mazzeiface.StateView {
		return newProcessState(root)
	}, cfg.EnableOptimisticExecution)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exec.Start(ctx)
	defer exec.Stop()

	reg := metrics.Default()
	stopSampling := make(chan struct{})
	go reg.SampleHost(stopSampling)
	defer close(stopSampling)

	rpcAddr := cfg.RPCHTTPAddress
	if c.String("rpc-http") != "" {
		rpcAddr = c.String("rpc-http")
	}
	startRPC(cfg, rpcAddr, sg, cg, exec, pool, hub)

	if c.Bool("stratum") {
		startStratum(cfg, pow)
	}

	logConfiguration(cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case <-sigCh:
			log.Info("mazzenode: received shutdown signal")
			return nil
		case <-statsTicker.C:
			log.Info("mazzenode: stats",
				"mainChainHeight", cg.MainChainHeight(),
				"stableHeight", cg.StableHeight(),
				"notReadyFrontier", sg.NotReadyFrontierLen(),
				"futureBuffer", sg.FutureBufferLen(),
				"subscribers", hub.SubscriberCount())
		}
	}
}

func loadConfig(c *cli.Context) *config.Config {
	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadTOML(path)
		if err != nil {
			log.Warn("mazzenode: failed to load config file, using defaults", "path", path, "err", err)
			cfg = config.Default()
		}
	} else {
		cfg = config.Default()
	}
	if dir := c.String("datadir"); dir != "" {
		cfg.DataDir = dir
	}
	return cfg
}

// acquireDataDirLock guards against two mazzenode processes sharing one
// Pebble data directory, the same advisory-lock idiom node processes
// across the ecosystem use for their datadir.
func acquireDataDirLock(dataDir string) (*flock.Flock, bool, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, false, err
	}
	lock := flock.New(dataDir + "/LOCK")
	locked, err := lock.TryLock()
	return lock, locked, err
}

func loadOrCreateGenesis(dm *datamanager.Manager) *types.Header {
	if terminals, ok := dm.LoadTerminals(); ok && len(terminals) > 0 {
		if h, ok := dm.GetHeader(terminals[0]); ok {
			for h.Height > 0 {
				parent, ok := dm.GetHeader(h.ParentHash)
				if !ok {
					break
				}
				h = parent
			}
			return h
		}
	}
	genesis := &types.Header{
		Height:     0,
		Timestamp:  uint64(time.Now().Unix()),
		Difficulty: big.NewInt(1),
		GasLimit:   30_000_000,
	}
	if err := dm.PutHeader(genesis); err != nil {
		log.Error("mazzenode: failed to persist genesis header", "err", err)
	}
	return genesis
}

func startRPC(cfg *config.Config, addr string, sg *syncgraph.Graph, cg *consensus.Graph, exec *execution.Executor, pool txpool.Pool, hub *pubsub.Hub) {
	server := rpc.NewServer()
	api := &rpc.API{Sync: sg, Consensus: cg, Exec: exec, Pool: pool}
	api.Register(server)

	if cfg.JWTSecretPath != "" {
		if err := server.LoadJWTSecret(cfg.JWTSecretPath); err != nil {
			log.Warn("mazzenode: failed to load jwt secret, test RPC surface disabled", "err", err)
		} else {
			testAPI := rpc.NewTestAPI(api)
			testAPI.Register(server)
			server.RequireAuth("test")
			if err := server.WatchJWTSecret(cfg.JWTSecretPath); err != nil {
				log.Warn("mazzenode: failed to watch jwt secret for rotation", "err", err)
			}
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/", server.Handler([]string{"*"}))
	mux.Handle("/ws", rpcpubsub.Handler(hub))
	if gqlHandler, err := graphql.NewHandler(cg); err != nil {
		log.Warn("mazzenode: failed to build graphql schema", "err", err)
	} else {
		mux.Handle("/graphql", gqlHandler)
	}

	go func() {
		log.Info("mazzenode: rpc listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("mazzenode: rpc server stopped", "err", err)
		}
	}()
}

func startStratum(cfg *config.Config, pow mazzeiface.PoWVerifier) {
	srv := stratum.NewServer(cfg.StratumSecret, pow, func(result stratum.SubmitResult) {
		log.Info("stratum: share submitted", "worker", result.WorkerName, "job", result.JobID)
	})
	addr := fmt.Sprintf("%s:%d", cfg.StratumAddress, cfg.StratumPort)
	go func() {
		if err := srv.ListenAndServe(addr); err != nil {
			log.Error("mazzenode: stratum server stopped", "err", err)
		}
	}()
}

func logConfiguration(cfg *config.Config) {
	log.Info("mazzenode: configuration",
		"dataDir", cfg.DataDir,
		"rpcHTTP", cfg.RPCHTTPAddress,
		"rpcWS", cfg.RPCWSAddress,
		"eraEpochCount", cfg.EraEpochCount,
		"timerChainBeta", cfg.TimerChainBeta,
		"optimisticExecution", cfg.EnableOptimisticExecution,
		"stratumPort", cfg.StratumPort)
}

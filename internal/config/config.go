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

// Package config holds every recognized option of spec §6, loaded from a
// TOML file and overridable by CLI flags, in the teacher's
// cmd/equa-beacon-engine Config-struct-with-defaults idiom (see
// _examples/equa-blockchain-core/cmd/equa-beacon-engine/main.go).
package config

import (
	"os"
	"time"

	"github.com/naoina/toml"
)

// Config is the full set of options named in spec §6.
type Config struct {
	DataDir string `toml:"data_dir"`

	// Stratum / mining
	StratumAddress string `toml:"stratum_address"`
	StratumPort    int    `toml:"stratum_port"`
	StratumSecret  string `toml:"stratum_secret"`
	NumThreads     int    `toml:"num_threads"`

	// Transaction pool
	Capacity         uint64 `toml:"capacity"`
	MinNativeTxPrice uint64 `toml:"min_native_tx_price"`
	MinEthTxPrice    uint64 `toml:"min_eth_tx_price"`

	// Block packing
	TargetBlockGasLimit      uint64 `toml:"target_block_gas_limit"`
	PackingGasLimitBlockCount uint64 `toml:"packing_gas_limit_block_count"`

	// Consensus graph
	EraEpochCount            uint64 `toml:"era_epoch_count"`
	TimerChainBeta           uint64 `toml:"timer_chain_beta"`
	FutureBlockBufferCapacity uint64 `toml:"future_block_buffer_capacity"`

	// Execution
	EnableOptimisticExecution bool `toml:"enable_optimistic_execution"`
	EnableStateExpose         bool `toml:"enable_state_expose"`

	// Process
	CrashExitCode int `toml:"crash_exit_code"`

	// RPC
	RPCHTTPAddress string `toml:"rpc_http_address"`
	RPCWSAddress   string `toml:"rpc_ws_address"`
	JWTSecretPath  string `toml:"jwt_secret_path"`

	// Future-buffer drift tolerance for the syncgraph's admission window.
	// Not read from the TOML file: Default and LoadTOML set it to 30s.
	MaxFutureDrift time.Duration `toml:"-"`
}

// Default mirrors the teacher's zero-value-then-fill-in defaulting
// pattern in cmd/equa-beacon-engine/main.go / engine.Config (teacher
// reference only; that tree isn't part of this module).
func Default() *Config {
	return &Config{
		DataDir:                   "./datadir",
		StratumPort:               32525,
		NumThreads:                1,
		Capacity:                  200_000,
		MinNativeTxPrice:          1,
		MinEthTxPrice:             1,
		TargetBlockGasLimit:       30_000_000,
		PackingGasLimitBlockCount: 10,
		EraEpochCount:             50000,
		TimerChainBeta:            240,
		FutureBlockBufferCapacity: 32768,
		EnableOptimisticExecution: true,
		EnableStateExpose:         false,
		CrashExitCode:             1,
		RPCHTTPAddress:            "127.0.0.1:12537",
		RPCWSAddress:              "127.0.0.1:12535",
		MaxFutureDrift:            30 * time.Second,
	}
}

// LoadTOML reads a config file over the defaults, leaving any field absent
// from the file at its default value.
func LoadTOML(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}
	if cfg.MaxFutureDrift == 0 {
		cfg.MaxFutureDrift = 30 * time.Second
	}
	return cfg, nil
}

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

// Package metrics is the one documented process-wide singleton named in
// spec §9's "Global mutable state" note: a Prometheus registry carrying
// no correctness role, initialized once at process start.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

// Registry bundles the gauges/counters every subsystem updates.
type Registry struct {
	ArenaSize          prometheus.Gauge
	MainChainHeight    prometheus.Gauge
	BestEpochNumber    prometheus.Gauge
	ExecutorQueueDepth prometheus.Gauge
	EpochLag           prometheus.Gauge
	CheckpointsFormed  prometheus.Counter
	ReorgsTotal        prometheus.Counter
	HostCPUPercent     prometheus.Gauge
	HostMemUsedPercent prometheus.Gauge
}

var (
	once    sync.Once
	current *Registry
)

// Default returns the process-wide registry, constructing and registering
// it exactly once. Call sites never hold a reference across process
// restarts; this is reconstructed fresh on every boot.
func Default() *Registry {
	once.Do(func() {
		current = newRegistry()
	})
	return current
}

func newRegistry() *Registry {
	r := &Registry{
		ArenaSize:          prometheus.NewGauge(prometheus.GaugeOpts{Name: "mazze_consensus_arena_size", Help: "Number of live nodes in the consensus arena."}),
		MainChainHeight:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "mazze_consensus_main_chain_height", Help: "Height of the current main-chain tip."}),
		BestEpochNumber:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "mazze_consensus_best_epoch_number", Help: "Highest formed epoch number."}),
		ExecutorQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{Name: "mazze_executor_queue_depth", Help: "Pending epoch execution tasks."}),
		EpochLag:           prometheus.NewGauge(prometheus.GaugeOpts{Name: "mazze_executor_epoch_lag", Help: "best_epoch_number - best_executed_epoch."}),
		CheckpointsFormed:  prometheus.NewCounter(prometheus.CounterOpts{Name: "mazze_consensus_checkpoints_formed_total", Help: "Number of checkpoints formed."}),
		ReorgsTotal:        prometheus.NewCounter(prometheus.CounterOpts{Name: "mazze_consensus_reorgs_total", Help: "Number of main-chain reorgs."}),
		HostCPUPercent:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "mazze_host_cpu_percent", Help: "Sampled host CPU utilization."}),
		HostMemUsedPercent: prometheus.NewGauge(prometheus.GaugeOpts{Name: "mazze_host_mem_used_percent", Help: "Sampled host memory utilization."}),
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		r.ArenaSize, r.MainChainHeight, r.BestEpochNumber, r.ExecutorQueueDepth,
		r.EpochLag, r.CheckpointsFormed, r.ReorgsTotal, r.HostCPUPercent, r.HostMemUsedPercent,
	)
	return r
}

// SampleHost periodically folds host CPU/mem stats into the registry
// until stop is closed, the same kind of background sampler the
// teacher's reputationUpdater ticker runs.
func (r *Registry) SampleHost(stop <-chan struct{}) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
				r.HostCPUPercent.Set(pct[0])
			}
			if vm, err := mem.VirtualMemory(); err == nil {
				r.HostMemUsedPercent.Set(vm.UsedPercent)
			}
		}
	}
}

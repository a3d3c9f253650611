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

// Package pubsub is the epochs_ordered channel of spec §2/§5/§6/§9: a
// multi-consumer, ordered broadcast with per-subscriber backpressure. A
// subscriber that falls behind its queue depth is dropped rather than
// blocking the producer, the same non-blocking-send-or-drop idiom the
// teacher's engine.slotTicker uses for slot ticks.
package pubsub

import (
	"sync"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/log"
)

// DeferredStateEpochCount mirrors the protocol constant named in spec
// §5. Here it only sizes each subscriber's channel buffer
// (DeferredStateEpochCount-1 events); an epoch is delivered as soon as
// it is published, whether or not its commitment exists yet.
const DeferredStateEpochCount = 5

// Epoch is one entry of the epochs_ordered channel.
type Epoch struct {
	Number uint64
	Blocks []common.Hash
}

// ChainReorg is emitted before the first epoch event that replaces
// previously-delivered epochs (spec §8 invariant 7).
type ChainReorg struct {
	RevertTo uint64
}

// Event is either an Epoch or a ChainReorg, delivered on one ordered
// stream per subscriber.
type Event struct {
	Reorg *ChainReorg
	Epoch *Epoch
}

type subscriber struct {
	ch     chan Event
	lastEpoch uint64
}

// Hub is the producer side: ConsensusGraph/Executor call Publish as
// epochs form; RPC subscribers call Subscribe.
type Hub struct {
	mu    sync.Mutex
	subs  map[int]*subscriber
	nextID int
	queueDepth int
}

func NewHub() *Hub {
	return &Hub{
		subs:       make(map[int]*subscriber),
		queueDepth: DeferredStateEpochCount - 1,
	}
}

// Subscribe returns a read channel and an unsubscribe func. The channel
// is buffered to queueDepth; once full, further sends to this subscriber
// are dropped (never block the producer), and the subscriber is evicted.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	sub := &subscriber{ch: make(chan Event, h.queueDepth)}
	h.subs[id] = sub

	return sub.ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if s, ok := h.subs[id]; ok {
			close(s.ch)
			delete(h.subs, id)
		}
	}
}

// PublishReorg emits a ChainReorg to every subscriber ahead of the
// epochs that replace the reverted ones (spec §8 invariant 7).
func (h *Hub) PublishReorg(revertTo uint64) {
	h.broadcast(Event{Reorg: &ChainReorg{RevertTo: revertTo}})
}

// PublishEpoch emits one formed epoch in order (spec §4.2 Epoch
// formation, §6 egress channel).
func (h *Hub) PublishEpoch(epoch Epoch) {
	h.broadcast(Event{Epoch: &epoch})
}

func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			log.Warn("pubsub subscriber fell behind, dropping it", "subscriberID", id)
			close(sub.ch)
			delete(h.subs, id)
		}
	}
}

// SubscriberCount reports the number of live subscribers, used in tests
// and metrics.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

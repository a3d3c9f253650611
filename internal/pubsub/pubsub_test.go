// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package pubsub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mazzelabs/mazze-core/internal/common"
)

func TestSubscribeReceivesPublishedEpoch(t *testing.T) {
	h := NewHub()
	ch, unsubscribe := h.Subscribe()
	defer unsubscribe()

	h.PublishEpoch(Epoch{Number: 1, Blocks: []common.Hash{common.HexToHash("0x01")}})

	select {
	case ev := <-ch:
		require.NotNil(t, ev.Epoch)
		require.Equal(t, uint64(1), ev.Epoch.Number)
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

func TestPublishReorgDeliversChainReorgEvent(t *testing.T) {
	h := NewHub()
	ch, unsubscribe := h.Subscribe()
	defer unsubscribe()

	h.PublishReorg(42)

	select {
	case ev := <-ch:
		require.NotNil(t, ev.Reorg)
		require.Equal(t, uint64(42), ev.Reorg.RevertTo)
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	ch, unsubscribe := h.Subscribe()
	unsubscribe()

	_, ok := <-ch
	require.False(t, ok)
	require.Equal(t, 0, h.SubscriberCount())
}

func TestSlowSubscriberIsDroppedRatherThanBlockingProducer(t *testing.T) {
	h := NewHub()
	ch, _ := h.Subscribe()
	require.Equal(t, 1, h.SubscriberCount())

	// Fill the subscriber's buffer (queueDepth = DeferredStateEpochCount-1)
	// past capacity without ever draining it.
	for i := 0; i < DeferredStateEpochCount+5; i++ {
		h.PublishEpoch(Epoch{Number: uint64(i)})
	}

	require.Equal(t, 0, h.SubscriberCount())
	// The events buffered before the drop are still readable; the channel
	// reports closed after them.
	for i := 0; i < DeferredStateEpochCount-1; i++ {
		_, ok := <-ch
		require.True(t, ok)
	}
	_, ok := <-ch
	require.False(t, ok)
}

func TestSubscriberCountTracksMultipleSubscribers(t *testing.T) {
	h := NewHub()
	_, unsub1 := h.Subscribe()
	_, unsub2 := h.Subscribe()
	require.Equal(t, 2, h.SubscriberCount())

	unsub1()
	require.Equal(t, 1, h.SubscriberCount())
	unsub2()
	require.Equal(t, 0, h.SubscriberCount())
}

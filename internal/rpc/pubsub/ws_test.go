// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package pubsub

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/pubsub"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHandlerForwardsEpochEvent(t *testing.T) {
	hub := pubsub.NewHub()
	srv := httptest.NewServer(Handler(hub))
	defer srv.Close()

	conn := dial(t, srv.URL)
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"id": 1, "method": "mazze_subscribe", "params": []string{"epochs"},
	}))

	var subResp map[string]interface{}
	require.NoError(t, conn.ReadJSON(&subResp))
	require.NotEmpty(t, subResp["result"])

	hub.PublishEpoch(pubsub.Epoch{Number: 7, Blocks: []common.Hash{common.HexToHash("0x01")}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var notif map[string]interface{}
	require.NoError(t, conn.ReadJSON(&notif))
	require.Equal(t, "mazze_subscription", notif["method"])
}

func TestHandlerRejectsWrongMethod(t *testing.T) {
	hub := pubsub.NewHub()
	srv := httptest.NewServer(Handler(hub))
	defer srv.Close()

	conn := dial(t, srv.URL)
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"id": 1, "method": "not_a_subscribe", "params": []string{},
	}))

	var resp map[string]interface{}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&resp))
	require.Equal(t, "expected mazze_subscribe", resp["error"])
}

func TestSubscriptionIDsAreUnique(t *testing.T) {
	a := subscriptionID(nil)
	b := subscriptionID(nil)
	require.NotEqual(t, a, b)
}

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

// Package pubsub is the WebSocket transport for spec §6's subscription
// surface (epoch and chain-reorg notifications): one gorilla/websocket
// connection per client, each forwarding exactly one internal/pubsub.Hub
// subscription until the client disconnects or falls behind.
package pubsub

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mazzelabs/mazze-core/internal/log"
	"github.com/mazzelabs/mazze-core/internal/pubsub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  notificationMsg `json:"params"`
}

type notificationMsg struct {
	Subscription string      `json:"subscription"`
	Result       interface{} `json:"result"`
}

type subscribeRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params []string        `json:"params"`
}

// Handler upgrades HTTP requests to WebSocket and streams every
// epoch/reorg event of the hub, in order, until a write to the client
// fails or the hub drops the subscription. The subscribe request's params
// are not read.
func Handler(hub *pubsub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("pubsub ws: upgrade failed", "err", err)
			return
		}
		defer conn.Close()

		var req subscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if req.Method != "mazze_subscribe" {
			conn.WriteJSON(map[string]string{"error": "expected mazze_subscribe"})
			return
		}

		ch, unsubscribe := hub.Subscribe()
		defer unsubscribe()

		subID := subscriptionID(r)
		conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": subID})

		pingTicker := time.NewTicker(30 * time.Second)
		defer pingTicker.Stop()

		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := sendEvent(conn, subID, ev); err != nil {
					return
				}
			case <-pingTicker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}

func sendEvent(conn *websocket.Conn, subID string, ev pubsub.Event) error {
	if ev.Reorg != nil {
		return conn.WriteJSON(notification{
			JSONRPC: "2.0", Method: "mazze_subscription",
			Params: notificationMsg{Subscription: subID, Result: map[string]interface{}{
				"reorg": true, "revertTo": ev.Reorg.RevertTo,
			}},
		})
	}
	if ev.Epoch != nil {
		blocks := make([]string, len(ev.Epoch.Blocks))
		for i, b := range ev.Epoch.Blocks {
			blocks[i] = b.Hex()
		}
		return conn.WriteJSON(notification{
			JSONRPC: "2.0", Method: "mazze_subscription",
			Params: notificationMsg{Subscription: subID, Result: map[string]interface{}{
				"epochNumber": ev.Epoch.Number, "blocks": blocks,
			}},
		})
	}
	return nil
}

var subCounter uint64

func subscriptionID(r *http.Request) string {
	return "0x" + itoa(atomic.AddUint64(&subCounter, 1))
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

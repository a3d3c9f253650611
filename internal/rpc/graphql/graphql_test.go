// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package graphql

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazzelabs/mazze-core/internal/consensus"
	"github.com/mazzelabs/mazze-core/internal/pubsub"
	"github.com/mazzelabs/mazze-core/internal/simulated"
	"github.com/mazzelabs/mazze-core/internal/types"
)

func newTestGraph(t *testing.T) *consensus.Graph {
	t.Helper()
	genesis := &types.Header{Height: 0, Difficulty: big.NewInt(1), GasLimit: 30_000_000}
	return consensus.New(consensus.Config{TimerChainBeta: 4, EraEpochCount: 50000},
		simulated.FakePoW{}, pubsub.NewHub(), genesis)
}

func TestNewHandlerParsesSchema(t *testing.T) {
	g := newTestGraph(t)
	h, err := NewHandler(g)
	require.NoError(t, err)
	require.NotNil(t, h)
}

func TestQueryMainChainHeight(t *testing.T) {
	g := newTestGraph(t)
	h, err := NewHandler(g)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{"query": "{ mainChainHeight stableHeight }"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	var resp struct {
		Data struct {
			MainChainHeight int32 `json:"mainChainHeight"`
			StableHeight    int32 `json:"stableHeight"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Empty(t, resp.Errors)
	require.Equal(t, int32(0), resp.Data.MainChainHeight)
}

func TestQueryUnknownBlockReturnsNull(t *testing.T) {
	g := newTestGraph(t)
	h, err := NewHandler(g)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{
		"query": `{ block(hash: "0xdeadbeef") { hash } }`,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	var resp struct {
		Data struct {
			Block *struct {
				Hash string `json:"hash"`
			} `json:"block"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Nil(t, resp.Data.Block)
}

// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package types

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazzelabs/mazze-core/internal/common"
)

func TestHeaderMarshalJSONHexEncodesNumericFields(t *testing.T) {
	h := &Header{
		Height:     255,
		Timestamp:  16,
		Difficulty: big.NewInt(42),
		Author:     common.Address{0x01},
	}

	out, err := json.Marshal(h)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, "0xff", decoded["height"])
	require.Equal(t, "0x10", decoded["timestamp"])
	require.Equal(t, "0x2a", decoded["difficulty"])
	require.NotEmpty(t, decoded["hash"])
}

func TestHexUint64RoundTrips(t *testing.T) {
	var h hexUint64 = 1234
	b, err := h.MarshalJSON()
	require.NoError(t, err)

	var got hexUint64
	require.NoError(t, got.UnmarshalJSON(b))
	require.Equal(t, h, got)
}

func TestHexBigRoundTrips(t *testing.T) {
	b := hexBig(*big.NewInt(987654321))
	encoded, err := b.MarshalJSON()
	require.NoError(t, err)

	var got hexBig
	require.NoError(t, got.UnmarshalJSON(encoded))
	require.Equal(t, big.NewInt(987654321), (*big.Int)(&got))
}

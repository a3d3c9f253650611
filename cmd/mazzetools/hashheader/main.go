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

// Command hashheader reads one JSON-encoded header from a file (or stdin
// if no argument is given) and prints the block hash a miner's
// stratum.Notify job would target, the same small single-purpose
// script shape as the teacher's docker/scripts/calculate-enode.go
// (_examples/equa-blockchain-core/...; that script isn't part of this
// module).
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mazzelabs/mazze-core/internal/types"
)

func main() {
	var r io.Reader = os.Stdin
	if len(os.Args) > 1 {
		f, err := os.Open(os.Args[1])
		if err != nil {
			fmt.Printf("Error opening header file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		r = f
	}

	body, err := io.ReadAll(r)
	if err != nil {
		fmt.Printf("Error reading header: %v\n", err)
		os.Exit(1)
	}

	var h types.Header
	if err := json.Unmarshal(body, &h); err != nil {
		fmt.Printf("Error decoding header JSON: %v\n", err)
		os.Exit(1)
	}

	hash := h.Hash()
	fmt.Printf("Height: %d\n", h.Height)
	fmt.Printf("ParentHash: %s\n", h.ParentHash.Hex())
	fmt.Printf("Hash: %s\n", hash.Hex())
}

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

// Package graphql is the read-only GraphQL surface spec §6 names
// alongside the JSON-RPC one, built on graph-gophers/graphql-go exactly
// like geth's graphql package wraps its own backend: one resolver struct
// per query root, no mutations.
package graphql

import (
	"context"
	"net/http"

	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/consensus"
)

const schemaString = `
	schema {
		query: Query
	}

	type Query {
		block(hash: String!): Block
		mainChainHeight: Int!
		stableHeight: Int!
	}

	type Block {
		hash: String!
		height: Int!
		epochNumber: Int!
		onMainChain: Boolean!
		partialInvalid: Boolean!
		adaptive: Boolean!
	}
`

// Resolver backs the schema's Query root.
type Resolver struct {
	Consensus *consensus.Graph
}

type blockResolver struct {
	info consensus.BlockInfo
}

func (r *blockResolver) Hash() string        { return r.info.Hash.Hex() }
func (r *blockResolver) Height() int32       { return int32(r.info.Height) }
func (r *blockResolver) EpochNumber() int32  { return int32(r.info.EpochNumber) }
func (r *blockResolver) OnMainChain() bool   { return r.info.OnMainChain }
func (r *blockResolver) PartialInvalid() bool { return r.info.PartialInvalid }
func (r *blockResolver) Adaptive() bool      { return r.info.Adaptive }

func (r *Resolver) Block(ctx context.Context, args struct{ Hash string }) (*blockResolver, error) {
	info, ok := r.Consensus.BlockInfoByHash(common.HexToHash(args.Hash))
	if !ok {
		return nil, nil
	}
	return &blockResolver{info: info}, nil
}

func (r *Resolver) MainChainHeight() int32 { return int32(r.Consensus.MainChainHeight()) }
func (r *Resolver) StableHeight() int32    { return int32(r.Consensus.StableHeight()) }

// NewHandler builds the parsed schema and wraps it in graph-gophers'
// relay.Handler, the same HTTP-POST-one-query idiom geth's graphql
// server uses.
func NewHandler(consensusGraph *consensus.Graph) (http.Handler, error) {
	schema, err := graphql.ParseSchema(schemaString, &Resolver{Consensus: consensusGraph})
	if err != nil {
		return nil, err
	}
	return &relay.Handler{Schema: schema}, nil
}

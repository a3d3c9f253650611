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

package rpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/go-bexpr"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/consensus"
	"github.com/mazzelabs/mazze-core/internal/execution"
	"github.com/mazzelabs/mazze-core/internal/mazzeerr"
	"github.com/mazzelabs/mazze-core/internal/syncgraph"
	"github.com/mazzelabs/mazze-core/internal/txpool"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// API bundles every component the mazze_* namespace reads from or writes
// to, one method per RPC call, in the shape of the teacher's
// consensus/equa/api.go API struct.
type API struct {
	Sync      *syncgraph.Graph
	Consensus *consensus.Graph
	Exec      *execution.Executor
	Pool      txpool.Pool
}

// Register wires every mazze_* method into s.
func (api *API) Register(s *Server) {
	s.RegisterMethod("mazze_blockNumber", api.blockNumber)
	s.RegisterMethod("mazze_getBestBlockHash", api.getBestBlockHash)
	s.RegisterMethod("mazze_getBlockByHash", api.getBlockByHash)
	s.RegisterMethod("mazze_getEpochNumber", api.getEpochNumber)
	s.RegisterMethod("mazze_getConfirmationRiskByHash", api.getConfirmationRiskByHash)
	s.RegisterMethod("mazze_getPoWDifficulty", api.getPoWDifficulty)
	s.RegisterMethod("mazze_sendRawTransaction", api.sendRawTransaction)
	s.RegisterMethod("mazze_call", api.call)
	s.RegisterMethod("mazze_estimateGas", api.estimateGas)
	s.RegisterMethod("mazze_getTransactionReceipt", api.getTransactionReceipt)
	s.RegisterMethod("mazze_getLogs", api.getLogs)
	s.RegisterMethod("mazze_getEpochReceiptsRoot", api.getEpochReceiptsRoot)
}

func (api *API) blockNumber(json.RawMessage) (interface{}, error) {
	return hexUint(api.Consensus.MainChainHeight()), nil
}

func (api *API) getBestBlockHash(json.RawMessage) (interface{}, error) {
	return api.Consensus.MainChainTipHash().Hex(), nil
}

type blockView struct {
	Hash           string `json:"hash"`
	Height         string `json:"height"`
	EpochNumber    string `json:"epochNumber"`
	OnMainChain    bool   `json:"onMainChain"`
	PartialInvalid bool   `json:"partialInvalid"`
	Adaptive       bool   `json:"adaptive"`
	SyncStatus     string `json:"syncStatus"`
}

func (api *API) getBlockByHash(params json.RawMessage) (interface{}, error) {
	var args [1]string
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	hash := common.HexToHash(args[0])

	status, known := api.Sync.StatusOf(hash)
	info, inConsensus := api.Consensus.BlockInfoByHash(hash)
	if !known && !inConsensus {
		return nil, mazzeerr.NewRpcError(mazzeerr.CodeInvalidParams, "unknown block hash", nil)
	}

	v := blockView{Hash: hash.Hex(), SyncStatus: status.String()}
	if inConsensus {
		v.Height = hexUint(info.Height)
		v.EpochNumber = hexUint(uint64(info.EpochNumber))
		v.OnMainChain = info.OnMainChain
		v.PartialInvalid = info.PartialInvalid
		v.Adaptive = info.Adaptive
	}
	return v, nil
}

func (api *API) getEpochNumber(params json.RawMessage) (interface{}, error) {
	var args [1]string
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	n, ok := api.Consensus.EpochNumberOf(common.HexToHash(args[0]))
	if !ok {
		return nil, mazzeerr.NewRpcError(mazzeerr.CodeInvalidParams, "block has no epoch yet", nil)
	}
	return hexUint(uint64(n)), nil
}

func (api *API) getConfirmationRiskByHash(params json.RawMessage) (interface{}, error) {
	var args [1]string
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	risk, ok := api.Consensus.ConfirmationRiskByHash(common.HexToHash(args[0]))
	if !ok {
		return nil, mazzeerr.NewRpcError(mazzeerr.CodeInvalidParams, "unknown block hash", nil)
	}
	return risk.String(), nil
}

func (api *API) getPoWDifficulty(params json.RawMessage) (interface{}, error) {
	var args [1]uint64
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	return hexUint(api.Consensus.EpochDifficultyAt(args[0])), nil
}

func (api *API) sendRawTransaction(params json.RawMessage) (interface{}, error) {
	var args [1]types.Transaction
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	errs := api.Pool.InsertNewTransactions([]*types.Transaction{&args[0]})
	if len(errs) > 0 && errs[0] != nil {
		return nil, errs[0]
	}
	return args[0].Hash.Hex(), nil
}

type callArgs struct {
	EpochID  string          `json:"epochId"`
	To       *common.Address `json:"to"`
	From     common.Address  `json:"from"`
	Data     []byte          `json:"data"`
	GasLimit uint64          `json:"gasLimit"`
}

func (api *API) call(params json.RawMessage) (interface{}, error) {
	var args [1]callArgs
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	outcome, _, err := api.Exec.CallVirtual(common.HexToHash(args[0].EpochID), execution.CallVirtualRequest{
		To: args[0].To, From: args[0].From, Data: args[0].Data, GasLimit: args[0].GasLimit,
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (api *API) estimateGas(params json.RawMessage) (interface{}, error) {
	var args [1]callArgs
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	_, est, err := api.Exec.CallVirtual(common.HexToHash(args[0].EpochID), execution.CallVirtualRequest{
		To: args[0].To, From: args[0].From, Data: args[0].Data, GasLimit: args[0].GasLimit,
	})
	if err != nil {
		return nil, err
	}
	return hexUint(est.EstimatedGas), nil
}

func (api *API) getTransactionReceipt(params json.RawMessage) (interface{}, error) {
	var args [1]string
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	receipt, epochHash, ok := api.Exec.TransactionReceipt(common.HexToHash(args[0]))
	if !ok {
		return nil, nil
	}
	return map[string]interface{}{
		"transactionHash": receipt.TxHash.Hex(),
		"epochHash":       epochHash.Hex(),
		"gasUsed":         hexUint(receipt.GasUsed),
		"status":          hexUint(receipt.Status),
	}, nil
}

type logFilter struct {
	Address *common.Address `json:"address,omitempty"`
	Topic   *common.Hash    `json:"topic,omitempty"`
	Expr    string          `json:"expr,omitempty"`
}

type logView struct {
	Address string `json:"address"`
	Topics  []string `json:"topics"`
}

// getLogs implements spec §6 mazze_getLogs over the executor's bounded
// receipt cache, with an optional free-form hashicorp/go-bexpr
// expression evaluated against each candidate log for ad-hoc filters
// beyond the fixed address/topic shape.
func (api *API) getLogs(params json.RawMessage) (interface{}, error) {
	var args [1]logFilter
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	f := args[0]

	var eval *bexpr.Evaluator
	if f.Expr != "" {
		e, err := bexpr.CreateEvaluator(f.Expr)
		if err != nil {
			return nil, mazzeerr.NewRpcError(mazzeerr.CodeInvalidParams, "invalid filter expression", err)
		}
		eval = e
	}

	var out []logView
	for _, epochHash := range api.Exec.RecentEpochs() {
		receipts, _ := api.Exec.RecentReceipts(epochHash)
		for _, br := range receipts {
			for _, r := range br.Receipts {
				for _, l := range r.Logs {
					if f.Address != nil && l.Address != *f.Address {
						continue
					}
					if f.Topic != nil && !containsTopic(l.Topics, *f.Topic) {
						continue
					}
					view := logView{Address: l.Address.Hex(), Topics: hexTopics(l.Topics)}
					if eval != nil {
						matched, err := eval.Evaluate(view)
						if err != nil || !matched {
							continue
						}
					}
					out = append(out, view)
				}
			}
		}
	}
	return out, nil
}

func (api *API) getEpochReceiptsRoot(params json.RawMessage) (interface{}, error) {
	var args [1]string
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := api.Exec.WaitForResult(ctx, common.HexToHash(args[0]))
	if err != nil {
		return nil, err
	}
	return c.ReceiptsRoot.Hex(), nil
}

func containsTopic(topics []common.Hash, want common.Hash) bool {
	for _, t := range topics {
		if t == want {
			return true
		}
	}
	return false
}

func hexTopics(topics []common.Hash) []string {
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = t.Hex()
	}
	return out
}

func hexUint(v uint64) string { return "0x" + formatUint(v) }

func formatUint(v uint64) string {
	if v == 0 {
		return "0"
	}
	const digits = "0123456789abcdef"
	var buf [16]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}

func unmarshalParams(raw json.RawMessage, into interface{}) error {
	if len(raw) == 0 {
		return mazzeerr.NewRpcError(mazzeerr.CodeInvalidParams, "missing params", nil)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return mazzeerr.NewRpcError(mazzeerr.CodeInvalidParams, "invalid params", err)
	}
	return nil
}

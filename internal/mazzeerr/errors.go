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

// Package mazzeerr centralizes the error taxonomy of spec §7. Protocol
// violations never panic across component boundaries; only storage
// corruption does, and is expected to crash the process for a clean
// restart.
package mazzeerr

import "fmt"

// Family groups an error by which boundary raised it.
type Family string

const (
	FamilyBlock     Family = "block"
	FamilyConsensus Family = "consensus"
	FamilyExecution Family = "execution"
	FamilyStorage   Family = "storage"
	FamilyNetwork   Family = "network"
	FamilyRPC       Family = "rpc"
)

// TaggedError is satisfied by every error family below, letting callers at
// an RPC boundary branch on Family()/Code() without type-switching on the
// concrete type.
type TaggedError interface {
	error
	Family() Family
	Code() string
}

type taggedErr struct {
	family Family
	code   string
	msg    string
	cause  error
}

func (e *taggedErr) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.family, e.code, e.msg, e.cause)
	}
	return fmt.Sprintf("%s.%s: %s", e.family, e.code, e.msg)
}

func (e *taggedErr) Family() Family { return e.family }
func (e *taggedErr) Code() string   { return e.code }
func (e *taggedErr) Unwrap() error  { return e.cause }

func newErr(f Family, code, msg string, cause error) *taggedErr {
	return &taggedErr{family: f, code: code, msg: msg, cause: cause}
}

// BlockError codes: block-local protocol violations caught at admission.
const (
	CodeInvalidHeight         = "InvalidHeight"
	CodeInvalidTimestamp      = "InvalidTimestamp"
	CodeInvalidGasLimit       = "InvalidGasLimit"
	CodeInvalidDifficulty     = "InvalidDifficulty"
	CodeInvalidTransactionsRoot = "InvalidTransactionsRoot"
	CodeInvalidPosReference   = "InvalidPosReference"
	CodePow                   = "Pow"
)

func NewBlockError(code, msg string) error { return newErr(FamilyBlock, code, msg, nil) }

// ConsensusError codes: view-dependent failures surfaced at RPC boundaries.
const (
	CodeMainAssumptionFailed = "MainAssumptionFailed"
	CodeInconsistentState    = "InconsistentState"
	CodeMissingCommitment    = "MissingCommitment"
	CodeStateNotReady        = "StateNotReady"
)

func NewConsensusError(code, msg string) error { return newErr(FamilyConsensus, code, msg, nil) }

// ErrStateNotReady is returned instead of panicking whenever a requested
// commitment or state view does not exist when it is served (including the
// snapshot-available-but-intermediate-missing corner case noted in
// spec §9's Open Questions).
var ErrStateNotReady = NewConsensusError(CodeStateNotReady, "requested state is not yet available")

// ExecutionError wraps VM-level failures, kept opaque to the core and
// surfaced only inside receipts.
func NewExecutionError(msg string, cause error) error {
	return newErr(FamilyExecution, "VMError", msg, cause)
}

// StorageError is fatal: the caller is expected to panic after logging it.
func NewStorageError(msg string, cause error) error {
	return newErr(FamilyStorage, "Corruption", msg, cause)
}

// NetworkError / RpcError are boundary-only; the core never originates them
// but the RPC layer wraps underlying failures into them before replying.
const (
	CodeInvalidParams = "InvalidParams"
	CodeInternalError = "InternalError"
	CodeTimeout        = "Timeout"
)

func NewNetworkError(msg string, cause error) error { return newErr(FamilyNetwork, "NetworkError", msg, cause) }
func NewRpcError(code, msg string, cause error) error { return newErr(FamilyRPC, code, msg, cause) }

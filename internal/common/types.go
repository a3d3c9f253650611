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

// Package common holds the value types shared by every subsystem of the
// core: block hashes and author addresses. The real hashing/encoding
// algorithm, address derivation, and account model are black boxes behind
// the mazzeiface package; this package only fixes the wire-level shapes.
package common

import (
	"encoding/hex"
	"fmt"
)

const (
	HashLength    = 32
	AddressLength = 20
)

// Hash represents a content-addressed 32-byte identifier: a block hash, a
// transaction hash, a state/receipts/logs-bloom root, or a commitment key.
type Hash [HashLength]byte

// BytesToHash right-aligns b inside a Hash, truncating from the left if b
// is longer than HashLength.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// HexToHash parses a "0x"-prefixed or bare hex string into a Hash.
func HexToHash(s string) Hash {
	return BytesToHash(FromHex(s))
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

func (h Hash) IsZero() bool { return h == Hash{} }

// Cmp provides the deterministic tie-break order used throughout the
// consensus graph: ties between equal subtree weights always resolve via
// ascending hash, never insertion order.
func (h Hash) Cmp(other Hash) int {
	for i := 0; i < HashLength; i++ {
		if h[i] != other[i] {
			if h[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

func (h *Hash) UnmarshalText(input []byte) error {
	*h = HexToHash(string(input))
	return nil
}

// Address identifies a block author / account. Address encoding itself
// (checksum casing, network prefixes) is out of scope; this is the raw
// 20-byte value the core reads off a verified header.
type Address [AddressLength]byte

func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

func HexToAddress(s string) Address {
	return BytesToAddress(FromHex(s))
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

func (a Address) IsZero() bool { return a == Address{} }

// FromHex decodes a hex string that may or may not carry a 0x prefix.
// Malformed input decodes to an empty slice rather than panicking: callers
// at the RPC boundary are expected to validate before this point.
func FromHex(s string) []byte {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// HashList is a small helper for logging/debugging hash collections without
// pulling in the full generic set machinery used by the arena. String
// abbreviates each hash to its first four bytes.
type HashList []Hash

func (hs HashList) String() string {
	out := "["
	for i, h := range hs {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s", h.Hex()[:10])
	}
	return out + "]"
}

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

// Package datamanager implements BlockDataManager: the read-mostly,
// internally synchronized store shared by SyncGraph, ConsensusGraph, the
// executor, and RPC (spec §5 "Shared resources", §6 "Persisted state").
package datamanager

import (
	"encoding/binary"
	"encoding/json"
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/mazzeerr"
	"github.com/mazzelabs/mazze-core/internal/types"
)

const (
	prefixHeader        = "h:"
	prefixBody          = "b:"
	prefixLocalInfo     = "i:"
	prefixHashByNumber  = "n:"
	prefixCommitment    = "c:"
	prefixTerminals     = "t:terminals"
)

// Manager is BlockDataManager. Headers/bodies/local-info live in Pebble
// (content-addressed); a bounded fastcache front-ends the
// verified_invalid / recently-seen-hash lookups that would otherwise hit
// the KV store on every SyncGraph insertion.
type Manager struct {
	mu sync.RWMutex
	db *pebble.DB

	verifiedInvalid *fastcache.Cache
	recentHashes    *fastcache.Cache

	instanceID uint64
}

// Open creates/opens the Pebble database at dir and assigns a fresh
// instance_id for this process run (spec §6 local_block_info.instance_id).
func Open(dir string) (*Manager, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, mazzeerr.NewStorageError("failed to open data directory", err)
	}
	return &Manager{
		db:              db,
		verifiedInvalid: fastcache.New(8 * 1024 * 1024),
		recentHashes:    fastcache.New(16 * 1024 * 1024),
		instanceID:      uint64(uuid.New().ID()),
	}, nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

func (m *Manager) InstanceID() uint64 { return m.instanceID }

// --- Headers / bodies -------------------------------------------------

func (m *Manager) PutHeader(h *types.Header) error {
	buf, err := json.Marshal(h)
	if err != nil {
		return err
	}
	hash := h.Hash()
	m.recentHashes.Set(hash.Bytes(), []byte{1})
	return m.db.Set([]byte(prefixHeader+hash.Hex()), buf, pebble.Sync)
}

func (m *Manager) GetHeader(hash common.Hash) (*types.Header, bool) {
	val, closer, err := m.db.Get([]byte(prefixHeader + hash.Hex()))
	if err == pebble.ErrNotFound {
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	defer closer.Close()
	var h types.Header
	if err := json.Unmarshal(val, &h); err != nil {
		return nil, false
	}
	return &h, true
}

func (m *Manager) PutBody(hash common.Hash, body *types.Body) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return m.db.Set([]byte(prefixBody+hash.Hex()), buf, pebble.Sync)
}

func (m *Manager) GetBody(hash common.Hash) (*types.Body, bool) {
	val, closer, err := m.db.Get([]byte(prefixBody + hash.Hex()))
	if err != nil {
		return nil, false
	}
	defer closer.Close()
	var b types.Body
	if err := json.Unmarshal(val, &b); err != nil {
		return nil, false
	}
	return &b, true
}

func (m *Manager) HasBody(hash common.Hash) bool {
	_, ok := m.GetBody(hash)
	return ok
}

// --- local_block_info ---------------------------------------------------

func (m *Manager) PutLocalBlockInfo(hash common.Hash, info *types.LocalBlockInfo) error {
	buf, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return m.db.Set([]byte(prefixLocalInfo+hash.Hex()), buf, pebble.Sync)
}

func (m *Manager) GetLocalBlockInfo(hash common.Hash) (*types.LocalBlockInfo, bool) {
	val, closer, err := m.db.Get([]byte(prefixLocalInfo + hash.Hex()))
	if err != nil {
		return nil, false
	}
	defer closer.Close()
	var info types.LocalBlockInfo
	if err := json.Unmarshal(val, &info); err != nil {
		return nil, false
	}
	return &info, true
}

// --- verified_invalid cache ----------------------------------------------

func (m *Manager) MarkVerifiedInvalid(hash common.Hash) {
	m.verifiedInvalid.Set(hash.Bytes(), []byte{1})
}

func (m *Manager) IsVerifiedInvalid(hash common.Hash) bool {
	return m.verifiedInvalid.Has(hash.Bytes())
}

func (m *Manager) HasSeenHash(hash common.Hash) bool {
	return m.recentHashes.Has(hash.Bytes())
}

// --- hash_by_block_number ------------------------------------------------

func (m *Manager) PutHashByNumber(number uint64, hash common.Hash) error {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], number)
	return m.db.Set(append([]byte(prefixHashByNumber), key[:]...), hash.Bytes(), pebble.Sync)
}

func (m *Manager) GetHashByNumber(number uint64) (common.Hash, bool) {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], number)
	val, closer, err := m.db.Get(append([]byte(prefixHashByNumber), key[:]...))
	if err != nil {
		return common.Hash{}, false
	}
	defer closer.Close()
	return common.BytesToHash(val), true
}

// --- EpochExecutionCommitment --------------------------------------------

func (m *Manager) PutCommitment(mainHash common.Hash, c *types.EpochExecutionCommitment) error {
	buf, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return m.db.Set([]byte(prefixCommitment+mainHash.Hex()), buf, pebble.Sync)
}

func (m *Manager) GetCommitment(mainHash common.Hash) (*types.EpochExecutionCommitment, bool) {
	val, closer, err := m.db.Get([]byte(prefixCommitment + mainHash.Hex()))
	if err != nil {
		return nil, false
	}
	defer closer.Close()
	var c types.EpochExecutionCommitment
	if err := json.Unmarshal(val, &c); err != nil {
		return nil, false
	}
	return &c, true
}

func (m *Manager) EpochExecuted(mainHash common.Hash) bool {
	_, ok := m.GetCommitment(mainHash)
	return ok
}

// --- terminals ------------------------------------------------------------

// PersistTerminals stores the current tip set for clean-shutdown recovery
// (spec §6 "terminals").
func (m *Manager) PersistTerminals(hashes []common.Hash) error {
	buf, err := json.Marshal(hashes)
	if err != nil {
		return err
	}
	return m.db.Set([]byte(prefixTerminals), buf, pebble.Sync)
}

func (m *Manager) LoadTerminals() ([]common.Hash, bool) {
	val, closer, err := m.db.Get([]byte(prefixTerminals))
	if err != nil {
		return nil, false
	}
	defer closer.Close()
	var hashes []common.Hash
	if err := json.Unmarshal(val, &hashes); err != nil {
		return nil, false
	}
	return hashes, true
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/qianbin/directcache"

	"github.com/vechain/hive/cache"
	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/kv"
	"github.com/vechain/hive/log"
	"github.com/vechain/hive/stackedmap"
)

var logger = log.WithContext("pkg", "state")

// default size of the raw storage cache in bytes
const cacheSize = 16 * 1024 * 1024

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Cause returns the underlying error.
func (e *Error) Cause() error {
	return e.cause
}

type storageKey struct {
	addr hive.Address
	key  hive.Bytes32
}

func (k storageKey) bytes() []byte {
	return append(append(make([]byte, 0, hive.AddressLength+32), k.addr[:]...), k.key[:]...)
}

// State keeps contract storage on top of a kv store.
// Writes are journaled in memory until Commit, and can be reverted
// to any checkpoint before that.
type State struct {
	store kv.Store
	cache *directcache.Cache
	stats cache.Stats
	sm    *stackedmap.StackedMap[storageKey, rlp.RawValue]
}

// New create state object.
func New(store kv.Store) *State {
	s := &State{
		store: store,
		cache: directcache.New(cacheSize),
	}
	s.sm = stackedmap.New(s.load)
	return s
}

// load implements stackedmap.MapGetter.
func (s *State) load(key storageKey) (rlp.RawValue, bool, error) {
	k := key.bytes()

	var cached rlp.RawValue
	if s.cache.AdvGet(k, func(val []byte) {
		cached = bytes.Clone(val)
	}, false) {
		s.stats.Hit()
		return cached, true, nil
	}
	s.stats.Miss()

	val, err := s.store.Get(k)
	if err != nil {
		if !s.store.IsNotFound(err) {
			return nil, false, err
		}
		val = nil
	}
	_ = s.cache.Set(k, val)
	return val, true, nil
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr hive.Address, key hive.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw. Empty raw deletes the value.
func (s *State) SetRawStorage(addr hive.Address, key hive.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr hive.Address, key hive.Bytes32) (hive.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return hive.Bytes32{}, err
	}
	if len(raw) == 0 {
		return hive.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return hive.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// structured value, return hash of raw data
		return hive.Blake2b(raw), nil
	}
	return hive.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr hive.Address, key, value hive.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr hive.Address, key hive.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
func (s *State) DecodeStorage(addr hive.Address, key hive.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Commit writes all journaled changes into the store in one bulk, then
// resets the journal.
func (s *State) Commit() error {
	bulk := s.store.Bulk()
	changes := make(map[storageKey]rlp.RawValue)

	var err error
	s.sm.Journal(func(key storageKey, raw rlp.RawValue) bool {
		changes[key] = raw
		if len(raw) == 0 {
			err = bulk.Delete(key.bytes())
		} else {
			err = bulk.Put(key.bytes(), raw)
		}
		return err == nil
	})
	if err != nil {
		return &Error{err}
	}
	if err := bulk.Write(); err != nil {
		return &Error{err}
	}

	for key, raw := range changes {
		_ = s.cache.Set(key.bytes(), raw)
	}
	s.sm = stackedmap.New(s.load)

	if changed, hit, miss := s.stats.Stats(); changed {
		logger.Debug("state cache stats", "hit", hit, "miss", miss, "written", len(changes))
	}
	return nil
}

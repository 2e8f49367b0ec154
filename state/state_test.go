// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/kv"
	"github.com/vechain/hive/lvldb"
)

func newStore(t *testing.T) kv.Store {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return kv.Bucket("s").NewStore(db)
}

func TestState_Storage(t *testing.T) {
	st := New(newStore(t))
	addr := hive.BytesToAddress([]byte("contract"))
	key := hive.BytesToBytes32([]byte("key"))

	v, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	value := hive.BytesToBytes32([]byte("value"))
	st.SetStorage(addr, key, value)
	v, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, value, v)

	st.SetStorage(addr, key, hive.Bytes32{})
	raw, err := st.GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestState_StructuredStorage(t *testing.T) {
	st := New(newStore(t))
	addr := hive.BytesToAddress([]byte("contract"))
	key := hive.BytesToBytes32([]byte("list"))

	type pair struct {
		A uint64
		B string
	}
	require.NoError(t, st.EncodeStorage(addr, key, func() ([]byte, error) {
		return rlp.EncodeToBytes(&pair{1, "x"})
	}))

	var decoded pair
	require.NoError(t, st.DecodeStorage(addr, key, func(raw []byte) error {
		return rlp.DecodeBytes(raw, &decoded)
	}))
	assert.Equal(t, pair{1, "x"}, decoded)

	// list values read as Bytes32 are hashed
	raw, err := st.GetRawStorage(addr, key)
	require.NoError(t, err)
	v, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, hive.Blake2b(raw), v)
}

func TestState_Checkpoint(t *testing.T) {
	st := New(newStore(t))
	addr := hive.BytesToAddress([]byte("contract"))
	key := hive.BytesToBytes32([]byte("key"))

	st.SetStorage(addr, key, hive.BytesToBytes32([]byte{1}))
	cp := st.NewCheckpoint()
	st.SetStorage(addr, key, hive.BytesToBytes32([]byte{2}))

	v, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, hive.BytesToBytes32([]byte{2}), v)

	st.RevertTo(cp)
	v, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, hive.BytesToBytes32([]byte{1}), v)
}

func TestState_Commit(t *testing.T) {
	store := newStore(t)
	st := New(store)
	addr := hive.BytesToAddress([]byte("contract"))
	k1 := hive.BytesToBytes32([]byte("k1"))
	k2 := hive.BytesToBytes32([]byte("k2"))

	st.SetStorage(addr, k1, hive.BytesToBytes32([]byte{1}))
	st.SetStorage(addr, k2, hive.BytesToBytes32([]byte{2}))
	require.NoError(t, st.Commit())

	// a fresh state over the same store sees committed values
	fresh := New(store)
	v, err := fresh.GetStorage(addr, k1)
	require.NoError(t, err)
	assert.Equal(t, hive.BytesToBytes32([]byte{1}), v)

	st.SetStorage(addr, k2, hive.Bytes32{})
	require.NoError(t, st.Commit())

	fresh = New(store)
	v, err = fresh.GetStorage(addr, k2)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	// uncommitted writes never reach the store
	st.SetStorage(addr, k1, hive.BytesToBytes32([]byte{9}))
	fresh = New(store)
	v, err = fresh.GetStorage(addr, k1)
	require.NoError(t, err)
	assert.Equal(t, hive.BytesToBytes32([]byte{1}), v)
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/lvldb"
	"github.com/vechain/hive/state"
)

func newContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	return NewContext(hive.BytesToAddress([]byte("contract")), state.New(db))
}

func TestAddress(t *testing.T) {
	ctx := newContext(t)
	slot := NewAddress(ctx, hive.BytesToBytes32([]byte("addr")))

	value := hive.BytesToAddress([]byte("someone"))
	slot.Set(&value)

	got, err := slot.Get()
	require.NoError(t, err)
	assert.Equal(t, value, got)

	slot.Set(nil)
	got, err = slot.Get()
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	assert.Equal(t, hive.BytesToAddress([]byte("contract")), ctx.Address())
}

func TestAddress_CorruptStorage(t *testing.T) {
	ctx := newContext(t)
	pos := hive.BytesToBytes32([]byte("addr"))
	ctx.State().SetRawStorage(ctx.Address(), pos, rlp.RawValue{0xFF})

	_, err := NewAddress(ctx, pos).Get()
	assert.Error(t, err)
}

func TestUint256(t *testing.T) {
	ctx := newContext(t)
	u := NewUint256(ctx, hive.BytesToBytes32([]byte("num")))

	v, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())

	require.NoError(t, u.Add(big.NewInt(100)))
	require.NoError(t, u.Sub(big.NewInt(40)))
	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(60), v)

	assert.ErrorIs(t, u.Sub(big.NewInt(61)), ErrUnderflow)

	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	require.NoError(t, u.Set(maxUint256))
	assert.ErrorIs(t, u.Add(big.NewInt(1)), ErrOverflow)

	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, maxUint256, v, "failed update must not change the slot")

	assert.ErrorIs(t, u.Set(big.NewInt(-1)), ErrUnderflow)
}

type record struct {
	Name  string
	Value *big.Int
}

func TestMapping(t *testing.T) {
	ctx := newContext(t)
	m := NewMapping[hive.Address, *record](ctx, hive.BytesToBytes32([]byte("records")))
	key := hive.BytesToAddress([]byte("key"))

	got, err := m.Get(key)
	require.NoError(t, err)
	require.NotNil(t, got, "pointer values are allocated on miss")
	assert.Empty(t, got.Name)

	ok, err := m.Has(key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(key, &record{Name: "a", Value: big.NewInt(7)}))
	got, err = m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, big.NewInt(7), got.Value)

	ok, err = m.Has(key)
	require.NoError(t, err)
	assert.True(t, ok)

	m.Delete(key)
	ok, err = m.Has(key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMapping_Uint64Key(t *testing.T) {
	ctx := newContext(t)
	m := NewMapping[Uint64Key, uint64](ctx, hive.BytesToBytes32([]byte("index")))

	require.NoError(t, m.Set(1, 10))
	require.NoError(t, m.Set(2, 20))

	v, err := m.Get(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), v)
	v, err = m.Get(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}

func TestRaw(t *testing.T) {
	ctx := newContext(t)
	flag := NewRaw[bool](ctx, hive.BytesToBytes32([]byte("flag")))

	v, err := flag.Get()
	require.NoError(t, err)
	assert.False(t, v)

	require.NoError(t, flag.Set(true))
	v, err = flag.Get()
	require.NoError(t, err)
	assert.True(t, v)

	flag.Delete()
	v, err = flag.Get()
	require.NoError(t, err)
	assert.False(t, v)
}

func TestCheckpointRevert(t *testing.T) {
	ctx := newContext(t)
	u := NewUint256(ctx, hive.BytesToBytes32([]byte("num")))
	require.NoError(t, u.Set(big.NewInt(1)))

	cp := ctx.State().NewCheckpoint()
	require.NoError(t, u.Set(big.NewInt(2)))
	ctx.State().RevertTo(cp)

	v, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), v)
}
